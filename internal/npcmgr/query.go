package npcmgr

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/npcai"
)

// cellSize matches the teacher's AOIGrid: large enough that a 3x3
// neighborhood covers any plausible vision/attack radius.
const cellSize = 20

type cellKey struct{ cx, cy int }

func toCellCoord(v int) int {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

func cellOf(t geom.Tile) cellKey {
	return cellKey{cx: toCellCoord(t.X), cy: toCellCoord(t.Y)}
}

// spatialGrid is internal/world/aoi.go's AOIGrid generalized from
// uint64 session IDs to ecs.EntityID, and from a single flat map-ID
// namespace to one grid per zone (npcmgr only ever holds one zone's
// NPCs, so the map-ID axis the teacher carried is dropped).
type spatialGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func newSpatialGrid() *spatialGrid {
	return &spatialGrid{cells: make(map[cellKey]map[ecs.EntityID]struct{})}
}

func (g *spatialGrid) add(id ecs.EntityID, t geom.Tile) {
	k := cellOf(t)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *spatialGrid) remove(id ecs.EntityID, t geom.Tile) {
	k := cellOf(t)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

func (g *spatialGrid) move(id ecs.EntityID, from, to geom.Tile) {
	fk, tk := cellOf(from), cellOf(to)
	if fk == tk {
		return
	}
	g.remove(id, from)
	g.add(id, to)
}

// nearby returns every entity in the 3x3 cell neighborhood around t.
// Callers do their own fine-grained distance filtering.
func (g *spatialGrid) nearby(t geom.Tile) []ecs.EntityID {
	c := cellOf(t)
	var out []ecs.EntityID
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			k := cellKey{cx: c.cx + dx, cy: c.cy + dy}
			for id := range g.cells[k] {
				out = append(out, id)
			}
		}
	}
	return out
}

// relationOf resolves a character's faction relation. A player is always
// RelationFriend; an NPC's relation comes from its CharacterDef, since
// Character itself carries no relation field (only CharacterDef does).
func (m *Manager) relationOf(c *character.Character) assets.Relation {
	if c.Kind == character.KindPlayer {
		return assets.RelationFriend
	}
	if c.Npc == nil {
		return assets.RelationNone
	}
	def, ok := m.registry.CharacterDef(c.Npc.DefKey)
	if !ok {
		return assets.RelationNone
	}
	return def.Relation
}

func (m *Manager) defOf(c *character.Character) (*assets.CharacterDef, bool) {
	if c.Npc == nil {
		return nil, false
	}
	return m.registry.CharacterDef(c.Npc.DefKey)
}

// isEnemy implements spec §4.7's hostility contract: characters that are
// not fighter-kind are never enemies of anything; a player or a friendly
// fighter is hostile to anything not on the player's side; two non-friend
// fighters are hostile to each other only when their relations differ
// (there being no separate faction/group axis in this flattened model,
// relation mismatch stands in for the teacher's group-ID comparison).
func isEnemy(a, b *character.Character, relA, relB assets.Relation) bool {
	aFighter := a.Kind == character.KindFighter || a.Kind == character.KindPlayer
	bFighter := b.Kind == character.KindFighter || b.Kind == character.KindPlayer
	if !aFighter || !bFighter {
		return false
	}
	if relA == assets.RelationNeutral || relB == assets.RelationNeutral {
		return false
	}
	aFriendly := a.Kind == character.KindPlayer || relA == assets.RelationFriend
	bFriendly := b.Kind == character.KindPlayer || relB == assets.RelationFriend
	if aFriendly != bFriendly {
		return true
	}
	return relA != relB
}

// DefOf exposes defOf to callers outside the package — worldtick's
// magic.World.ApplyHit needs the target's CharacterDef to resolve its
// be-attacked retaliation magic and direction (spec §4.6 step 4).
func (m *Manager) DefOf(c *character.Character) (*assets.CharacterDef, bool) {
	return m.defOf(c)
}

// RegisterHit folds a damage event into the target's aggro table. Exposed
// for worldtick's magic.World.ApplyHit, which applies damage through
// combat.TakeDamage directly (outside npcmgr's own meleeAttack path) and
// so has no other way to drive hate-table bookkeeping for magic hits.
func (m *Manager) RegisterHit(target, attacker *character.Character, damage int) {
	if target.Npc != nil && attacker != nil {
		addHate(target.Npc, attacker.ID, damage)
	}
}

// IsObstacle reports whether a live, non-Flyer NPC occupies tile t —
// spec.md §8 property 3. A Flyer is excluded the same way it skips the
// terrain obstacle check in stepStraight: it never blocks, and is never
// blocked by, ground traffic. This is the manager's own occupancy index,
// kept separate from MapBase's authored barrier bits so it can be
// consulted without perturbing the magic engine's terrain-only collision
// check (see moveTo).
func (m *Manager) IsObstacle(t geom.Tile) bool {
	for _, id := range m.grid.nearby(t) {
		c, ok := m.npcs[id]
		if !ok || c.Tile != t || c.IsDead() {
			continue
		}
		if c.Kind == character.KindFlyer {
			continue
		}
		return true
	}
	return false
}

// IsEnemy exposes isEnemy's contract to callers outside the package
// (e.g. worldtick's magic.World.HitCandidateAt implementation).
func (m *Manager) IsEnemy(a, b ecs.EntityID) bool {
	ca, ok := m.npcs[a]
	if !ok {
		return false
	}
	cb, ok := m.npcs[b]
	if !ok {
		return false
	}
	return isEnemy(ca, cb, m.relationOf(ca), m.relationOf(cb))
}

// getEnemy returns a live enemy of finder occupying tile, if any.
// withNeutral also matches neutral-relation occupants (used by AOE
// casts flagged attackAll).
func (m *Manager) getEnemy(finder *character.Character, tile geom.Tile, withNeutral bool) (*character.Character, bool) {
	relFinder := m.relationOf(finder)
	for _, id := range m.grid.nearby(tile) {
		c, ok := m.npcs[id]
		if !ok || c.Tile != tile || c.ID == finder.ID || c.IsDead() {
			continue
		}
		rel := m.relationOf(c)
		if isEnemy(finder, c, relFinder, rel) || (withNeutral && rel == assets.RelationNeutral) {
			return c, true
		}
	}
	return nil, false
}

// getFighter returns a live Fighter-kind character at tile, if any.
func (m *Manager) getFighter(tile geom.Tile) (*character.Character, bool) {
	for _, id := range m.grid.nearby(tile) {
		c, ok := m.npcs[id]
		if !ok || c.Tile != tile || c.IsDead() {
			continue
		}
		if c.Kind == character.KindFighter {
			return c, true
		}
	}
	return nil, false
}

// getPlayerOrFighterFriend returns the player, or a friendly Fighter, at
// tile — the set of occupants an enemy NPC is allowed to target.
func (m *Manager) getPlayerOrFighterFriend(tile geom.Tile) (*character.Character, bool) {
	for _, id := range m.grid.nearby(tile) {
		c, ok := m.npcs[id]
		if !ok || c.Tile != tile || c.IsDead() {
			continue
		}
		if c.Kind == character.KindPlayer {
			return c, true
		}
		if c.Kind == character.KindFighter && m.relationOf(c) == assets.RelationFriend {
			return c, true
		}
	}
	return nil, false
}

// getEventer returns an Eventer-kind character at tile, if any — used by
// scripted triggers (pressure plates, quest markers) that fire on any
// character kind rather than just the player.
func (m *Manager) getEventer(tile geom.Tile) (*character.Character, bool) {
	for _, id := range m.grid.nearby(tile) {
		c, ok := m.npcs[id]
		if !ok || c.Tile != tile {
			continue
		}
		if c.Kind == character.KindEventer {
			return c, true
		}
	}
	return nil, false
}

// getClosestEnemy scans the 3x3 cell neighborhood of origin for the
// nearest live enemy of finder within radius tiles (view-tile distance).
func (m *Manager) getClosestEnemy(finder *character.Character, origin geom.Tile, radius int) (*character.Character, bool) {
	relFinder := m.relationOf(finder)
	var best *character.Character
	bestDist := radius + 1
	for _, id := range m.grid.nearby(origin) {
		c, ok := m.npcs[id]
		if !ok || c.ID == finder.ID || c.IsDead() {
			continue
		}
		if !isEnemy(finder, c, relFinder, m.relationOf(c)) {
			continue
		}
		d := geom.ViewTileDistance(origin, c.Tile)
		if d <= radius && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != nil
}

// findEnemiesInTileDistance collects every live enemy of finder within
// radius tiles of origin — used by AOE magic and by the region-based
// formation's hit resolution.
func (m *Manager) findEnemiesInTileDistance(finder *character.Character, origin geom.Tile, radius int) []*character.Character {
	relFinder := m.relationOf(finder)
	var out []*character.Character
	for _, id := range m.grid.nearby(origin) {
		c, ok := m.npcs[id]
		if !ok || c.ID == finder.ID || c.IsDead() {
			continue
		}
		if !isEnemy(finder, c, relFinder, m.relationOf(c)) {
			continue
		}
		if geom.ViewTileDistance(origin, c.Tile) <= radius {
			out = append(out, c)
		}
	}
	return out
}

// getNeighborEnemy checks finder's 8 adjacent tiles for a live enemy,
// the melee-range probe the teacher's tickMonsterAI runs before chasing.
func (m *Manager) getNeighborEnemy(finder *character.Character) (*character.Character, bool) {
	for _, t := range geom.Neighbors8(finder.Tile) {
		if c, ok := m.getEnemy(finder, t, false); ok {
			return c, true
		}
	}
	return nil, false
}

// FindEnemyInVision satisfies npcai.World: the closest enemy within
// visionRadius tiles, or none.
func (m *Manager) FindEnemyInVision(npc *character.Character, visionRadius int) (ecs.EntityID, bool) {
	c, ok := m.getClosestEnemy(npc, npc.Tile, visionRadius)
	if !ok {
		return 0, false
	}
	return c.ID, true
}

// RecentFriendDeathTile satisfies npcai.World: the tile of a same-side
// character that died within radius tiles in the last deathInfoFrames
// ticks.
func (m *Manager) RecentFriendDeathTile(npc *character.Character, radius int) (geom.Tile, bool) {
	rel := m.relationOf(npc)
	for _, d := range m.deaths {
		if d.Relation != rel {
			continue
		}
		if geom.ViewTileDistance(npc.Tile, d.Tile) <= radius {
			return d.Tile, true
		}
	}
	return geom.Tile{}, false
}

var _ npcai.World = (*Manager)(nil)
