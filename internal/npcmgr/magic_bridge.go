package npcmgr

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

// maxTraceRadius bounds TraceEnemy/NearestEnemyTile's search: the spec
// gives no explicit cap, and a sprite tracing across an entire zone every
// tick would be indistinguishable from an untargeted one, so this mirrors
// the widest vision radius any CharacterDef plausibly configures.
const maxTraceRadius = 40

// HitTargetAt resolves which live character a magic sprite at tile should
// damage, satisfying the World-query half of magic.World.HitCandidateAt
// (the rest — invincibility/penetration/status payload — is combat's
// job). attackAll widens the hostility test to include neutrals, mirroring
// a region-of-effect spell that doesn't discriminate by relation.
func (m *Manager) HitTargetAt(tile geom.Tile, ownerID ecs.EntityID, align assets.Relation, attackAll bool) (*character.Character, bool) {
	for _, id := range m.grid.nearby(tile) {
		c, ok := m.npcs[id]
		if !ok || c.Tile != tile || c.ID == ownerID || c.IsDead() {
			continue
		}
		rel := m.relationOf(c)
		if isHostileAlign(align, rel) || (attackAll && rel != align) {
			return c, true
		}
	}
	return nil, false
}

// isHostileAlign mirrors isEnemy's relation-mismatch contract but for a
// sprite's fixed alignment rather than a live caster character.
func isHostileAlign(align, rel assets.Relation) bool {
	if rel == assets.RelationNeutral || align == assets.RelationNeutral {
		return false
	}
	return align != rel
}

// NearestEnemyTile satisfies magic.World: the tile of the closest live
// character whose relation is hostile to align, within maxTraceRadius of
// origin.
func (m *Manager) NearestEnemyTile(origin geom.Tile, align assets.Relation) (geom.Tile, bool) {
	var best *character.Character
	bestDist := maxTraceRadius + 1
	for _, c := range m.npcs {
		if c.IsDead() {
			continue
		}
		rel := m.relationOf(c)
		if !isHostileAlign(align, rel) {
			continue
		}
		d := geom.ViewTileDistance(origin, c.Tile)
		if d <= maxTraceRadius && d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == nil {
		return geom.Tile{}, false
	}
	return best.Tile, true
}

// CharacterTile satisfies magic.World: the current tile of a live
// character, for an owner-following (non-tracing) sprite to re-aim by.
func (m *Manager) CharacterTile(id ecs.EntityID) (geom.Tile, bool) {
	c, ok := m.npcs[id]
	if !ok {
		return geom.Tile{}, false
	}
	return c.Tile, true
}
