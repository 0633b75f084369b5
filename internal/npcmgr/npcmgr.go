// Package npcmgr owns every NPC/player Character, their spatial index, and
// the hate-table/respawn bookkeeping the per-tick AI decision flow needs.
// It is the npcai.World and npcai.MagicCaster implementation: it alone has
// registry access to resolve an entity's CharacterDef, which npcai and
// combat need for relation/hostility checks but cannot do themselves now
// that Character carries no Relation field of its own.
//
// Grounded on the teacher's internal/world/state.go (NpcList/PlayerList
// bookkeeping) and internal/system/npc_ai.go's tick loop, generalized from
// Lineage's session-keyed tables to this engine's ecs.EntityID pool.
package npcmgr

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/core/event"
	"github.com/ninesuns/jianghu/internal/core/system"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/magic"
	"github.com/ninesuns/jianghu/internal/npcai"
	"github.com/ninesuns/jianghu/internal/scripting"
	"github.com/ninesuns/jianghu/internal/terrain"
)

// DeathInfo tracks a recently-dead character for the two-phase
// delete/respawn sequence and for FindFriendDeathTile's "someone on my
// side just died nearby" query. FramesRemaining starts at deathInfoFrames
// and decays every tick; once it hits zero the NPC is evicted from the
// death log entirely (it may already be mid-respawn by then).
type DeathInfo struct {
	Entity   ecs.EntityID
	Tile     geom.Tile
	Relation assets.Relation

	FramesRemaining int
}

const deathInfoFrames = 2

// BodyEmitter lets the death cascade hand off a corpse marker to
// objmgr without npcmgr importing it back.
type BodyEmitter interface {
	SpawnBody(tile geom.Tile, defKey string)
}

// ScriptEngine is the combination of scripting.Runner (death-script
// queuing) and the melee damage-formula callout combat.MeleeDamage
// needs. *scripting.LuaRunner satisfies both.
type ScriptEngine interface {
	scripting.Runner
	CalcMeleeDamage(scripting.MeleeContext) scripting.MeleeResult
}

// Manager owns every live Character (NPC or player), their entity pool,
// and the spatial/aggro bookkeeping npcai.World needs.
type Manager struct {
	pool *ecs.EntityPool
	npcs map[ecs.EntityID]*character.Character

	grid *spatialGrid

	registry assets.Registry
	scr      ScriptEngine
	ai       scripting.AIRunner
	magicMgr *magic.Manager
	bodies   BodyEmitter
	bus      *event.Bus
	rng      *rand.Rand
	log      *zap.Logger

	zoneFile string
	mapBase  *terrain.MapBase

	playerID ecs.EntityID

	deaths []DeathInfo

	aiDisabled bool
}

// New constructs an empty NpcManager bound to its collaborators. magicMgr
// and bodies may be nil during early construction and set later via
// SetMagicManager/SetBodyEmitter, since worldtick.Context wires several
// managers that depend on each other in a cycle.
func New(registry assets.Registry, scr ScriptEngine, ai scripting.AIRunner, bus *event.Bus, rng *rand.Rand, log *zap.Logger) *Manager {
	return &Manager{
		pool:     ecs.NewEntityPool(),
		npcs:     make(map[ecs.EntityID]*character.Character),
		grid:     newSpatialGrid(),
		registry: registry,
		scr:      scr,
		ai:       ai,
		bus:      bus,
		rng:      rng,
		log:      log,
	}
}

// SetMagicManager wires the magic sprite engine NPC death/life-low/be-attacked
// casts dispatch through.
func (m *Manager) SetMagicManager(mm *magic.Manager) { m.magicMgr = mm }

// SetBodyEmitter wires the object manager's corpse-spawning hook.
func (m *Manager) SetBodyEmitter(b BodyEmitter) { m.bodies = b }

// SetZoneFile records which zone's NPCs this manager holds, for
// save/load keys and body-spawn bookkeeping.
func (m *Manager) SetZoneFile(zoneFile string) { m.zoneFile = zoneFile }

func (m *Manager) Phase() system.Phase { return system.PhaseNpc }

// SpawnPlayer registers the single player character this core drives.
// Multiple concurrent players are out of scope (spec.md Non-goals).
func (m *Manager) SpawnPlayer(tile geom.Tile, stats character.Stats) *character.Character {
	id := m.pool.Create()
	p := character.NewPlayer(id, tile, stats)
	m.npcs[id] = p
	m.grid.add(id, tile)
	m.playerID = id
	return p
}

// Player returns the player character, if one has been spawned.
func (m *Manager) Player() (*character.Character, bool) {
	c, ok := m.npcs[m.playerID]
	return c, ok
}

// Spawn constructs and registers a new NPC from its CharacterDef, emitting
// NpcSpawned. Used for spawn-list population and snapshot restores; a dead
// NPC's respawn reuses its existing entity instead (see respawn).
func (m *Manager) Spawn(def *assets.CharacterDef, tile geom.Tile) *character.Character {
	id := m.pool.Create()
	c := character.NewNpc(id, def, tile)
	if def.FixedPath != "" {
		if path, err := npcai.ParseFixedPath(def.FixedPath); err == nil {
			c.Npc.FixedPath = path
			c.Npc.IsLoopWalk = true
		} else {
			m.log.Warn("invalid fixed_path", zap.String("def_key", def.Key), zap.Error(err))
		}
	}
	m.npcs[id] = c
	m.grid.add(id, tile)
	event.Emit(m.bus, event.NpcSpawned{Entity: id, NpcID: int32(id.Index())})
	return c
}

// Get resolves a live character by id — satisfies npcai.World.Character.
func (m *Manager) Character(id ecs.EntityID) (*character.Character, bool) {
	if !m.pool.Alive(id) {
		return nil, false
	}
	c, ok := m.npcs[id]
	return c, ok
}

// Each calls fn for every live character (player included). fn must not
// add or remove characters.
func (m *Manager) Each(fn func(*character.Character)) {
	for _, c := range m.npcs {
		fn(c)
	}
}

// Count returns the number of live characters, for metrics.
func (m *Manager) Count() int { return len(m.npcs) }

// NpcsInView returns every visible, non-player character within radius
// tiles of center, grouped by tile row — spec.md §4.7's
// updateNpcsInView(rect), generalized from an AABB-in-world-space rect to
// a view-tile-distance radius since this core has no camera/viewport
// concept of its own (that lives in the external rendering collaborator).
// The caller (worldtick.Context, once per tick's PhaseView) hands the
// per-row grouping to the renderer for back-to-front depth sorting.
func (m *Manager) NpcsInView(center geom.Tile, radius int) map[int][]*character.Character {
	rows := make(map[int][]*character.Character)
	for _, c := range m.npcs {
		if !c.Visible || c.Kind == character.KindPlayer {
			continue
		}
		if geom.ViewTileDistance(center, c.Tile) > radius {
			continue
		}
		rows[c.Tile.Y] = append(rows[c.Tile.Y], c)
	}
	return rows
}

// DisableAI turns off every NPC's AI decision step (debug/admin command,
// spec.md §4.7's disableAI()) and immediately cancels every fighter's
// pending attack, per §4.7 ("disableAI() sets a flag and calls
// cancelAllFighterAttacks()") and the property 7 invariant: after this
// call, no NPC retains a destinationAttackTile or sits in an attack state
// for the remainder of the tick. Existing positions and stats are untouched.
func (m *Manager) DisableAI() {
	m.aiDisabled = true
	m.CancelAllFighterAttacks()
}

// EnableAI resumes AI decisions.
func (m *Manager) EnableAI() { m.aiDisabled = false }

// CancelAllFighterAttacks clears every fighter NPC's follow target, aggro
// table, and pending attack destination, and drops any in-progress attack
// state back to Stand, without killing or moving them — spec.md §4.7's
// cancelAllFighterAttacks(), used by region-wide peace scripts and by
// DisableAI.
func (m *Manager) CancelAllFighterAttacks() {
	for _, c := range m.npcs {
		if c.Npc == nil {
			continue
		}
		c.Npc.FollowTarget = 0
		c.Npc.DestinationAttackTile = nil
		clearHateList(c.Npc)
		if c.State == character.StateFightStand || c.State == character.StateAttack ||
			c.State == character.StateAttack1 || c.State == character.StateAttack2 ||
			c.State == character.StateMagic {
			c.State = character.StateStand
		}
	}
}

// moveTo updates an NPC's tile and keeps the spatial grid in sync.
// Occupancy lives only in m.grid (queried through IsObstacle), never in
// MapBase's barrier bits: those are authored terrain, shared with
// internal/magic's terrain-only collision check, and must not flicker
// with NPC traffic (spec §4.5 — a magic sprite's terrain obstacle check
// is independent of which characters happen to be standing nearby).
func (m *Manager) moveTo(c *character.Character, to geom.Tile) {
	m.grid.move(c.ID, c.Tile, to)
	c.Tile = to
	c.Pixel = geom.TileToPixel(to)
}

// removeEntity destroys an entity's pool slot and drops it from every
// index. Only called once an NPC's DeleteTimer has fully elapsed.
func (m *Manager) removeEntity(id ecs.EntityID) {
	if c, ok := m.npcs[id]; ok {
		m.grid.remove(id, c.Tile)
	}
	delete(m.npcs, id)
	m.pool.Destroy(id)
}

var _ system.System = (*Manager)(nil)
