// Package magic implements the magic-sprite engine (spec.md §4.5): spawning
// one of 20+ MoveKind formations from a cast, per-tick kinematic
// integration in pixel space, lifetime, collision against terrain and
// characters, and bounce. It is grounded on the spec's own formation
// catalogue — the teacher has no spatial projectile system, since Lineage
// skills are hit-scan formulas rather than sprites with independent
// kinematics — but borrows the teacher's "spawn, then the world tick
// advances/collides/expires it" lifecycle shape from
// internal/system/weapon_skill.go and internal/system/skill_summon.go, and
// its own EntityID pool per manager (spec.md §3's "each manager owns its
// own pool").
package magic

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

// Phase is a magic sprite's lifecycle stage (spec §3/§4.5).
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseFlying
	PhaseVanish
	PhaseDone
)

// waitUntilCastDone is the SuperMode (moveKind=15) sentinel: a target
// sprite in PhaseWaiting with DelayMs == waitUntilCastDone does not arm on
// a plain elapsed-time check — it arms only when its parent cast sprite
// reaches PhaseDone (spec §4.5/§8 scenario S6).
const waitUntilCastDone = -1

// Sprite is one runtime magic sprite. Position is float pixel space so
// slow/diagonal velocities accumulate sub-pixel motion instead of snapping
// every tick.
type Sprite struct {
	ID      ecs.EntityID
	OwnerID ecs.EntityID
	Align   assets.Relation // copied from the owner's relation at cast time

	Def   *assets.MagicDef
	Level int

	Pos  geom.PixelF
	VelX, VelY float64 // pixels per millisecond

	Dir32 geom.Direction32
	Phase Phase

	Frame      int
	VanishFrame int

	DelayMs    int // PhaseWaiting: ms remaining, or waitUntilCastDone sentinel
	ElapsedMs  int
	LifeFrame  int // ticks remaining once Flying

	Bounces int

	TraceTarget ecs.EntityID // weak ref; Alive()==false means "target lost"

	// Static marks a sprite that blocks pathing per MagicManager.IsObstacle
	// (FixedPosition, the center sprite of a FixedWall row, and the
	// SuperMode cast sprite itself are static; everything else, including
	// NoMove and zero-velocity waiting sprites that will later fly, is not).
	Static bool

	// castGroup ties a SuperMode cast sprite to its waitUntilCastDone
	// targets: all of them carry the same non-zero value, so the manager
	// can tell which targets to arm when that cast sprite finishes
	// (§4.5/§8 S6). Zero for every other sprite.
	castGroup int
}

// Manager owns every live magic sprite and the formation-spawning/
// collision logic. Each manager draws entity IDs from its own pool, per
// spec.md §3.
type Manager struct {
	pool     *ecs.EntityPool
	sprites  map[ecs.EntityID]*Sprite
	nextCastGroup int
}

// NewManager constructs an empty magic engine.
func NewManager() *Manager {
	return &Manager{
		pool:    ecs.NewEntityPool(),
		sprites: make(map[ecs.EntityID]*Sprite),
	}
}

// Count reports the number of live sprites, for metrics.
func (m *Manager) Count() int { return len(m.sprites) }

// Sprite looks up a live sprite by id.
func (m *Manager) Sprite(id ecs.EntityID) (*Sprite, bool) {
	s, ok := m.sprites[id]
	return s, ok
}

// Each iterates every live sprite. fn must not mutate m.sprites directly;
// use the CommandBuffer-style remove-after-iteration list Update already
// applies internally.
func (m *Manager) Each(fn func(ecs.EntityID, *Sprite)) {
	for id, s := range m.sprites {
		fn(id, s)
	}
}

// IsObstacle reports whether a static sprite occupies tile — spec §4.5:
// "MagicManager.isObstacle returns true iff there exists a static magic
// sprite on that tile; moving sprites do not block pathing."
func (m *Manager) IsObstacle(t geom.Tile) bool {
	for _, s := range m.sprites {
		if s.Static && s.Phase != PhaseDone && geom.PixelToTile(s.Pos.ToPixel()) == t {
			return true
		}
	}
	return false
}

func (m *Manager) spawn(s *Sprite) ecs.EntityID {
	id := m.pool.Create()
	s.ID = id
	m.sprites[id] = s
	return id
}

func (m *Manager) remove(id ecs.EntityID) {
	delete(m.sprites, id)
	m.pool.Destroy(id)
}
