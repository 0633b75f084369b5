// Package character implements the flattened Character struct called for
// in spec.md §9's re-architecture notes: a single struct tagged with a
// CharKind enum instead of a Sprite -> Character -> {Npc, Player} class
// hierarchy. Per-kind behavior (movement style, AI, death handling) is
// decided by internal/npcai, internal/npcmgr and internal/combat from Kind
// and the NPC's CharacterDef, not through virtual methods here.
//
// Grounded on merging the teacher's internal/world/state.go PlayerInfo and
// internal/world/npc.go NpcInfo into one runtime shape — the teacher kept
// them separate because Lineage players and NPCs are never the same
// runtime object on the wire; this engine has no such constraint.
package character

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

// Kind distinguishes a player character from an NPC. Re-exported from
// assets so CharacterDef.Kind and Character.Kind share one enum.
type Kind = assets.CharKind

const (
	KindNormal       = assets.KindNormal
	KindFighter      = assets.KindFighter
	KindFollower     = assets.KindFollower
	KindGroundAnimal = assets.KindGroundAnimal
	KindEventer      = assets.KindEventer
	KindAfraidPlayer = assets.KindAfraidPlayer
	KindFlyer        = assets.KindFlyer
	KindPlayer       = assets.KindPlayer
)

// PathStyle selects which of the four §4.3 movement strategies an NPC's
// per-tick stepToward uses. Chosen once per decision by npcai.SelectPathStyle
// from the NPC's CharacterDef, not hardcoded per Kind, since Kind alone
// under-determines it (partners and pathFinder=1 NPCs override Kind).
type PathStyle int

const (
	// PathStraightLine ignores terrain/entity obstacles entirely — Flyers only.
	PathStraightLine PathStyle = iota
	// PerfectMaxNpcTry runs a bounded breadth-first search toward the target.
	PerfectMaxNpcTry
	// PerfectMaxPlayerTry is the same bounded search, used by Normal/Eventer kinds.
	PerfectMaxPlayerTry
	// PathOneStep takes the direct neighbor toward the target, sidestepping
	// once around an obstacle before giving up for the tick.
	PathOneStep
)

// State is a character animation/behavior state.
type State int

const (
	StateStand State = iota
	StateWalk
	StateRun
	StateJump
	StateFightStand
	StateHurt
	StateDeath
	StateAttack
	StateAttack1
	StateAttack2
	StateMagic
)

// transitions is the sparse permitted-transition table from §4.3. Hurt and
// Death are reachable from any state (handled specially in CanTransition),
// so they are not listed as destinations here.
var transitions = map[State][]State{
	StateStand:      {StateWalk, StateRun},
	StateWalk:       {StateStand, StateRun, StateFightStand},
	StateRun:        {StateStand, StateWalk, StateFightStand},
	StateFightStand: {StateAttack, StateAttack1, StateAttack2, StateMagic, StateWalk, StateRun, StateStand},
	StateAttack:     {StateFightStand, StateStand},
	StateAttack1:    {StateFightStand, StateStand},
	StateAttack2:    {StateFightStand, StateStand},
	StateMagic:      {StateFightStand, StateStand},
	StateHurt:       {StateStand, StateFightStand, StateWalk},
	StateJump:       {StateStand, StateWalk, StateRun},
}

// CanTransition reports whether from->to is permitted. Death is reachable
// from any non-Death state; Hurt is reachable from anywhere except Death.
func CanTransition(from, to State) bool {
	if to == StateDeath {
		return from != StateDeath
	}
	if to == StateHurt {
		return from != StateDeath
	}
	if from == StateDeath {
		return false
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StatusEffects tracks latched, max()-combining hit effects (§4.6 step 5).
type StatusEffects struct {
	PoisonSeconds    int
	PetrifiedSeconds int
	FrozenSeconds    int
	PoisonedBy       string
}

// Apply latches incoming durations using max(existing, incoming), per the
// teacher's tickNpcDebuffs upkeep semantics.
func (s *StatusEffects) Apply(poison, petrified, frozen int, poisonedBy string) {
	if poison > s.PoisonSeconds {
		s.PoisonSeconds = poison
		if poisonedBy != "" {
			s.PoisonedBy = poisonedBy
		}
	}
	if petrified > s.PetrifiedSeconds {
		s.PetrifiedSeconds = petrified
	}
	if frozen > s.FrozenSeconds {
		s.FrozenSeconds = frozen
	}
}

// Any reports whether any status effect is currently active.
func (s *StatusEffects) Any() bool {
	return s.PoisonSeconds > 0 || s.PetrifiedSeconds > 0 || s.FrozenSeconds > 0
}

// Stats are the combat-relevant numeric attributes.
type Stats struct {
	Life, LifeMax int
	Mana, ManaMax int
	Thew          int
	Attack1, Attack2, Attack3 int
	Defend1, Defend2, Defend3 int
	Evade                     int
	WalkSpeed                 int
	Level                     int
	Exp                       int64
}

// SetLife clamps life into [0, LifeMax] — invariant 1 in spec.md §8.
func (s *Stats) SetLife(v int) {
	if v < 0 {
		v = 0
	}
	if v > s.LifeMax {
		v = s.LifeMax
	}
	s.Life = v
}

// NpcData holds fields only meaningful when Kind != KindPlayer: AI state,
// fixed patrol path, aggro target, wander state, and the one-shot death
// latch. Living only on the NPC variant is the concrete form of the
// "flatten the inheritance chain" redesign note.
type NpcData struct {
	DefKey string // CharacterDef key, for behavior-table + asset lookups

	SpawnTile geom.Tile
	FixedPath []geom.Tile
	PathIndex int
	IsLoopWalk bool

	FollowTarget  ecs.EntityID // weak ref; Alive() false == target lost
	AggroTable    map[ecs.EntityID]int32
	WanderDir     geom.Direction8
	WanderCooldown int

	// MagicCache is the resolved copy of CharacterDef.Magics this NPC can
	// cast during a chase-and-act "cast" AICommand, indexed by SkillID.
	MagicCache []string

	DestinationAttackTile *geom.Tile

	IsDeathInvoked bool
	DeleteTimer    int // ticks remaining showing the death animation
	RespawnTimer   int // ticks remaining before respawn, armed once DeleteTimer hits 0
	ReviveTimer    int // ms remaining until respawn (partner/summon only)

	AttackCooldown int
	AIDisabled     bool // per-NPC override; NpcManager also has a global flag

	LoadingSprites bool // two-phase async construction: true until sprite/magic assets resolve
}

// Character is the single runtime struct for both the player and every
// NPC. Kind and the NPC's CharacterDef decide how internal/npcai and
// internal/combat treat it; NPC-only data lives in Npc, populated only
// when Kind != KindPlayer.
type Character struct {
	ID   ecs.EntityID
	Kind Kind

	Tile  geom.Tile
	Pixel geom.Pixel
	Dir8  geom.Direction8

	State      State
	FrameIndex int
	FrameTimer int // ms accumulated toward next frame

	Stats  Stats
	Status StatusEffects

	Path      []geom.Tile
	PathStyle PathStyle

	Invincible int // ticks remaining of damage immunity

	Npc *NpcData // nil when Kind == KindPlayer

	Visible bool
}

// IsDead reports whether the character has died: it is in StateDeath, or
// (for an NPC) its death cascade has been invoked. Life alone reaching 0
// does not make IsDead true.
func (c *Character) IsDead() bool {
	return c.State == StateDeath || (c.Npc != nil && c.Npc.IsDeathInvoked)
}

// NewPlayer constructs a player character at a starting tile.
func NewPlayer(id ecs.EntityID, tile geom.Tile, stats Stats) *Character {
	return &Character{
		ID:      id,
		Kind:    KindPlayer,
		Tile:    tile,
		Pixel:   geom.TileToPixel(tile),
		State:   StateStand,
		Stats:   stats,
		Visible: true,
	}
}

// NewNpc constructs an NPC character from a CharacterDef. It starts in the
// LoadingSprites state per §9's two-phase async constructor: synchronous
// construction, asynchronous asset resolution.
func NewNpc(id ecs.EntityID, def *assets.CharacterDef, tile geom.Tile) *Character {
	c := &Character{
		ID:    id,
		Kind:  def.Kind,
		Tile:  tile,
		Pixel: geom.TileToPixel(tile),
		State: StateStand,
		Stats: Stats{
			Life: def.HP, LifeMax: def.HP,
			Mana: def.MP, ManaMax: def.MP,
			Attack1: def.Attack1, Attack2: def.Attack2, Attack3: def.Attack3,
			Defend1: def.Defend1, Defend2: def.Defend2, Defend3: def.Defend3,
			Evade: def.Evade, WalkSpeed: def.WalkSpeed, Level: def.Level,
		},
		Npc: &NpcData{
			DefKey:     def.Key,
			SpawnTile:  tile,
			AggroTable: make(map[ecs.EntityID]int32),
			MagicCache: def.Magics,
			LoadingSprites: true,
		},
		Visible: false,
	}
	return c
}

// ResolveAssets transitions an NPC out of LoadingSprites once its sprite
// and magic assets have resolved, making it visible and AI-active.
func (c *Character) ResolveAssets() {
	if c.Npc == nil {
		return
	}
	c.Npc.LoadingSprites = false
	c.Visible = true
}
