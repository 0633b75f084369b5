// Package worldtick assembles the explicit, non-singleton WorldContext
// called for in spec.md §9's redesign notes and realized per SPEC_FULL.md
// §4.10/§4.11: it owns NpcManager, ObjManager, the magic engine, the event
// bus, the seeded PRNG and the scripting/metrics handles, and drives the
// four-step tick order (NPC → Obj → Magic → view cache) through
// internal/core/system's Phase/Runner. Grounded on cmd/l1jgo/main.go's
// run() wiring order (config → logger → persistence → engine → systems →
// runner), adapted from a network-accepting game server boot sequence to a
// single-process, no-network simulation loop.
package worldtick

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/combat"
	"github.com/ninesuns/jianghu/internal/config"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/core/event"
	coresys "github.com/ninesuns/jianghu/internal/core/system"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/magic"
	"github.com/ninesuns/jianghu/internal/metrics"
	"github.com/ninesuns/jianghu/internal/npcai"
	"github.com/ninesuns/jianghu/internal/npcmgr"
	"github.com/ninesuns/jianghu/internal/objmgr"
	"github.com/ninesuns/jianghu/internal/scripting"
	"github.com/ninesuns/jianghu/internal/snapshot"
	"github.com/ninesuns/jianghu/internal/terrain"
)

// defaultViewRadius bounds the view-cache pass (spec §4.7's
// updateNpcsInView/§4.10's view precomputation) when no camera/viewport
// value is supplied by the external rendering collaborator.
const defaultViewRadius = 24

// ScriptEngine is the full script-collaborator surface worldtick needs:
// npcmgr's Runner+CalcMeleeDamage combination plus the AI command callout.
// *scripting.LuaRunner satisfies it, but Context depends on the interface
// rather than that concrete type so tests can drive the tick loop with a
// lightweight fake instead of spinning up a gopher-lua VM.
type ScriptEngine interface {
	scripting.Runner
	scripting.AIRunner
	CalcMeleeDamage(scripting.MeleeContext) scripting.MeleeResult
}

// Context is the process-wide handle every system receives by pointer;
// tests construct their own instead of reaching for a package-level
// singleton (spec.md §9's "Global mutable singletons" redesign item).
type Context struct {
	Config   *config.Config
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Registry  assets.Registry
	Scripting ScriptEngine
	Repo      snapshot.Repository

	Bus *event.Bus
	RNG *rand.Rand

	Npcs  *npcmgr.Manager
	Objs  *objmgr.Manager
	Magic *magic.Manager

	runner  *coresys.Runner
	mapBase *terrain.MapBase

	ZoneFile   string
	ViewRadius int

	NpcRows map[int][]*character.Character
	ObjRows map[int][]*objmgr.Obj
}

// New wires every manager together: npcmgr's magic/body-emitter cycle,
// objmgr's fighter-damager back-reference, and the tick Runner's four
// phases (PhaseNpc, PhaseObj — PhaseMagic/PhaseView run explicitly in Tick
// since the magic engine takes a *Context, not a time.Duration, as its
// World collaborator).
func New(cfg *config.Config, log *zap.Logger, registry assets.Registry, scr ScriptEngine, repo snapshot.Repository, met *metrics.Metrics) *Context {
	seed := cfg.Sim.RNGSeed
	if seed == 0 {
		seed = cfg.Sim.StartTime
	}

	bus := event.NewBus()
	rng := rand.New(rand.NewSource(seed))

	npcs := npcmgr.New(registry, scr, scr, bus, rng, log)
	objs := objmgr.New(registry, scr, bus, rng, log)
	magicMgr := magic.NewManager()

	npcs.SetMagicManager(magicMgr)
	npcs.SetBodyEmitter(objs)
	objs.SetFighterDamager(npcs)

	runner := coresys.NewRunner()
	runner.Register(npcs)
	runner.Register(objs)

	return &Context{
		Config:     cfg,
		Log:        log,
		Metrics:    met,
		Registry:   registry,
		Scripting:  scr,
		Repo:       repo,
		Bus:        bus,
		RNG:        rng,
		Npcs:       npcs,
		Objs:       objs,
		Magic:      magicMgr,
		runner:     runner,
		ViewRadius: defaultViewRadius,
	}
}

// LoadZone points every manager at a newly loaded map's terrain and zone
// file name, then restores any previously saved NPC/object snapshots for
// that zone (spec.md §4.9's "LoadZone restores a zone" half of the
// SaveZone/LoadZone pair). A zone with no prior snapshot falls through to
// whatever static roster the caller (a script, or the asset-backed zone
// loader this core treats as an external collaborator) spawns manually.
func (c *Context) LoadZone(ctx context.Context, zoneFile string, mb *terrain.MapBase) error {
	c.ZoneFile = zoneFile
	c.mapBase = mb

	c.Npcs.SetMapBase(mb)
	c.Npcs.SetZoneFile(zoneFile)
	c.Objs.SetMapBase(mb)
	c.Objs.SetZoneFile(zoneFile)

	if c.Repo == nil {
		return nil
	}
	if err := c.Npcs.LoadZone(ctx, c.Repo); err != nil {
		return err
	}
	return c.Objs.LoadZone(ctx, c.Repo)
}

// SaveZone persists the current NPC and object rosters under ZoneFile
// (spec.md §4.9/§6.3's `SaveZone("x.npc")` script entry point). A nil Repo
// is a deliberate no-op: the core may run with persistence disabled (e.g.
// a headless test harness) without every SaveZone call site needing to
// guard against it.
func (c *Context) SaveZone(ctx context.Context) error {
	if c.Repo == nil {
		return nil
	}
	if err := c.Npcs.SaveZone(ctx, c.Repo); err != nil {
		return err
	}
	return c.Objs.SaveZone(ctx, c.Repo)
}

// SavePartner persists the player's partner NPCs under the fixed
// partner key, independent of which zone they're currently standing in
// (spec.md §4.9/§6.3's `savePartner(name)` script entry point).
func (c *Context) SavePartner(ctx context.Context) error {
	if c.Repo == nil {
		return nil
	}
	return c.Npcs.SavePartner(ctx, c.Repo)
}

// LoadPartner restores the player's partner NPCs into the current zone
// (spec.md §4.9/§6.3's `loadPartner(name)` script entry point) — called
// after LoadZone so a partner rejoins the player in the new zone rather
// than the one it was saved from.
func (c *Context) LoadPartner(ctx context.Context) error {
	if c.Repo == nil {
		return nil
	}
	return c.Npcs.LoadPartner(ctx, c.Repo)
}

// Tick runs one full world-tick pass in spec.md §4.10's order: NpcManager,
// then ObjManager (via Runner, phase-sorted), then the magic engine (which
// needs Context itself as its World collaborator, so it runs outside
// Runner), then the view-cache precomputation, then a drain of the
// scripting engine's queued scripts (when it offers DrainQueue), then
// event dispatch and metrics. dt is expected to already be frame-scaled
// by the caller (nominal 20Hz, per internal/magic's tickMs constant).
func (c *Context) Tick(dt time.Duration) {
	start := time.Now()

	c.Bus.SwapBuffers()
	c.runner.Tick(dt)
	c.Magic.Update(c)
	c.rebuildView()
	if d, ok := c.Scripting.(interface{ DrainQueue(context.Context) }); ok {
		d.DrainQueue(context.Background())
	}
	c.Bus.DispatchAll()

	if c.Metrics != nil {
		c.Metrics.RecordTick(time.Since(start))
		scriptQueueDepth := 0
		c.Metrics.SetEntityCounts(c.Npcs.Count(), c.Objs.Count(), c.Magic.Count(), scriptQueueDepth)
	}
}

// rebuildView recomputes the per-row NPC/object visibility cache around
// the player, spec.md §4.10's "view precomputation... grouped by tile row
// for the renderer" step. A world with no spawned player (tests exercising
// managers directly) simply leaves the cache empty.
func (c *Context) rebuildView() {
	player, ok := c.Npcs.Player()
	if !ok {
		c.NpcRows, c.ObjRows = nil, nil
		return
	}
	c.NpcRows = c.Npcs.NpcsInView(player.Tile, c.ViewRadius)
	c.ObjRows = c.Objs.ObjsInView(player.Tile, c.ViewRadius)
}

// ── magic.World implementation ──────────────────────────────────────────
//
// The magic engine's collision step (spec §4.5 step 3) needs terrain,
// static-sprite, and live-character obstruction together with damage
// application and retargeting lookups — exactly the cross-manager access
// spec.md §3 says must go "through the context." Context is the only type
// that holds Npcs, Objs, mapBase and Magic all at once, so it is the
// natural (and only) implementer of magic.World.

// IsObstacle reports whether tile blocks a non-passthrough sprite: the
// terrain's magic-obstacle bit (spec §4.2) unless the sprite passes
// through walls, or a static magic sprite already parked there (spec
// §4.5's MagicManager.isObstacle).
func (c *Context) IsObstacle(t geom.Tile, passThroughWall bool) bool {
	if !passThroughWall && c.mapBase != nil && c.mapBase.IsMagicObstacle(t.X, t.Y) {
		return true
	}
	return c.Magic.IsObstacle(t)
}

// HitCandidateAt resolves which live character a sprite at tile should
// damage, delegating the relation/AttackAll test to npcmgr since only it
// can resolve a Character's CharacterDef.
func (c *Context) HitCandidateAt(t geom.Tile, s *magic.Sprite) (*character.Character, bool) {
	return c.Npcs.HitTargetAt(t, s.OwnerID, s.Align, s.Def.AttackAll)
}

// ApplyHit runs the full damage pipeline (spec §4.6) for a magic sprite's
// collision against target, folds the hit into the target's aggro table,
// dispatches any be-attacked retaliation cast, and — since a magic kill
// never passes through npcmgr's own meleeAttack path — invokes the death
// cascade itself when the hit was lethal.
func (c *Context) ApplyHit(ownerID ecs.EntityID, target *character.Character, s *magic.Sprite) combat.Result {
	attacker, _ := c.Npcs.Character(ownerID)

	damage := s.Def.Damage - s.Bounces*s.Def.BounceHurt
	if damage < 0 {
		damage = 0
	}

	hit := combat.Hit{
		Attacker:   attacker,
		BaseDamage: damage,
		Status: combat.StatusPayload{
			PoisonSeconds:    s.Def.PoisonSeconds,
			PetrifiedSeconds: s.Def.PetrifiedSeconds,
			FrozenSeconds:    s.Def.FrozenSeconds,
			PoisonedBy:       nameOf(attacker),
		},
	}

	var retal combat.RetaliationDef
	if tdef, ok := c.Npcs.DefOf(target); ok {
		retal = combat.RetaliationDef{
			MagicKey: tdef.MagicToUseWhenBeAttacked,
			HasMagic: tdef.MagicToUseWhenBeAttacked != "",
		}
		hit.RetaliationDirection = npcai.MagicDirection(tdef.MagicDirectionWhenBeAttacked)
	}

	result := combat.TakeDamage(target, hit, retal, c.Scripting, c.Npcs.RegisterHit)
	if !result.Applied {
		return result
	}

	if result.Retaliation != nil {
		c.Npcs.Cast(target.ID, result.Retaliation.MagicKey, result.Retaliation.Dir, result.Retaliation.Origin, result.Retaliation.Dest)
	}
	if result.KilledNow {
		c.Npcs.HandleDeath(target, attacker)
		if c.Metrics != nil {
			c.Metrics.IncDeaths()
		}
	}
	return result
}

// NearestEnemyTile satisfies magic.World for TraceEnemy sprites, delegated
// straight to npcmgr's spatial index.
func (c *Context) NearestEnemyTile(origin geom.Tile, align assets.Relation) (geom.Tile, bool) {
	return c.Npcs.NearestEnemyTile(origin, align)
}

// CharacterTile satisfies magic.World for owner-following sprites.
func (c *Context) CharacterTile(id ecs.EntityID) (geom.Tile, bool) {
	return c.Npcs.CharacterTile(id)
}

func nameOf(c *character.Character) string {
	if c == nil || c.Npc == nil {
		return ""
	}
	return c.Npc.DefKey
}
