package worldtick

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/config"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/magic"
	"github.com/ninesuns/jianghu/internal/scripting"
	"github.com/ninesuns/jianghu/internal/snapshot"
	"github.com/ninesuns/jianghu/internal/snapshot/memrepo"
)

type fakeRegistry struct {
	chars  map[string]*assets.CharacterDef
	magics map[string]*assets.MagicDef
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{chars: make(map[string]*assets.CharacterDef), magics: make(map[string]*assets.MagicDef)}
}
func (r *fakeRegistry) putChar(d *assets.CharacterDef) { r.chars[d.Key] = d }

func (r *fakeRegistry) CharacterDef(key string) (*assets.CharacterDef, bool) {
	d, ok := r.chars[key]
	return d, ok
}
func (r *fakeRegistry) NpcResource(string) (*assets.NpcResource, bool)       { return nil, false }
func (r *fakeRegistry) ObjectDef(string) (*assets.ObjectDef, bool)           { return nil, false }
func (r *fakeRegistry) ObjectResource(string) (*assets.ObjectResource, bool) { return nil, false }
func (r *fakeRegistry) MagicDef(key string, level int) (*assets.MagicDef, bool) {
	d, ok := r.magics[key]
	return d, ok
}
func (r *fakeRegistry) SpriteSheet(string) (*assets.SpriteSheet, bool) { return nil, false }
func (r *fakeRegistry) DropTable(string) ([]assets.DropEntry, bool)    { return nil, false }

var _ assets.Registry = (*fakeRegistry)(nil)

// fakeScript stands in for *scripting.LuaRunner so these tests never spin
// up a gopher-lua VM; Context depends on the worldtick.ScriptEngine
// interface for exactly this reason.
type fakeScript struct{ queued []string }

func (f *fakeScript) RunScript(string, any)   {}
func (f *fakeScript) QueueScript(path string) { f.queued = append(f.queued, path) }
func (f *fakeScript) ScriptBasePath() string  { return "." }
func (f *fakeScript) CalcMeleeDamage(ctx scripting.MeleeContext) scripting.MeleeResult {
	dmg := ctx.AttackerAttack - ctx.TargetDefend
	if dmg < 1 {
		dmg = 1
	}
	return scripting.MeleeResult{IsHit: true, Damage: dmg}
}
func (f *fakeScript) RunNpcAI(scripting.AIContext) []scripting.AICommand { return nil }

var _ ScriptEngine = (*fakeScript)(nil)

func wolfDef() *assets.CharacterDef {
	return &assets.CharacterDef{
		Key: "wolf", Kind: assets.KindFighter, Relation: assets.RelationEnemy,
		HP: 30, Attack1: 10, VisionRadius: 10, AttackRadius: 1, DeleteTicks: 2,
	}
}

func playerStats() character.Stats {
	return character.Stats{Life: 100, LifeMax: 100, Defend1: 2, Attack1: 5}
}

func buildContext(reg *fakeRegistry, repo snapshot.Repository) *Context {
	cfg := &config.Config{Sim: config.SimConfig{RNGSeed: 42}}
	return New(cfg, zap.NewNop(), reg, &fakeScript{}, repo, nil)
}

func TestContextApplyHitKillsAndCascadesDeath(t *testing.T) {
	repo := memrepo.New()
	reg := newFakeRegistry()
	reg.putChar(wolfDef())
	c := buildContext(reg, repo)

	wolf := c.Npcs.Spawn(wolfDef(), geom.Tile{X: 5, Y: 5})
	wolf.Stats.Life = 1
	wolf.Stats.LifeMax = 30

	def := &assets.MagicDef{Key: "fireball", MoveKind: 1, Damage: 50, LifeFrame: 10}
	sprite := &magic.Sprite{OwnerID: 0, Align: assets.RelationFriend, Def: def, Level: 1}

	result := c.ApplyHit(0, wolf, sprite)
	if !result.Applied || !result.KilledNow {
		t.Fatalf("expected a lethal hit, got %+v", result)
	}
	if !wolf.Npc.IsDeathInvoked {
		t.Error("expected the death cascade to have run exactly once")
	}

	// Calling ApplyHit again must be a no-op (combat.TakeDamage's
	// isDeath guard), and must not panic trying to cascade death twice.
	result2 := c.ApplyHit(0, wolf, sprite)
	if result2.Applied {
		t.Error("a second hit against an already-dead target should not apply")
	}
}

func TestContextTickAdvancesAllPhasesWithoutPanic(t *testing.T) {
	repo := memrepo.New()
	reg := newFakeRegistry()
	reg.putChar(wolfDef())
	c := buildContext(reg, repo)

	c.Npcs.SpawnPlayer(geom.Tile{X: 0, Y: 0}, playerStats())
	c.Npcs.Spawn(wolfDef(), geom.Tile{X: 2, Y: 2})

	for i := 0; i < 5; i++ {
		c.Tick(50 * time.Millisecond)
	}

	if c.NpcRows == nil {
		t.Error("expected the view cache to be populated once a player exists")
	}
}

func TestContextMagicCastCollidesDuringTick(t *testing.T) {
	repo := memrepo.New()
	reg := newFakeRegistry()
	reg.putChar(wolfDef())
	c := buildContext(reg, repo)

	c.Npcs.SpawnPlayer(geom.Tile{X: 0, Y: 0}, playerStats())
	wolf := c.Npcs.Spawn(wolfDef(), geom.Tile{X: 3, Y: 0})
	lifeBefore := wolf.Stats.Life

	def := &assets.MagicDef{Key: "snowball", MoveKind: 1, Damage: 20, LifeFrame: 5}
	c.Magic.Cast(ecs.EntityID(0), assets.RelationFriend, def, 1, geom.Pixel{}, geom.TileToPixel(wolf.Tile), geom.DirS, c.RNG)

	c.Tick(50 * time.Millisecond)

	if wolf.Stats.Life >= lifeBefore {
		t.Errorf("expected the fixed-position cast to damage the wolf standing on its destination tile, life stayed at %d", wolf.Stats.Life)
	}
}

func TestContextSaveZoneLoadZoneRoundTrip(t *testing.T) {
	repo := memrepo.New()
	reg := newFakeRegistry()
	reg.putChar(wolfDef())

	ctxA := buildContext(reg, repo)
	if err := ctxA.LoadZone(context.Background(), "a.npc", nil); err != nil {
		t.Fatalf("LoadZone: %v", err)
	}
	ctxA.Npcs.Spawn(wolfDef(), geom.Tile{X: 1, Y: 1})
	ctxA.Npcs.Spawn(wolfDef(), geom.Tile{X: 2, Y: 3})
	if err := ctxA.SaveZone(context.Background()); err != nil {
		t.Fatalf("SaveZone: %v", err)
	}

	ctxB := buildContext(reg, repo)
	if err := ctxB.LoadZone(context.Background(), "a.npc", nil); err != nil {
		t.Fatalf("LoadZone on fresh context: %v", err)
	}
	if ctxB.Npcs.Count() != 2 {
		t.Fatalf("expected 2 restored NPCs, got %d", ctxB.Npcs.Count())
	}
}
