package npcmgr

import (
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/event"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/scripting"
)

type fakeRegistry struct {
	defs map[string]*assets.CharacterDef
}

func newFakeRegistry() *fakeRegistry { return &fakeRegistry{defs: make(map[string]*assets.CharacterDef)} }

func (r *fakeRegistry) put(d *assets.CharacterDef) { r.defs[d.Key] = d }

func (r *fakeRegistry) CharacterDef(key string) (*assets.CharacterDef, bool) {
	d, ok := r.defs[key]
	return d, ok
}
func (r *fakeRegistry) NpcResource(string) (*assets.NpcResource, bool)       { return nil, false }
func (r *fakeRegistry) ObjectDef(string) (*assets.ObjectDef, bool)           { return nil, false }
func (r *fakeRegistry) ObjectResource(string) (*assets.ObjectResource, bool) { return nil, false }
func (r *fakeRegistry) MagicDef(string, int) (*assets.MagicDef, bool)        { return nil, false }
func (r *fakeRegistry) SpriteSheet(string) (*assets.SpriteSheet, bool)       { return nil, false }
func (r *fakeRegistry) DropTable(string) ([]assets.DropEntry, bool)         { return nil, false }

var _ assets.Registry = (*fakeRegistry)(nil)

type fakeScript struct{ queued []string }

func (f *fakeScript) RunScript(string, any)     {}
func (f *fakeScript) QueueScript(path string)   { f.queued = append(f.queued, path) }
func (f *fakeScript) ScriptBasePath() string     { return "." }
func (f *fakeScript) CalcMeleeDamage(ctx scripting.MeleeContext) scripting.MeleeResult {
	dmg := ctx.AttackerAttack - ctx.TargetDefend
	if dmg < 1 {
		dmg = 1
	}
	return scripting.MeleeResult{IsHit: true, Damage: dmg}
}

var _ ScriptEngine = (*fakeScript)(nil)

type nilAI struct{}

func (nilAI) RunNpcAI(scripting.AIContext) []scripting.AICommand { return nil }

func newTestManager() (*Manager, *fakeRegistry) {
	reg := newFakeRegistry()
	bus := event.NewBus()
	rng := rand.New(rand.NewSource(1))
	m := New(reg, &fakeScript{}, nilAI{}, bus, rng, zap.NewNop())
	return m, reg
}

func wolfDef() *assets.CharacterDef {
	return &assets.CharacterDef{
		Key: "wolf", Kind: assets.KindFighter, Relation: assets.RelationEnemy,
		HP: 30, Attack1: 10, VisionRadius: 10, AttackRadius: 1, DeleteTicks: 2,
		ReviveMilliseconds: 100,
	}
}

func guardDef() *assets.CharacterDef {
	return &assets.CharacterDef{
		Key: "guard", Kind: assets.KindFighter, Relation: assets.RelationFriend,
		HP: 50, Attack1: 15, Defend1: 2, VisionRadius: 10, AttackRadius: 1,
	}
}

func TestIsEnemyNonFightersNeverEnemies(t *testing.T) {
	a := &character.Character{Kind: character.KindNormal}
	b := &character.Character{Kind: character.KindFighter}
	if isEnemy(a, b, assets.RelationEnemy, assets.RelationFriend) {
		t.Error("a non-fighter should never be flagged as an enemy")
	}
}

func TestIsEnemyPlayerVsEnemyFighter(t *testing.T) {
	player := &character.Character{Kind: character.KindPlayer}
	enemy := &character.Character{Kind: character.KindFighter}
	if !isEnemy(player, enemy, assets.RelationFriend, assets.RelationEnemy) {
		t.Error("expected the player to be hostile to an enemy-relation fighter")
	}
	if isEnemy(player, enemy, assets.RelationFriend, assets.RelationNeutral) {
		t.Error("neutral relation should never be an enemy of anything")
	}
}

func TestIsEnemySameRelationFightersAreNotEnemies(t *testing.T) {
	a := &character.Character{Kind: character.KindFighter}
	b := &character.Character{Kind: character.KindFighter}
	if isEnemy(a, b, assets.RelationEnemy, assets.RelationEnemy) {
		t.Error("two enemy-relation fighters on the same side should not be hostile to each other")
	}
}

func TestSpawnPopulatesSpatialGridAndFindsClosestEnemy(t *testing.T) {
	m, reg := newTestManager()
	reg.put(wolfDef())
	reg.put(guardDef())

	wolf := m.Spawn(wolfDef(), geom.Tile{X: 5, Y: 5})
	wolf.ResolveAssets()
	guard := m.Spawn(guardDef(), geom.Tile{X: 6, Y: 5})
	guard.ResolveAssets()

	enemy, ok := m.getClosestEnemy(guard, guard.Tile, 10)
	if !ok || enemy.ID != wolf.ID {
		t.Fatalf("expected guard to find the wolf as closest enemy, got %+v ok=%v", enemy, ok)
	}

	id, ok := m.FindEnemyInVision(wolf, 10)
	if !ok || id != guard.ID {
		t.Fatalf("expected wolf to find guard in vision, got %v ok=%v", id, ok)
	}
}

func TestMeleeAttackAppliesDamageAndAggro(t *testing.T) {
	m, reg := newTestManager()
	wd := wolfDef()
	gd := guardDef()
	reg.put(wd)
	reg.put(gd)

	wolf := m.Spawn(wd, geom.Tile{X: 0, Y: 0})
	guard := m.Spawn(gd, geom.Tile{X: 1, Y: 0})

	m.meleeAttack(wolf, wd, guard)

	if guard.Stats.Life >= guard.Stats.LifeMax {
		t.Fatalf("expected guard to take damage, life=%d/%d", guard.Stats.Life, guard.Stats.LifeMax)
	}
	if guard.Npc.FollowTarget != wolf.ID {
		t.Error("expected the attacked guard to aggro onto the wolf")
	}
	if wolf.Npc.AttackCooldown <= 0 {
		t.Error("expected attack to arm a cooldown")
	}
}

func TestDeathCascadeTwoPhaseRespawn(t *testing.T) {
	m, reg := newTestManager()
	wd := wolfDef()
	reg.put(wd)

	wolf := m.Spawn(wd, geom.Tile{X: 3, Y: 3})
	wolf.Stats.Life = 1

	attacker := &character.Character{ID: 99, Kind: character.KindPlayer, Tile: geom.Tile{X: 3, Y: 1}}
	m.invokeDeath(wolf, attacker, wd)

	if !wolf.IsDead() {
		t.Fatal("expected wolf to be dead after invokeDeath")
	}
	if wolf.Npc.DeleteTimer != wd.DeleteTicks {
		t.Fatalf("expected DeleteTimer armed to %d, got %d", wd.DeleteTicks, wolf.Npc.DeleteTimer)
	}

	for i := 0; i < wd.DeleteTicks; i++ {
		m.updateDeadNpc(wolf)
	}
	if wolf.Npc.DeleteTimer > 0 {
		t.Fatal("expected DeleteTimer to reach zero")
	}
	if wolf.Npc.RespawnTimer <= 0 {
		t.Fatal("expected RespawnTimer armed once DeleteTimer elapsed")
	}

	for i := 0; i < wolf.Npc.RespawnTimer+1; i++ {
		m.updateDeadNpc(wolf)
	}
	if wolf.IsDead() {
		t.Fatal("expected wolf to have respawned")
	}
	if wolf.Stats.Life != wolf.Stats.LifeMax {
		t.Fatalf("expected full life after respawn, got %d/%d", wolf.Stats.Life, wolf.Stats.LifeMax)
	}
	if wolf.Tile != wolf.Npc.SpawnTile {
		t.Fatalf("expected respawn at spawn tile %+v, got %+v", wolf.Npc.SpawnTile, wolf.Tile)
	}
}

func TestRecentFriendDeathTileDecaysOverTicks(t *testing.T) {
	m, reg := newTestManager()
	wd := wolfDef()
	reg.put(wd)

	dead := m.Spawn(wd, geom.Tile{X: 10, Y: 10})
	friend := m.Spawn(wd, geom.Tile{X: 11, Y: 10})

	m.addDead(dead, wd)

	if _, ok := m.RecentFriendDeathTile(friend, 5); !ok {
		t.Fatal("expected a recent friend death to be visible immediately")
	}

	for i := 0; i < deathInfoFrames+1; i++ {
		m.decayDeathLog()
	}
	if _, ok := m.RecentFriendDeathTile(friend, 5); ok {
		t.Fatal("expected the death log entry to have decayed")
	}
}

func TestUpdateSkipsAIWhenDisabled(t *testing.T) {
	m, reg := newTestManager()
	wd := wolfDef()
	reg.put(wd)
	wolf := m.Spawn(wd, geom.Tile{X: 0, Y: 0})
	wolf.ResolveAssets()

	m.DisableAI()
	before := wolf.Tile
	m.Update(50 * time.Millisecond)
	if wolf.Tile != before {
		t.Fatal("expected no movement while AI is globally disabled")
	}
}
