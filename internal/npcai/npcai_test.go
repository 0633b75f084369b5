package npcai

import (
	"testing"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

type fakeWorld struct {
	enemy     ecs.EntityID
	hasEnemy  bool
	chars     map[ecs.EntityID]*character.Character
	friendTile geom.Tile
	hasFriend bool
}

func (w *fakeWorld) FindEnemyInVision(npc *character.Character, visionRadius int) (ecs.EntityID, bool) {
	return w.enemy, w.hasEnemy
}

func (w *fakeWorld) Character(id ecs.EntityID) (*character.Character, bool) {
	c, ok := w.chars[id]
	return c, ok
}

func (w *fakeWorld) RecentFriendDeathTile(npc *character.Character, radius int) (geom.Tile, bool) {
	return w.friendTile, w.hasFriend
}

func newWolf(tile geom.Tile) (*character.Character, *assets.CharacterDef) {
	def := &assets.CharacterDef{
		Key: "wolf", Kind: assets.KindFighter,
		VisionRadius: 8, AttackRadius: 1,
	}
	c := character.NewNpc(ecs.NewEntityID(1, 0), def, tile)
	c.ResolveAssets()
	c.Stats.LifeMax = 100
	c.Stats.Life = 100
	return c, def
}

func TestDecideLifeLowCastsAndRetreats(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	def.LifeLowPercent = 30
	def.MagicToUseWhenLifeLow = "howl"
	def.KeepRadiusWhenLifeLow = 2
	npc.Stats.Life = 20
	npc.Npc.SpawnTile = geom.Tile{X: 0, Y: 0}

	d := Decide(npc, def, &fakeWorld{}, nil)
	if d.Action != ActionCastMagic || d.MagicKey != "howl" {
		t.Fatalf("expected life-low cast, got %+v", d)
	}
}

func TestDecideFriendDeathReposition(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	def.KeepRadiusWhenFriendDeath = 3

	d := Decide(npc, def, &fakeWorld{hasFriend: true, friendTile: geom.Tile{X: 5, Y: 7}}, nil)
	if d.Action != ActionReposition {
		t.Fatalf("expected reposition, got %+v", d)
	}
}

func TestDecideChasesVisibleEnemy(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	enemyID := ecs.NewEntityID(2, 0)
	enemy, _ := newWolf(geom.Tile{X: 5, Y: 15})
	enemy.ID = enemyID

	w := &fakeWorld{enemy: enemyID, hasEnemy: true, chars: map[ecs.EntityID]*character.Character{enemyID: enemy}}
	d := Decide(npc, def, w, nil)
	if d.Action != ActionChaseAndAct {
		t.Fatalf("expected chase, got %+v", d)
	}
	if len(d.Commands) != 1 || d.Commands[0].Type != "move_toward" {
		t.Errorf("expected fallback move_toward beyond attack radius, got %+v", d.Commands)
	}
}

func TestDecideStopFindingTargetSkipsVision(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	def.StopFindingTarget = true
	enemyID := ecs.NewEntityID(2, 0)

	w := &fakeWorld{enemy: enemyID, hasEnemy: true}
	d := Decide(npc, def, w, nil)
	if d.Action == ActionChaseAndAct {
		t.Error("stopFindingTarget should prevent vision-based chase")
	}
}

func TestDecideIdleWandersWhenRandAIType(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	def.AIType = 1

	d := Decide(npc, def, &fakeWorld{}, nil)
	if d.Action != ActionWander {
		t.Fatalf("expected wander for aiType=1, got %+v", d)
	}
}

func TestDecideStandsOnFixedPath(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	npc.Npc.IsLoopWalk = true
	npc.Npc.FixedPath = []geom.Tile{{X: 5, Y: 5}, {X: 6, Y: 5}}

	d := Decide(npc, def, &fakeWorld{}, nil)
	if d.Action != ActionStandFixedPath {
		t.Fatalf("expected fixed-path walk, got %+v", d)
	}
}

func TestParseFixedPath(t *testing.T) {
	tiles, err := ParseFixedPath("0a0b141e")
	if err != nil {
		t.Fatalf("ParseFixedPath: %v", err)
	}
	want := []geom.Tile{{X: 0x0a, Y: 0x0b}, {X: 0x14, Y: 0x1e}}
	if len(tiles) != len(want) || tiles[0] != want[0] || tiles[1] != want[1] {
		t.Errorf("got %+v, want %+v", tiles, want)
	}
}

func TestParseFixedPathRejectsBadHex(t *testing.T) {
	if _, err := ParseFixedPath("zzzz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

type fakeCaster struct {
	called  bool
	magicKey string
}

func (f *fakeCaster) Cast(owner ecs.EntityID, magicKey string, dir geom.Direction32, origin, dest geom.Pixel) {
	f.called = true
	f.magicKey = magicKey
}

func TestDeathCascadeCastsAndQueuesOnce(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	def.MagicToUseWhenDeath = "death_nova"
	def.MagicDirectionWhenDeath = int(MagicDirAtOtherTile)
	def.DeathScript = "scripts/ai/wolf_death.lua"

	killer, _ := newWolf(geom.Tile{X: 6, Y: 5})
	caster := &fakeCaster{}
	var addedDead *character.Character
	var queued []string

	DeathCascade(npc, def, killer, caster,
		func(c *character.Character) { addedDead = c },
		func(path string) { queued = append(queued, path) })

	if !caster.called || caster.magicKey != "death_nova" {
		t.Errorf("expected death magic cast, got %+v", caster)
	}
	if addedDead != npc {
		t.Error("expected addDead to be called with the dying npc")
	}
	if len(queued) != 1 || queued[0] != def.DeathScript {
		t.Errorf("expected death script queued once, got %+v", queued)
	}

	// Second call must be a no-op (isDeathInvoked latch).
	caster.called = false
	DeathCascade(npc, def, killer, caster, func(*character.Character) { t.Error("addDead should not fire twice") }, nil)
	if caster.called {
		t.Error("death cascade should not re-fire once invoked")
	}
}

func TestDeathCascadeSkipsPartnerSprites(t *testing.T) {
	npc, def := newWolf(geom.Tile{X: 5, Y: 5})
	def.IsPartner = true
	def.MagicToUseWhenDeath = "death_nova"
	caster := &fakeCaster{}

	DeathCascade(npc, def, nil, caster, func(*character.Character) { t.Error("addDead should not run for partner sprites") }, nil)
	if caster.called {
		t.Error("partner sprite death should not cast death magic")
	}
	if !npc.Npc.IsDeathInvoked {
		t.Error("latch should still be set")
	}
}
