package magic

import (
	"testing"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/combat"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

type fakeWorld struct {
	obstacles map[geom.Tile]bool
	hitTarget *character.Character
}

func (w *fakeWorld) IsObstacle(t geom.Tile, passThroughWall bool) bool {
	if passThroughWall {
		return false
	}
	return w.obstacles[t]
}

func (w *fakeWorld) HitCandidateAt(t geom.Tile, s *Sprite) (*character.Character, bool) {
	if w.hitTarget == nil {
		return nil, false
	}
	if w.hitTarget.Tile == t {
		return w.hitTarget, true
	}
	return nil, false
}

func (w *fakeWorld) ApplyHit(owner ecs.EntityID, target *character.Character, s *Sprite) combat.Result {
	return combat.Result{Applied: true, Damage: 1}
}

func (w *fakeWorld) NearestEnemyTile(origin geom.Tile, align assets.Relation) (geom.Tile, bool) {
	return geom.Tile{}, false
}

func (w *fakeWorld) CharacterTile(id ecs.EntityID) (geom.Tile, bool) {
	return geom.Tile{}, false
}

func fireballDef() *assets.MagicDef {
	return &assets.MagicDef{Key: "fireball", MoveKind: 4, Speed: 1, LifeFrame: 100}
}

func TestCastCircleMoveSpawnsAllThirtyTwoDirections(t *testing.T) {
	m := NewManager()
	def := fireballDef()
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 1, geom.Pixel{}, geom.Pixel{}, geom.DirS, nil)

	if len(ids) != 32 {
		t.Fatalf("expected 32 sprites, got %d", len(ids))
	}
	seen := make(map[geom.Direction32]bool)
	for _, id := range ids {
		s, ok := m.Sprite(id)
		if !ok {
			t.Fatalf("sprite %v missing after spawn", id)
		}
		seen[s.Dir32] = true
	}
	if len(seen) != 32 {
		t.Errorf("expected 32 distinct directions, got %d", len(seen))
	}
}

func TestCastLineMoveStaggersDelay(t *testing.T) {
	m := NewManager()
	def := &assets.MagicDef{Key: "arrow_line", MoveKind: 3, Speed: 1, LifeFrame: 50}
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 4, geom.Pixel{}, geom.Pixel{X: 0, Y: -64}, geom.DirN, nil)

	if len(ids) != 4 {
		t.Fatalf("expected 4 sprites for level 4, got %d", len(ids))
	}
	for i, id := range ids {
		s, _ := m.Sprite(id)
		if s.DelayMs != i*magicDelayMs {
			t.Errorf("sprite %d: expected delay %d, got %d", i, i*magicDelayMs, s.DelayMs)
		}
		if s.Phase != PhaseWaiting {
			t.Errorf("sprite %d: expected PhaseWaiting before first Update, got %v", i, s.Phase)
		}
	}
}

func TestSuperModeTargetsArmWhenCastSpriteFinishes(t *testing.T) {
	m := NewManager()
	def := &assets.MagicDef{Key: "super", MoveKind: 15, Speed: 1, LifeFrame: 50}
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 1, geom.Pixel{}, geom.Pixel{}, geom.DirS, nil)

	if len(ids) != 3 {
		t.Fatalf("expected 1 cast sprite + 2 targets for level 1, got %d", len(ids))
	}
	castSprite, _ := m.Sprite(ids[0])
	if !castSprite.Static {
		t.Fatal("expected the first SuperMode sprite to be the static cast sprite")
	}
	for _, id := range ids[1:] {
		s, _ := m.Sprite(id)
		if s.DelayMs != waitUntilCastDone {
			t.Errorf("expected target sprite to carry the waitUntilCastDone sentinel, got %d", s.DelayMs)
		}
	}

	w := &fakeWorld{obstacles: map[geom.Tile]bool{}}

	// First tick: nothing has finished yet, targets stay Waiting.
	m.Update(w)
	for _, id := range ids[1:] {
		s, _ := m.Sprite(id)
		if s.Phase != PhaseWaiting {
			t.Errorf("target should still be waiting before cast sprite finishes, got %v", s.Phase)
		}
	}

	// Force the cast sprite to finish this tick.
	castSprite.Phase = PhaseDone

	m.Update(w)
	for _, id := range ids[1:] {
		s, ok := m.Sprite(id)
		if !ok {
			t.Fatalf("target sprite %v removed unexpectedly", id)
		}
		if s.Phase != PhaseFlying {
			t.Errorf("expected target to arm to PhaseFlying once cast sprite is done, got %v", s.Phase)
		}
	}
}

func TestIsObstacleOnlyStaticLiveSprites(t *testing.T) {
	m := NewManager()
	def := &assets.MagicDef{Key: "wall", MoveKind: 1, LifeFrame: 100}
	tile := geom.Tile{X: 3, Y: 3}
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 1, geom.Pixel{}, geom.TileToPixel(tile), geom.DirS, nil)

	if !m.IsObstacle(tile) {
		t.Fatal("expected a static FixedPosition sprite to block its tile")
	}

	s, _ := m.Sprite(ids[0])
	s.Phase = PhaseDone
	if m.IsObstacle(tile) {
		t.Fatal("a Done sprite should no longer block its tile")
	}
}

func TestFlyingSpriteMovesWithoutBlockingPathing(t *testing.T) {
	m := NewManager()
	def := &assets.MagicDef{Key: "bolt", MoveKind: 2, Speed: 1, LifeFrame: 50}
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 1, geom.Pixel{}, geom.Pixel{X: 0, Y: 16}, geom.DirS, nil)
	s, _ := m.Sprite(ids[0])
	s.Phase = PhaseFlying

	tile := geom.PixelToTile(s.Pos.ToPixel())
	if m.IsObstacle(tile) {
		t.Fatal("a moving sprite must not block pathing per spec")
	}
}

func TestBounceRotatesDirectionNinetyDegrees(t *testing.T) {
	m := NewManager()
	def := &assets.MagicDef{Key: "bouncer", MoveKind: 2, Speed: 1, LifeFrame: 50, Bounce: true}
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 1, geom.Pixel{}, geom.Pixel{X: 0, Y: 16}, geom.DirS, nil)
	s, _ := m.Sprite(ids[0])
	s.Phase = PhaseFlying
	originalDir := s.Dir32

	blockedTile := geom.PixelToTile(s.Pos.ToPixel())
	w := &fakeWorld{obstacles: map[geom.Tile]bool{blockedTile: true}}

	m.resolveCollision(ids[0], s, w)

	if s.Bounces != 1 {
		t.Fatalf("expected one bounce, got %d", s.Bounces)
	}
	want := originalDir + 8
	if s.Dir32 != want {
		t.Errorf("expected direction rotated +8 (90deg) to %v, got %v", want, s.Dir32)
	}
	if s.Phase != PhaseFlying {
		t.Errorf("bounced sprite should keep flying, got %v", s.Phase)
	}
}

func TestNonBouncingSpriteVanishesOnObstacle(t *testing.T) {
	m := NewManager()
	def := fireballDef()
	ids := m.Cast(ecs.NewEntityID(1, 0), assets.RelationEnemy, def, 1, geom.Pixel{}, geom.Pixel{X: 0, Y: 16}, geom.DirS, nil)
	s, _ := m.Sprite(ids[0])
	s.Phase = PhaseFlying

	blockedTile := geom.PixelToTile(s.Pos.ToPixel())
	w := &fakeWorld{obstacles: map[geom.Tile]bool{blockedTile: true}}

	m.resolveCollision(ids[0], s, w)

	if s.Phase != PhaseVanish {
		t.Errorf("expected sprite without Bounce to vanish on obstacle, got %v", s.Phase)
	}
}
