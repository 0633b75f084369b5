package character

import (
	"testing"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

func TestSetLifeClampsToBounds(t *testing.T) {
	s := &Stats{LifeMax: 100}
	s.SetLife(150)
	if s.Life != 100 {
		t.Errorf("expected clamp to 100, got %d", s.Life)
	}
	s.SetLife(-10)
	if s.Life != 0 {
		t.Errorf("expected clamp to 0, got %d", s.Life)
	}
}

func TestStatusEffectsApplyTakesMax(t *testing.T) {
	var s StatusEffects
	s.Apply(5, 0, 0, "wolf")
	s.Apply(3, 0, 0, "bear") // lower incoming duration should not overwrite
	if s.PoisonSeconds != 5 {
		t.Errorf("expected max(5,3)=5, got %d", s.PoisonSeconds)
	}
	if s.PoisonedBy != "wolf" {
		t.Errorf("expected poisoner to remain wolf, got %q", s.PoisonedBy)
	}
	s.Apply(9, 0, 0, "tiger")
	if s.PoisonSeconds != 9 || s.PoisonedBy != "tiger" {
		t.Errorf("expected higher duration to win: %+v", s)
	}
}

func TestCanTransitionDeathFromAnyLivingState(t *testing.T) {
	for s := StateStand; s <= StateMagic; s++ {
		if s == StateDeath {
			continue
		}
		if !CanTransition(s, StateDeath) {
			t.Errorf("expected Death reachable from %v", s)
		}
	}
	if CanTransition(StateDeath, StateStand) {
		t.Error("Death should be terminal")
	}
}

func TestNewNpcStartsLoadingAndHidden(t *testing.T) {
	def := &assets.CharacterDef{Key: "wolf", Kind: assets.KindFighter, HP: 50}
	c := NewNpc(ecs.NewEntityID(1, 0), def, geom.Tile{X: 1, Y: 1})
	if c.Visible {
		t.Error("new NPC should start hidden during LoadingSprites")
	}
	if !c.Npc.LoadingSprites {
		t.Error("new NPC should start in LoadingSprites")
	}
	c.ResolveAssets()
	if !c.Visible || c.Npc.LoadingSprites {
		t.Error("ResolveAssets should make the NPC visible and stop loading")
	}
}

func TestIsDead(t *testing.T) {
	def := &assets.CharacterDef{Key: "wolf", Kind: assets.KindFighter, HP: 50}
	c := NewNpc(ecs.NewEntityID(1, 0), def, geom.Tile{X: 1, Y: 1})
	if c.IsDead() {
		t.Error("fresh NPC should not be dead")
	}
	c.Npc.IsDeathInvoked = true
	if !c.IsDead() {
		t.Error("expected IsDead once death invoked")
	}
}
