package magic

import (
	"math"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/combat"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

// tickMs is the nominal duration of one world tick, used to advance
// ElapsedMs/DelayMs and integrate VelX/VelY (pixels per millisecond).
const tickMs = 1000.0 / 20.0

// World is the collaborator the magic engine needs from the rest of the
// simulation: terrain/character obstruction for collision, damage
// application, and nearest-enemy lookup for trace sprites. npcmgr/worldtick
// implement this (spec §4.5 step 3: "collision consults Terrain.IsObstacle
// and every manager's own occupant test").
type World interface {
	// IsObstacle reports whether tile blocks a sprite — a terrain barrier
	// (ignored when passThroughWall is set) or a static magic sprite.
	// Characters are not obstacles here; HitCandidateAt handles them.
	IsObstacle(t geom.Tile, passThroughWall bool) bool

	// HitCandidateAt returns the character occupying tile that s should
	// damage, if any — the implementation owns the owner/relation/
	// AttackAll/invincibility test since only it can resolve a
	// Character's CharacterDef (Character itself carries no Relation
	// field). ok is false if the tile is empty or occupied only by
	// non-targets (the caster itself, a friendly unit with AttackAll
	// unset).
	HitCandidateAt(t geom.Tile, s *Sprite) (*character.Character, bool)

	// ApplyHit resolves a sprite's damage/status against target, attributed
	// to ownerID. Returns the combat.Result for caller-side death handling.
	ApplyHit(ownerID ecs.EntityID, target *character.Character, s *Sprite) combat.Result

	// NearestEnemyTile finds the nearest hostile tile to origin for align,
	// used by TraceEnemy sprites to re-aim every tick. ok is false if none
	// is in range.
	NearestEnemyTile(origin geom.Tile, align assets.Relation) (geom.Tile, bool)

	// CharacterTile resolves a live character's current tile, used to
	// re-aim an owner-following (non-enemy-tracing) sprite each tick.
	CharacterTile(id ecs.EntityID) (geom.Tile, bool)
}

// Update advances every sprite by one tick: Waiting sprites count down (or,
// for SuperMode targets, wait on their cast sprite finishing), and one
// whose wait ends this tick also takes its first Flying step; Flying
// sprites integrate position, re-aim if tracing, check collision and
// bounce, and decrement LifeFrame; Vanish sprites play out their vanish
// animation; Done sprites are removed. w may be nil only in tests that
// don't exercise collision.
func (m *Manager) Update(w World) {
	castGroupsDone := m.computeCastGroupsDone()

	for id, s := range m.sprites {
		switch s.Phase {
		case PhaseWaiting:
			m.updateWaiting(s, castGroupsDone)
			if s.Phase == PhaseFlying {
				m.updateFlying(id, s, w)
			}
		case PhaseFlying:
			m.updateFlying(id, s, w)
		case PhaseVanish:
			s.VanishFrame++
			if s.VanishFrame >= vanishFrames {
				s.Phase = PhaseDone
			}
		}
	}

	for id, s := range m.sprites {
		if s.Phase == PhaseDone {
			m.remove(id)
		}
	}
}

const vanishFrames = 3

func (m *Manager) updateWaiting(s *Sprite, castGroupsDone map[int]bool) {
	if s.DelayMs == waitUntilCastDone {
		if castGroupsDone[s.castGroup] {
			s.Phase = PhaseFlying
		}
		return
	}
	s.DelayMs -= int(tickMs)
	if s.DelayMs <= 0 {
		s.Phase = PhaseFlying
	}
}

// computeCastGroupsDone scans for SuperMode cast sprites (identified by
// Static==true and castGroup!=0) that have reached PhaseVanish or
// PhaseDone, so their
// waitUntilCastDone targets can arm this same tick (spec §8 S6).
func (m *Manager) computeCastGroupsDone() map[int]bool {
	done := make(map[int]bool)
	for _, s := range m.sprites {
		if s.castGroup != 0 && s.Static {
			if s.Phase == PhaseDone || s.Phase == PhaseVanish {
				done[s.castGroup] = true
			}
		}
	}
	return done
}

func (m *Manager) updateFlying(id ecs.EntityID, s *Sprite, w World) {
	if w != nil && s.Def.TraceEnemy {
		if tile, ok := w.NearestEnemyTile(geom.PixelToTile(s.Pos.ToPixel()), s.Align); ok {
			dest := geom.PixelFOf(geom.TileToPixel(tile))
			s.Dir32 = geom.Dir32Between(s.Pos, dest)
			dx, dy := geom.Dir32Vector(s.Dir32)
			speed := s.Def.TraceSpeed
			if speed == 0 {
				speed = s.Def.Speed
			}
			s.VelX, s.VelY = dx*speed, dy*speed
		}
	} else if w != nil && s.TraceTarget != 0 {
		if tile, ok := w.CharacterTile(s.TraceTarget); ok {
			dest := geom.PixelFOf(geom.TileToPixel(tile))
			s.Dir32 = geom.Dir32Between(s.Pos, dest)
		}
	}

	s.Pos.X += s.VelX * tickMs
	s.Pos.Y += s.VelY * tickMs
	s.ElapsedMs += int(tickMs)

	if w != nil {
		m.resolveCollision(id, s, w)
	}

	if s.Phase != PhaseFlying {
		return
	}

	s.LifeFrame--
	if s.LifeFrame <= 0 {
		s.Phase = PhaseVanish
	}
}

// resolveCollision applies spec §4.5 step 3: a flying sprite that enters a
// terrain/static-sprite obstacle tile, or a character tile it should hit,
// either vanishes, bounces (+90 degrees, per the Open Question decision in
// DESIGN.md), or passes through per PassThrough/PassThroughWall/AttackAll.
func (m *Manager) resolveCollision(id ecs.EntityID, s *Sprite, w World) {
	tile := geom.PixelToTile(s.Pos.ToPixel())

	if target, ok := w.HitCandidateAt(tile, s); ok {
		w.ApplyHit(s.OwnerID, target, s)
		if !s.Def.PassThrough {
			m.bounceOrVanish(s)
		}
		return
	}

	if w.IsObstacle(tile, s.Def.PassThroughWall) {
		m.bounceOrVanish(s)
	}
}

// bounceOrVanish either rotates the sprite's heading +90 degrees (8 of 32
// units) and keeps it flying, up to one bounce per the def's Bounce flag,
// or marks it for vanish.
func (m *Manager) bounceOrVanish(s *Sprite) {
	if s.Def.Bounce && s.Bounces == 0 {
		s.Bounces++
		s.Dir32 += 8
		dx, dy := geom.Dir32Vector(s.Dir32)
		speed := math.Hypot(s.VelX, s.VelY)
		s.VelX, s.VelY = dx*speed, dy*speed
		return
	}
	s.Phase = PhaseVanish
}
