// Package npcai implements the per-tick NPC decision flow: target
// detection, life-low/friend-death reactions, chase/attack dispatch, and
// idle wandering. Grounded on the teacher's internal/system/npc_ai.go:
// Go handles target detection and the priority decision tree exactly as
// the teacher's tickMonsterAI/tickGuardAI do, and Lua is consulted only
// at the chase/attack step for the concrete action choice (attack vs.
// ranged vs. skill), via scripting.RunNpcAI — the same AIContext/command
// dispatch shape as the teacher.
package npcai

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/scripting"
)

// isRandMoveRandAttack reports whether aiType selects the idle
// random-tile-walk behavior (spec: aiType ∈ {1,2}).
func isRandMoveRandAttack(aiType int) bool {
	return aiType == 1 || aiType == 2
}

// Action is the outcome of a decision pass.
type Action int

const (
	ActionIdle Action = iota
	ActionStandFixedPath
	ActionWander
	ActionCastMagic
	ActionRetreat
	ActionReposition
	ActionChaseAndAct
)

// MagicDirection resolves how a triggered cast aims, shared by the
// life-low, death, and be-attacked cast sites (spec §4.4/§4.6).
type MagicDirection int

const (
	MagicDirCurrentFacing MagicDirection = 0
	MagicDirTowardOther   MagicDirection = 1
	MagicDirAtOtherTile   MagicDirection = 2
)

// Decision is what Decide asks the caller (npcmgr) to do this tick.
type Decision struct {
	Action Action

	MagicKey  string
	MagicDir  MagicDirection
	RetreatTo geom.Tile

	FollowTarget ecs.EntityID

	Commands []scripting.AICommand
}

// World is the read-only view npcai needs into the rest of the
// simulation. npcmgr implements this once the NPC/player tables exist.
type World interface {
	// FindEnemyInVision returns the closest enemy in vision of npc, if any.
	FindEnemyInVision(npc *character.Character, visionRadius int) (ecs.EntityID, bool)
	// Character resolves a live character by id.
	Character(id ecs.EntityID) (*character.Character, bool)
	// RecentFriendDeathTile returns the tile of a same-side character that
	// died within radius tiles in the last few ticks, if any.
	RecentFriendDeathTile(npc *character.Character, radius int) (geom.Tile, bool)
}

// Decide runs the priority decision flow for one NPC (spec §4.4). The only
// state it writes is npc.Npc.FollowTarget (set when an enemy is sighted,
// cleared when the followed target is lost); everything else is left to
// the caller, as described by the returned Decision.
func Decide(npc *character.Character, def *assets.CharacterDef, w World, scr scripting.AIRunner) Decision {
	if npc.IsDead() || !npc.Visible || npc.Npc == nil || npc.Npc.AIDisabled {
		return Decision{Action: ActionIdle}
	}

	// 1. Life-low reaction.
	if def.LifeLowPercent > 0 && def.MagicToUseWhenLifeLow != "" {
		threshold := npc.Stats.LifeMax * def.LifeLowPercent / 100
		if npc.Stats.Life <= threshold {
			d := Decision{
				Action:   ActionCastMagic,
				MagicKey: def.MagicToUseWhenLifeLow,
				MagicDir: MagicDirCurrentFacing,
			}
			if def.KeepRadiusWhenLifeLow > 0 {
				d.RetreatTo = retreatTile(npc.Tile, npc.Npc.SpawnTile, def.KeepRadiusWhenLifeLow)
			}
			return d
		}
	}

	// 2. Friend-death reposition.
	if def.KeepRadiusWhenFriendDeath > 0 {
		if tile, ok := w.RecentFriendDeathTile(npc, def.KeepRadiusWhenFriendDeath); ok {
			return Decision{
				Action:    ActionReposition,
				RetreatTo: awayFrom(npc.Tile, tile, def.KeepRadiusWhenFriendDeath),
			}
		}
	}

	// 3. Enemy in vision.
	if !def.StopFindingTarget {
		if enemyID, ok := w.FindEnemyInVision(npc, def.VisionRadius); ok {
			npc.Npc.FollowTarget = enemyID
			return decideChase(npc, def, w, scr, enemyID)
		}
	}
	if npc.Npc.FollowTarget != 0 {
		if target, ok := w.Character(npc.Npc.FollowTarget); ok && !target.IsDead() {
			return decideChase(npc, def, w, scr, npc.Npc.FollowTarget)
		}
		npc.Npc.FollowTarget = 0
	}

	// 4. Idle behavior.
	if npc.Npc.IsLoopWalk && len(npc.Npc.FixedPath) > 0 {
		return Decision{Action: ActionStandFixedPath}
	}
	if isRandMoveRandAttack(def.AIType) {
		return Decision{Action: ActionWander}
	}
	return Decision{Action: ActionIdle}
}

func decideChase(npc *character.Character, def *assets.CharacterDef, w World, scr scripting.AIRunner, targetID ecs.EntityID) Decision {
	target, ok := w.Character(targetID)
	if !ok || target.IsDead() {
		npc.Npc.FollowTarget = 0
		return Decision{Action: ActionIdle}
	}

	dist := geom.ViewTileDistance(npc.Tile, target.Tile)
	ctx := scripting.AIContext{
		NpcID:      int32(npc.ID.Index()),
		X:          npc.Tile.X,
		Y:          npc.Tile.Y,
		HP:         npc.Stats.Life,
		MaxHP:      npc.Stats.LifeMax,
		Level:      npc.Stats.Level,
		AtkDmg:     npc.Stats.Attack1,
		MoveSpeed:  npc.Stats.WalkSpeed,
		TargetID:   int32(targetID.Index()),
		TargetX:    target.Tile.X,
		TargetY:    target.Tile.Y,
		TargetDist: dist,
		CanAttack:  npc.Npc.AttackCooldown <= 0 && dist <= def.AttackRadius,
		CanMove:    true,
		WanderDist: 0,
		SpawnDist:  geom.ViewTileDistance(npc.Tile, npc.Npc.SpawnTile),
	}

	var cmds []scripting.AICommand
	if scr != nil {
		cmds = scr.RunNpcAI(ctx)
	}
	if cmds == nil {
		// No scripted override: fall back to the plain melee-or-chase
		// policy every fighter NPC needs even with no Lua loaded.
		if dist <= def.AttackRadius {
			cmds = []scripting.AICommand{{Type: "attack"}}
		} else {
			cmds = []scripting.AICommand{{Type: "move_toward"}}
		}
	}
	return Decision{Action: ActionChaseAndAct, FollowTarget: targetID, Commands: cmds}
}

// retreatTile picks a tile keepRadius tiles from current position, back
// toward the NPC's spawn point (spec: "possibly also retreat keepRadius
// tiles" on life-low).
func retreatTile(from, spawn geom.Tile, keepRadius int) geom.Tile {
	dir := geom.HeadingTo(from, spawn)
	t := from
	for i := 0; i < keepRadius; i++ {
		t = geom.Neighbor(t, dir)
	}
	return t
}

// awayFrom picks a tile radius tiles from `from`, in the direction
// opposite `danger`.
func awayFrom(from, danger geom.Tile, radius int) geom.Tile {
	dir := geom.HeadingTo(danger, from)
	t := from
	for i := 0; i < radius; i++ {
		t = geom.Neighbor(t, dir)
	}
	return t
}

// ParseFixedPath decodes a hex-encoded patrol path into tiles: contiguous
// groups of 4 hex digits, 2 for X and 2 for Y, with no separators
// ("0a0b141e" is (10,11) then (20,30)); a trailing group shorter than 4
// digits is ignored. No teacher analogue exists for this format; it is a
// plain stdlib parse, as there is no wire/text codec anywhere in the pack
// for this exact shape.
func ParseFixedPath(hex string) ([]geom.Tile, error) {
	var tiles []geom.Tile
	for i := 0; i+4 <= len(hex); i += 4 {
		x, err := parseHexByte(hex[i : i+2])
		if err != nil {
			return nil, err
		}
		y, err := parseHexByte(hex[i+2 : i+4])
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, geom.Tile{X: x, Y: y})
	}
	return tiles, nil
}

func parseHexByte(s string) (int, error) {
	var v int
	for _, c := range s {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= int(c - '0')
		case c >= 'a' && c <= 'f':
			v |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= int(c-'A') + 10
		default:
			return 0, &hexError{s}
		}
	}
	return v, nil
}

type hexError struct{ s string }

func (e *hexError) Error() string { return "npcai: invalid hex byte " + e.s }
