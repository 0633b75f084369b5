package npcmgr

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/combat"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/npcai"
)

// addHate accumulates damage-based aggro and keeps FollowTarget pointed at
// the highest-hate attacker, generalized from the teacher's
// internal/system/hate.go (uint64 sessionID -> ecs.EntityID).
func addHate(npc *character.NpcData, attacker ecs.EntityID, damage int) {
	if damage <= 0 || attacker == 0 {
		return
	}
	if npc.AggroTable == nil {
		npc.AggroTable = make(map[ecs.EntityID]int32)
	}
	npc.AggroTable[attacker] += int32(damage)

	if npc.FollowTarget == 0 {
		npc.FollowTarget = attacker
		return
	}
	if attacker != npc.FollowTarget && npc.AggroTable[attacker] > npc.AggroTable[npc.FollowTarget] {
		npc.FollowTarget = attacker
	}
}

// maxHateTarget returns the entity with the highest accumulated hate, or
// the zero ID if the table is empty.
func maxHateTarget(npc *character.NpcData) ecs.EntityID {
	var best ecs.EntityID
	var bestHate int32 = -1
	for id, hate := range npc.AggroTable {
		if hate > bestHate {
			bestHate, best = hate, id
		}
	}
	return best
}

func clearHateList(npc *character.NpcData) {
	npc.AggroTable = nil
	npc.FollowTarget = 0
}

// retaliationDefOf adapts a CharacterDef's be-attacked magic fields into
// combat.RetaliationDef.
func retaliationDefOf(def *assets.CharacterDef) combat.RetaliationDef {
	return combat.RetaliationDef{
		MagicKey: def.MagicToUseWhenBeAttacked,
		HasMagic: def.MagicToUseWhenBeAttacked != "",
	}
}

// Cast satisfies npcai.MagicCaster: it resolves the casting NPC's own
// relation (for the sprite's hostility) and looks up the MagicDef by key,
// since npcai only knows the key string and npcmgr alone has registry
// access.
func (m *Manager) Cast(ownerID ecs.EntityID, magicKey string, originDir geom.Direction32, origin, destination geom.Pixel) {
	if m.magicMgr == nil || magicKey == "" {
		return
	}
	align := assets.RelationEnemy
	level := 1
	if owner, ok := m.npcs[ownerID]; ok {
		align = m.relationOf(owner)
		if owner.Npc != nil {
			if def, ok := m.registry.CharacterDef(owner.Npc.DefKey); ok {
				level = def.Level
			}
		}
	}
	def, ok := m.registry.MagicDef(magicKey, level)
	if !ok {
		return
	}
	facing := geom.Dir32To8(originDir)
	m.magicMgr.Cast(ownerID, align, def, level, origin, destination, facing, m.rng)
}

// dispatchRetaliation fires the Retaliation a combat.TakeDamage call
// returned, via the same Cast path NPC-triggered casts use.
func (m *Manager) dispatchRetaliation(ownerID ecs.EntityID, r *combat.Retaliation) {
	if r == nil {
		return
	}
	m.Cast(ownerID, r.MagicKey, r.Dir, r.Origin, r.Dest)
}

var _ npcai.MagicCaster = (*Manager)(nil)
