package npcai

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

// MagicCaster is the collaborator npcai hands death/retaliation casts to.
// npcmgr.Manager implements it, forwarding to the magic engine.
type MagicCaster interface {
	Cast(ownerID ecs.EntityID, magicKey string, originDir geom.Direction32, origin, destination geom.Pixel)
}

// DeathCascade runs the one-shot death sequence (spec §4.4's "Death
// cascade" and §4.9's NpcManager.addDead hook), grounded on the
// teacher's handleNpcDeath orchestration (combat.go) generalized from
// Lineage's drop/exp bookkeeping to this engine's magic-on-death +
// death-script + DeathInfo shape.
//
// addDead and queueScript are callbacks rather than concrete
// collaborators so npcmgr/scripting stay decoupled from npcai.
func DeathCascade(npc *character.Character, def *assets.CharacterDef, killer *character.Character, caster MagicCaster, addDead func(*character.Character), queueScript func(path string)) {
	if npc.Npc == nil || npc.Npc.IsDeathInvoked {
		return
	}
	npc.Npc.IsDeathInvoked = true

	// Partner NPCs (def.IsPartner) stop here: no death magic, no addDead,
	// no death script.
	if def.IsPartner {
		return
	}

	if def.MagicToUseWhenDeath != "" && caster != nil {
		dir := resolveCastDirection(npc, killer, MagicDirection(def.MagicDirectionWhenDeath))
		caster.Cast(npc.ID, def.MagicToUseWhenDeath, dir, npc.Pixel, targetPixel(npc, killer, MagicDirection(def.MagicDirectionWhenDeath)))
	}

	if addDead != nil {
		addDead(npc)
	}

	if def.DeathScript != "" && queueScript != nil {
		queueScript(def.DeathScript)
	}
}

// resolveCastDirection implements the magicDirectionWhen{Death,BeAttacked}
// enum shared by the death cascade and the retaliation-on-hit path
// (spec §4.4/§4.6): 0 keep current facing, 1 turn toward the other
// character, 2 aim at the other character's current tile.
func resolveCastDirection(self, other *character.Character, mode MagicDirection) geom.Direction32 {
	switch mode {
	case MagicDirTowardOther, MagicDirAtOtherTile:
		if other != nil {
			return geom.Dir8To32(geom.HeadingTo(self.Tile, other.Tile))
		}
	}
	return geom.Dir8To32(self.Dir8)
}

// targetPixel is the destination pixel for a direction-resolved cast:
// the other character's position when aiming at their tile, otherwise the
// caster's own pixel, so the cast's origin and destination coincide and
// the magic engine aims it along the direction passed with the cast.
func targetPixel(self, other *character.Character, mode MagicDirection) geom.Pixel {
	if mode == MagicDirAtOtherTile && other != nil {
		return other.Pixel
	}
	return self.Pixel
}
