package npcmgr

import (
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/combat"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/npcai"
)

// DamageFightersAt applies environmental damage (a trap object firing) to
// every live fighter standing on tile. It satisfies objmgr.FighterDamager
// structurally, mirroring the BodyEmitter decoupling pattern: objmgr never
// imports npcmgr. There is no attacking character, so no hate/aggro
// bookkeeping or retaliation magic fires — the same as the teacher's
// trap-tile damage, which never aggroed the triggering character.
func (m *Manager) DamageFightersAt(tile geom.Tile, dmg int) {
	if dmg <= 0 {
		return
	}
	for _, c := range m.npcs {
		if c.Kind != character.KindFighter || c.Tile != tile {
			continue
		}
		hit := combat.Hit{BaseDamage: dmg}
		var retal combat.RetaliationDef
		if def, ok := m.defOf(c); ok {
			retal = retaliationDefOf(def)
			hit.RetaliationDirection = npcai.MagicDirCurrentFacing
		}
		result := combat.TakeDamage(c, hit, retal, m.scr, nil)
		if !result.Applied {
			continue
		}
		if result.KilledNow {
			if def, ok := m.defOf(c); ok {
				m.invokeDeath(c, nil, def)
			}
		}
	}
}
