package npcai

import (
	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
)

// SelectPathStyle picks the §4.3 movement strategy for an NPC from its
// static def and current loop-walk state, grounded on the teacher's
// npcMoveToward dispatch (which branches on monster type before choosing
// a probe strategy), generalized to the spec's four named styles:
//
//	Flyer                         -> PathStraightLine
//	pathFinder=1 or isPartner     -> PerfectMaxNpcTry
//	Normal/Eventer                -> PerfectMaxPlayerTry
//	pathFinder=0, loop-walk, or
//	  enemy relation              -> PathOneStep
//	(fallback)                    -> PerfectMaxNpcTry
func SelectPathStyle(def *assets.CharacterDef, isInLoopWalk bool) character.PathStyle {
	switch {
	case def.Kind == assets.KindFlyer:
		return character.PathStraightLine
	case def.PathFinder == 1 || def.IsPartner:
		return character.PerfectMaxNpcTry
	case def.Kind == assets.KindNormal || def.Kind == assets.KindEventer:
		return character.PerfectMaxPlayerTry
	case def.PathFinder == 0 || isInLoopWalk || def.Relation == assets.RelationEnemy:
		return character.PathOneStep
	default:
		return character.PerfectMaxNpcTry
	}
}
