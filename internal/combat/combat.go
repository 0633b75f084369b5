// Package combat implements the damage pipeline shared by melee, ranged,
// and magic-sprite hits: takeDamage's invincibility/death guard, the
// armor-reduction formula, hurt-animation/onDamaged dispatch,
// retaliation-magic spawning, and status-effect latching. Grounded on
// the teacher's internal/system/combat.go sequencing (guard checks
// before damage, onDamaged-style callback hooks, the retaliation/
// counter-barrier dispatch pattern) and poison.go's latch-style status
// application, generalized from Lineage's PvP/PvE packet broadcasts to
// this engine's in-process Character/MagicCaster model.
package combat

import (
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/npcai"
	"github.com/ninesuns/jianghu/internal/scripting"
)

// StatusPayload is the status-effect package a hitting sprite carries
// (spec §4.6 step 5); zero values mean "no effect of that kind."
type StatusPayload struct {
	PoisonSeconds    int
	PetrifiedSeconds int
	FrozenSeconds    int
	PoisonedBy       string
}

// Hit is the pre-packed description of one damage event, built by
// whichever subsystem resolved the attack (melee swing, magic sprite
// collision, trap tick).
type Hit struct {
	Attacker          *character.Character
	AttackerPenetration int
	BaseDamage        int
	Status            StatusPayload

	// RetaliationDirection resolves the direction of any
	// magicToUseWhenBeAttacked cast, per spec §4.6 step 4.
	RetaliationDirection npcai.MagicDirection
}

// Retaliation describes a retaliation cast spawned from the be-attacked
// hook, or the zero value if the target def defines none.
type Retaliation struct {
	MagicKey string
	Dir      geom.Direction32
	Origin   geom.Pixel
	Dest     geom.Pixel
}

// Result is what the caller needs after a takeDamage call to drive
// respawn/event bookkeeping.
type Result struct {
	Applied     bool
	Damage      int
	KilledNow   bool
	Retaliation *Retaliation
}

// RetaliationDef is the subset of a character def combat needs
// for the be-attacked retaliation hook — kept narrow so combat doesn't
// import the full assets.CharacterDef for one field pair.
type RetaliationDef struct {
	MagicKey string
	HasMagic bool
}

// TakeDamage runs the six-step pipeline from spec §4.6 against target.
// defRetaliation supplies the target's magicToUseWhenBeAttacked (empty if
// none); onDamaged lets the caller hook packet broadcasts or aggro-table
// updates without combat depending on them. scr is accepted but not read
// here: hit.BaseDamage arrives already computed (see MeleeDamage).
func TakeDamage(target *character.Character, hit Hit, defRetaliation RetaliationDef, scr scripting.Runner, onDamaged func(target, attacker *character.Character, dmg int)) Result {
	// Step 1: invincibility / death guard.
	if target.Invincible > 0 || target.IsDead() {
		return Result{}
	}

	// Step 2: damage formula — max(1, amount - defense + penetration).
	defense := target.Stats.Defend1 + target.Stats.Defend2 + target.Stats.Defend3
	dmg := hit.BaseDamage - defense + hit.AttackerPenetration
	if dmg < 1 {
		dmg = 1
	}

	// Step 3: life deduction + hurt animation (skipped mid-death, but we
	// already returned above for that case).
	target.Stats.SetLife(target.Stats.Life - dmg)
	if !target.IsDead() {
		target.State = character.StateHurt
	}

	// Step 4: onDamaged callback + retaliation dispatch.
	if onDamaged != nil {
		onDamaged(target, hit.Attacker, dmg)
	}
	var retaliation *Retaliation
	if defRetaliation.HasMagic && hit.Attacker != nil {
		dir := resolveDirection(target, hit.Attacker, hit.RetaliationDirection)
		dest := target.Pixel
		if hit.RetaliationDirection == npcai.MagicDirAtOtherTile {
			dest = hit.Attacker.Pixel
		}
		retaliation = &Retaliation{
			MagicKey: defRetaliation.MagicKey,
			Dir:      dir,
			Origin:   target.Pixel,
			Dest:     dest,
		}
	}

	// Step 5: latch status effects carried by the hit.
	if hit.Status.PoisonSeconds > 0 || hit.Status.PetrifiedSeconds > 0 || hit.Status.FrozenSeconds > 0 {
		target.Status.Apply(hit.Status.PoisonSeconds, hit.Status.PetrifiedSeconds, hit.Status.FrozenSeconds, hit.Status.PoisonedBy)
	}

	// Step 6: death invocation is left to the caller (npcmgr/worldtick),
	// which owns the DeathCascade/addDead/respawn sequence — combat only
	// reports that life has crossed zero.
	return Result{Applied: true, Damage: dmg, KilledNow: target.Stats.Life <= 0, Retaliation: retaliation}
}

func resolveDirection(self, other *character.Character, mode npcai.MagicDirection) geom.Direction32 {
	if mode == npcai.MagicDirTowardOther || mode == npcai.MagicDirAtOtherTile {
		return geom.Dir8To32(geom.HeadingTo(self.Tile, other.Tile))
	}
	return geom.Dir8To32(self.Dir8)
}

// MeleeDamage resolves a melee swing's base damage via the scripted
// formula (Lua override, else stdlib max(1, attack-defend)).
func MeleeDamage(attacker, target *character.Character, scr interface {
	CalcMeleeDamage(scripting.MeleeContext) scripting.MeleeResult
}) scripting.MeleeResult {
	return scr.CalcMeleeDamage(scripting.MeleeContext{
		AttackerLevel:  attacker.Stats.Level,
		AttackerAttack: attacker.Stats.Attack1,
		TargetDefend:   target.Stats.Defend1,
		TargetEvade:    target.Stats.Evade,
	})
}
