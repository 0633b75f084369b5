package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// MeleeContext is pre-packed data for a melee damage roll.
type MeleeContext struct {
	AttackerLevel  int
	AttackerAttack int
	TargetDefend   int
	TargetEvade    int
}

// MeleeResult is the outcome of a melee damage roll.
type MeleeResult struct {
	IsHit  bool
	Damage int
}

// CalcMeleeDamage calls Lua calc_melee_damage(ctx) if defined; otherwise
// falls back to the spec's plain formula max(1, attack-defend), matching
// the teacher's policy of never blocking gameplay on an optional script.
func (r *LuaRunner) CalcMeleeDamage(ctx MeleeContext) MeleeResult {
	fn := r.vm.GetGlobal("calc_melee_damage")
	if fn == lua.LNil {
		return MeleeResult{IsHit: true, Damage: maxInt(1, ctx.AttackerAttack-ctx.TargetDefend)}
	}

	t := r.vm.NewTable()
	t.RawSetString("attacker_level", lua.LNumber(ctx.AttackerLevel))
	t.RawSetString("attacker_attack", lua.LNumber(ctx.AttackerAttack))
	t.RawSetString("target_defend", lua.LNumber(ctx.TargetDefend))
	t.RawSetString("target_evade", lua.LNumber(ctx.TargetEvade))

	if err := r.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		r.log.Error("lua calc_melee_damage error", zap.Error(err))
		return MeleeResult{IsHit: true, Damage: maxInt(1, ctx.AttackerAttack-ctx.TargetDefend)}
	}
	result := r.vm.Get(-1)
	r.vm.Pop(1)
	rt, ok := result.(*lua.LTable)
	if !ok {
		return MeleeResult{IsHit: true, Damage: maxInt(1, ctx.AttackerAttack-ctx.TargetDefend)}
	}
	return MeleeResult{
		IsHit:  bool(lua.LVAsBool(rt.RawGetString("is_hit"))),
		Damage: lInt(rt, "damage"),
	}
}

// SkillDamageContext is pre-packed data for a scripted magic/skill damage
// roll at a given level.
type SkillDamageContext struct {
	CasterLevel int
	BaseDamage  int
	Level       int
	TargetMR    int
}

// CalcSkillDamage calls Lua calc_skill_damage(ctx) if defined; otherwise
// falls back to the magic def's own per-level base damage.
func (r *LuaRunner) CalcSkillDamage(ctx SkillDamageContext) int {
	fn := r.vm.GetGlobal("calc_skill_damage")
	if fn == lua.LNil {
		return ctx.BaseDamage
	}
	t := r.vm.NewTable()
	t.RawSetString("caster_level", lua.LNumber(ctx.CasterLevel))
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("level", lua.LNumber(ctx.Level))
	t.RawSetString("target_mr", lua.LNumber(ctx.TargetMR))

	if err := r.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		r.log.Error("lua calc_skill_damage error", zap.Error(err))
		return ctx.BaseDamage
	}
	result := r.vm.Get(-1)
	r.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
