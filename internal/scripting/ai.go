package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// AIContext is the read-only snapshot Go hands to the Lua npc_ai(ctx)
// entry point once per NPC per tick — the same shape as the teacher's
// scripting.AIContext, generalized from Lineage stat names to this
// engine's data model.
type AIContext struct {
	NpcID int32
	X, Y  int
	HP, MaxHP int
	Level     int
	AtkDmg    int
	MoveSpeed int

	TargetID    int32
	TargetX, TargetY int
	TargetDist  int

	CanAttack bool
	CanMove   bool

	WanderDist int
	SpawnDist  int
}

// AICommand is one action Lua asked Go to perform: "attack", "cast",
// "move_toward", "wander", "lose_aggro", or "retreat".
type AICommand struct {
	Type    string
	SkillID int
	Dir     int
}

// RunNpcAI calls the global Lua npc_ai(ctx) function and parses its
// returned command list. Returns nil (no commands) if npc_ai isn't
// defined or errors — NPC AI degrades to idle rather than panicking,
// matching the core's never-propagate-errors-from-update policy.
func (r *LuaRunner) RunNpcAI(ctx AIContext) []AICommand {
	fn := r.vm.GetGlobal("npc_ai")
	if fn == lua.LNil {
		return nil
	}

	t := r.vm.NewTable()
	t.RawSetString("npc_id", lua.LNumber(ctx.NpcID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("level", lua.LNumber(ctx.Level))
	t.RawSetString("atk_dmg", lua.LNumber(ctx.AtkDmg))
	t.RawSetString("move_speed", lua.LNumber(ctx.MoveSpeed))
	t.RawSetString("target_id", lua.LNumber(ctx.TargetID))
	t.RawSetString("target_x", lua.LNumber(ctx.TargetX))
	t.RawSetString("target_y", lua.LNumber(ctx.TargetY))
	t.RawSetString("target_dist", lua.LNumber(ctx.TargetDist))
	t.RawSetString("can_attack", lua.LBool(ctx.CanAttack))
	t.RawSetString("can_move", lua.LBool(ctx.CanMove))
	t.RawSetString("wander_dist", lua.LNumber(ctx.WanderDist))
	t.RawSetString("spawn_dist", lua.LNumber(ctx.SpawnDist))

	if err := r.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		r.log.Error("lua npc_ai error", zap.Error(err), zap.Int32("npc_id", ctx.NpcID))
		return nil
	}

	result := r.vm.Get(-1)
	r.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}

	var cmds []AICommand
	rt.ForEach(func(_, v lua.LValue) {
		if row, ok := v.(*lua.LTable); ok {
			cmds = append(cmds, AICommand{
				Type:    lStr(row, "type"),
				SkillID: lInt(row, "skill_id"),
				Dir:     lInt(row, "dir"),
			})
		}
	})
	return cmds
}
