// Package scripting wraps a single gopher-lua VM and exposes the script
// collaborator interface the core depends on (spec.md §6.2, realized as
// scripting.Runner per SPEC_FULL.md §5): runScript/queueScript, plus the
// Lua-driven decision and damage-formula callouts NPC AI and the combat
// pipeline need. Gutted from the teacher's internal/scripting/engine.go,
// which carried dozens of Lineage-specific Calc*/Get* functions (enchant
// odds, PK lawful penalties, level-up curves, potion effects); only the
// generic shapes survive: loadDir script loading, CallByParam-based typed
// bridge calls, and the RunNpcAI table-marshal-then-call pattern.
package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Runner is the script collaborator interface the core depends on
// (SPEC_FULL.md §5).
type Runner interface {
	RunScript(path string, subject any)
	QueueScript(path string)
	ScriptBasePath() string
}

// AIRunner is the narrower interface npcai consumes to get Lua's
// command choice at the chase/attack decision step.
type AIRunner interface {
	RunNpcAI(ctx AIContext) []AICommand
}

// scriptJob is one entry in the serial death-script queue (spec.md §5:
// queueScript is FIFO and is the only sanctioned entry point from inside a
// tick; runScript is for callbacks outside the simulation loop).
type scriptJob struct {
	path    string
	subject any
}

// LuaRunner wraps a single gopher-lua VM. Single-goroutine access only — it
// is driven exclusively from the world tick goroutine.
type LuaRunner struct {
	vm       *lua.LState
	log      *zap.Logger
	basePath string
	queue    []scriptJob
}

// NewLuaRunner creates a Lua engine and loads every script under
// scriptsDir/{core,combat,ai}, mirroring the teacher's loadDir-per-subdir
// boot sequence.
func NewLuaRunner(scriptsDir string, log *zap.Logger) (*LuaRunner, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	r := &LuaRunner{vm: vm, log: log, basePath: scriptsDir}

	for _, sub := range []string{"core", "combat", "ai"} {
		if err := r.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return r, nil
}

func (r *LuaRunner) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := r.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		r.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// ScriptBasePath returns the content root scripts are resolved relative to.
func (r *LuaRunner) ScriptBasePath() string { return r.basePath }

// RunScript fires a script immediately. Per spec.md §9, this is sanctioned
// only from outside the tick loop (e.g. a user-interaction callback); calls
// from within Update should use QueueScript instead.
func (r *LuaRunner) RunScript(path string, subject any) {
	r.runOne(scriptJob{path: path, subject: subject})
}

// QueueScript enqueues a script to run serially, in insertion order, the
// only sanctioned same-tick entry point per spec.md §9. DrainQueue is
// called once per tick by worldtick.Context after all managers update, so
// N NPCs dying simultaneously still fire their death scripts in
// deterministic order (spec.md §5 ordering guarantee).
func (r *LuaRunner) QueueScript(path string) {
	r.queue = append(r.queue, scriptJob{path: path})
}

// DrainQueue runs every queued script in FIFO order and clears the queue.
func (r *LuaRunner) DrainQueue(ctx context.Context) {
	jobs := r.queue
	r.queue = nil
	for _, j := range jobs {
		r.runOne(j)
	}
}

func (r *LuaRunner) runOne(j scriptJob) {
	absPath := j.path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(r.basePath, absPath)
	}
	if err := r.vm.DoFile(absPath); err != nil {
		r.log.Error("script launch failed", zap.String("path", absPath), zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (r *LuaRunner) Close() {
	r.vm.Close()
}

var _ Runner = (*LuaRunner)(nil)
