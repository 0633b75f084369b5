package objmgr

import (
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/core/event"
	"github.com/ninesuns/jianghu/internal/geom"
)

type fakeRegistry struct {
	objects map[string]*assets.ObjectDef
	chars   map[string]*assets.CharacterDef
	drops   map[string][]assets.DropEntry
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		objects: make(map[string]*assets.ObjectDef),
		chars:   make(map[string]*assets.CharacterDef),
		drops:   make(map[string][]assets.DropEntry),
	}
}

func (r *fakeRegistry) CharacterDef(key string) (*assets.CharacterDef, bool) {
	d, ok := r.chars[key]
	return d, ok
}
func (r *fakeRegistry) NpcResource(string) (*assets.NpcResource, bool) { return nil, false }
func (r *fakeRegistry) ObjectDef(key string) (*assets.ObjectDef, bool) {
	d, ok := r.objects[key]
	return d, ok
}
func (r *fakeRegistry) ObjectResource(string) (*assets.ObjectResource, bool) { return nil, false }
func (r *fakeRegistry) MagicDef(string, int) (*assets.MagicDef, bool)        { return nil, false }
func (r *fakeRegistry) SpriteSheet(string) (*assets.SpriteSheet, bool)       { return nil, false }
func (r *fakeRegistry) DropTable(key string) ([]assets.DropEntry, bool) {
	d, ok := r.drops[key]
	return d, ok
}

var _ assets.Registry = (*fakeRegistry)(nil)

type fakeScript struct{ queued []string }

func (f *fakeScript) RunScript(string, any)   {}
func (f *fakeScript) QueueScript(path string) { f.queued = append(f.queued, path) }
func (f *fakeScript) ScriptBasePath() string  { return "." }

var _ ScriptEngine = (*fakeScript)(nil)

type fakeDamager struct {
	hits []geom.Tile
	dmg  int
}

func (f *fakeDamager) DamageFightersAt(tile geom.Tile, dmg int) {
	f.hits = append(f.hits, tile)
	f.dmg = dmg
}

var _ FighterDamager = (*fakeDamager)(nil)

func newTestManager() (*Manager, *fakeRegistry) {
	reg := newFakeRegistry()
	bus := event.NewBus()
	rng := rand.New(rand.NewSource(1))
	m := New(reg, &fakeScript{}, bus, rng, zap.NewNop())
	m.SetZoneFile("testzone")
	return m, reg
}

func chestDef() *assets.ObjectDef {
	return &assets.ObjectDef{Key: "chest", Obstacle: false, FrameBegin: 0, FrameEnd: 7}
}

func trapDef() *assets.ObjectDef {
	return &assets.ObjectDef{Key: "spikes", Damage: 5, FrameBegin: 0, FrameEnd: 3}
}

func wallDef() *assets.ObjectDef {
	return &assets.ObjectDef{Key: "wall", Obstacle: true}
}

func TestAddObjByFileThenDeleteObjLeavesCountUnchanged(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["chest"] = chestDef()

	before := m.Count()
	m.AddObjByFile("chest1", "chest", geom.Tile{X: 1, Y: 1}, 0)
	if m.Count() != before+1 {
		t.Fatalf("expected count to increase by one, got %d", m.Count())
	}
	if !m.DeleteObj("chest1") {
		t.Fatal("expected DeleteObj to succeed")
	}
	if m.Count() != before {
		t.Fatalf("expected count restored to %d, got %d", before, m.Count())
	}
}

func TestStaticObjObstructsTile(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["wall"] = wallDef()
	tile := geom.Tile{X: 2, Y: 2}

	if m.IsObstacle(tile) {
		t.Fatal("expected empty tile to not be an obstacle")
	}
	m.AddObjByFile("wall1", "wall", tile, 0)
	if !m.IsObstacle(tile) {
		t.Fatal("expected wall object to obstruct its tile")
	}
}

func TestOpenBoxThenCloseBoxThenOpenBoxEndsAtFrameEnd(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["chest"] = chestDef()
	tile := geom.Tile{X: 0, Y: 0}
	m.AddObjByFile("chest1", "chest", tile, 0)

	drive := func(n int) {
		for i := 0; i < n; i++ {
			m.Update(frameStepMs * time.Millisecond)
		}
	}

	m.OpenBox("chest1")
	drive(10)
	m.CloseBox("chest1")
	drive(10)
	m.OpenBox("chest1")
	drive(10)

	o, ok := m.Get("chest1")
	if !ok {
		t.Fatal("expected chest1 to still exist")
	}
	if o.FrameIndex != o.FrameEnd {
		t.Fatalf("expected currentFrameIndex == frameEnd (%d), got %d", o.FrameEnd, o.FrameIndex)
	}
}

func TestSetObjScriptTwiceIsNoopOnSecondCall(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["chest"] = chestDef()
	m.AddObjByFile("chest1", "chest", geom.Tile{}, 0)

	m.SetObjScript("chest1", "scripts/open.lua")
	o, _ := m.Get("chest1")
	if o.ScriptFile != "scripts/open.lua" {
		t.Fatal("expected first SetObjScript call to take effect")
	}

	before := len(m.savedStates)
	m.SetObjScript("chest1", "scripts/open.lua")
	if len(m.savedStates) != before {
		t.Fatal("expected the second identical SetObjScript call to be a no-op")
	}
}

func TestOpenBoxStatePersistsAcrossZoneReloadWithoutSaveObj(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["chest"] = chestDef()
	m.AddObjByFile("chest1", "chest", geom.Tile{}, 0)
	m.OpenBox("chest1")
	for i := 0; i < 10; i++ {
		m.Update(frameStepMs * time.Millisecond)
	}

	// Simulate a zone change: the object is removed without ever calling
	// saveObj, then the same name is re-authored on reload.
	m.DeleteObj("chest1")
	m.AddObjByFile("chest1", "chest", geom.Tile{}, 0)

	o, ok := m.Get("chest1")
	if !ok {
		t.Fatal("expected chest1 to exist after reload")
	}
	if o.FrameIndex != o.FrameEnd {
		t.Fatalf("expected savedObjStates to restore currentFrameIndex == %d, got %d", o.FrameEnd, o.FrameIndex)
	}
}

func TestTrapDamagesFightersAtFrameBegin(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["spikes"] = trapDef()
	damager := &fakeDamager{}
	m.SetFighterDamager(damager)
	tile := geom.Tile{X: 4, Y: 4}
	m.AddObjByFile("spikes1", "spikes", tile, 0)

	m.Update(frameStepMs * time.Millisecond)

	if len(damager.hits) == 0 {
		t.Fatal("expected the trap to damage fighters on its tile")
	}
	if damager.dmg != 5 {
		t.Fatalf("expected trap damage 5, got %d", damager.dmg)
	}
}

func TestMillisecondsToRemoveMarksObjectRemoved(t *testing.T) {
	m, reg := newTestManager()
	reg.objects["torch"] = &assets.ObjectDef{Key: "torch", MillisecondsToRemove: 500}
	m.AddObjByFile("torch1", "torch", geom.Tile{}, 0)

	m.Update(300 * time.Millisecond)
	if _, ok := m.Get("torch1"); !ok {
		t.Fatal("expected torch1 to still be alive before its removal deadline")
	}
	m.Update(300 * time.Millisecond)
	if _, ok := m.Get("torch1"); ok {
		t.Fatal("expected torch1 to be removed once MillisecondsToRemove elapses")
	}
}

func TestSpawnBodyRollsDropTable(t *testing.T) {
	m, reg := newTestManager()
	reg.chars["wolf"] = &assets.CharacterDef{Key: "wolf", DropTableKey: "wolf_drops"}
	reg.drops["wolf_drops"] = []assets.DropEntry{
		{ItemKey: "pelt", Min: 1, Max: 1, ChancePerMillion: 1_000_000},
	}

	before := m.Count()
	m.SpawnBody(geom.Tile{X: 7, Y: 7}, "wolf")

	found := false
	m.Each(func(o *Obj) {
		if o.Kind == KindDrop && o.DefKey == "pelt" {
			found = true
		}
	})
	if !found {
		t.Fatal("expected a guaranteed drop entry to spawn a Drop object")
	}
	if m.Count() <= before {
		t.Fatal("expected Count to include the new body and drop")
	}
}
