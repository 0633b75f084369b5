// Package objmgr owns every interactive object (boxes, doors, traps, ground
// drops, sound emitters) in the currently loaded zone. It is grounded on the
// teacher's internal/world/obj.go + internal/system/obj_timer.go pair:
// Go owns the per-object animation/removal clock exactly as the teacher's
// ObjTimerSystem does, generalized from Lineage's fixed object-type roster
// to the spec's Kind enum, and from per-map door/trap packet broadcasts to
// the in-process damage/obstacle queries the rest of this core consults.
package objmgr

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/core/event"
	"github.com/ninesuns/jianghu/internal/core/system"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/scripting"
	"github.com/ninesuns/jianghu/internal/terrain"
)

// Kind is an object's behavior category (spec.md §3).
type Kind int

const (
	KindDynamic Kind = iota
	KindStatic
	KindBody
	KindLoopingSound
	KindRandSound
	KindDoor
	KindTrap
	KindDrop
)

// blocksTile mirrors spec §4.8's obstacle query: only Dynamic/Static/Door
// objects ever block a tile, and only while not removed.
func (k Kind) blocksTile() bool {
	return k == KindDynamic || k == KindStatic || k == KindDoor
}

// Obj is one live object instance.
type Obj struct {
	ObjID  int
	Name   string // addressing key for the public API (addObjByFile/deleteObj/...)
	DefKey string
	Kind   Kind
	Tile   geom.Tile
	Dir    geom.Direction8

	FrameBegin, FrameEnd int
	FrameIndex           int
	targetFrame          int // openBox/closeBox animate FrameIndex toward this
	frameTimerMs         int

	ScriptFile      string
	ScriptFileRight string

	TimerScriptFile     string
	TimerScriptInterval int
	timerElapsedMs      int

	Damage               int
	MillisecondsToRemove int
	elapsedMs            int

	// Qty is only meaningful for KindDrop objects (item stack size).
	Qty int

	IsRemoved bool
}

// FighterDamager is the collaborator trap objects damage through, satisfied
// structurally by npcmgr.Manager without objmgr importing it back — the
// same decoupling pattern as npcmgr.BodyEmitter.
type FighterDamager interface {
	DamageFightersAt(tile geom.Tile, dmg int)
}

// SoundPlayer is an optional rendering-side hook for LoopingSound/RandSound
// playback. Audio itself is out of scope (spec.md Non-goals list rendering
// and audio as external collaborators); this interface exists only so a UI
// layer can subscribe if one is wired in, and it is safe to leave nil.
type SoundPlayer interface {
	PlaySound(tile geom.Tile, soundKey string)
}

// ScriptEngine is the subset of scripting.Runner ObjManager needs.
type ScriptEngine interface {
	scripting.Runner
}

// Manager owns every live Obj for one zone.
type Manager struct {
	objs     map[int]*Obj
	byName   map[string]int
	nextID   int
	byTile   map[geom.Tile]map[int]struct{}

	registry assets.Registry
	scr      ScriptEngine
	damager  FighterDamager
	sound    SoundPlayer
	bus      *event.Bus
	rng      *rand.Rand
	log      *zap.Logger

	zoneFile string
	mapBase  *terrain.MapBase

	// savedStates remembers openBox/closeBox's target-frame outcome across a
	// zone unload/reload that never called saveObj (spec §4.8/S4): keyed
	// "{zoneFile}_{name}" (see stateKey), restored on the next AddObjByFile for that name
	// within the same process rather than persisted through Repository.
	savedStates map[string]savedObjState
}

type savedObjState struct {
	scriptFile        string
	isRemoved         bool
	currentFrameIndex int
}

// New constructs an empty ObjManager. damager and sound may be nil; damager
// must be set via SetFighterDamager before any trap fires.
func New(registry assets.Registry, scr ScriptEngine, bus *event.Bus, rng *rand.Rand, log *zap.Logger) *Manager {
	return &Manager{
		objs:        make(map[int]*Obj),
		byName:      make(map[string]int),
		byTile:      make(map[geom.Tile]map[int]struct{}),
		registry:    registry,
		scr:         scr,
		bus:         bus,
		rng:         rng,
		log:         log,
		savedStates: make(map[string]savedObjState),
	}
}

// SetFighterDamager wires the trap-damage collaborator.
func (m *Manager) SetFighterDamager(d FighterDamager) { m.damager = d }

// SetSoundPlayer wires an optional positional-sound collaborator.
func (m *Manager) SetSoundPlayer(s SoundPlayer) { m.sound = s }

// SetMapBase stores the loaded zone's barrier data. No object query reads
// it and objects never write into it; tile blocking is answered from the
// manager's own per-tile index.
func (m *Manager) SetMapBase(mb *terrain.MapBase) { m.mapBase = mb }

// SetZoneFile records which zone's objects this manager holds.
func (m *Manager) SetZoneFile(zoneFile string) { m.zoneFile = zoneFile }

func (m *Manager) Phase() system.Phase { return system.PhaseObj }

// Each calls fn for every live (non-removed) object. fn must not add or
// remove objects.
func (m *Manager) Each(fn func(*Obj)) {
	for _, o := range m.objs {
		if !o.IsRemoved {
			fn(o)
		}
	}
}

// Count returns the number of live objects, for metrics.
func (m *Manager) Count() int {
	n := 0
	for _, o := range m.objs {
		if !o.IsRemoved {
			n++
		}
	}
	return n
}

// ObjsInView returns every live object within radius tiles of center,
// grouped by tile row — the object-manager half of spec.md §4.10's view
// cache, mirrored after NpcsInView.
func (m *Manager) ObjsInView(center geom.Tile, radius int) map[int][]*Obj {
	rows := make(map[int][]*Obj)
	for _, o := range m.objs {
		if o.IsRemoved {
			continue
		}
		if geom.ViewTileDistance(center, o.Tile) > radius {
			continue
		}
		rows[o.Tile.Y] = append(rows[o.Tile.Y], o)
	}
	return rows
}

// Get resolves a live object by name.
func (m *Manager) Get(name string) (*Obj, bool) {
	id, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	o, ok := m.objs[id]
	if !ok || o.IsRemoved {
		return nil, false
	}
	return o, true
}

// IsObstacle reports whether any blocking, non-removed object occupies tile
// (spec §4.8's obstacle query).
func (m *Manager) IsObstacle(t geom.Tile) bool {
	for id := range m.byTile[t] {
		o := m.objs[id]
		if o != nil && !o.IsRemoved && o.Kind.blocksTile() {
			return true
		}
	}
	return false
}

func (m *Manager) addToTile(id int, t geom.Tile) {
	cell := m.byTile[t]
	if cell == nil {
		cell = make(map[int]struct{})
		m.byTile[t] = cell
	}
	cell[id] = struct{}{}
}

func (m *Manager) removeFromTile(id int, t geom.Tile) {
	if cell := m.byTile[t]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(m.byTile, t)
		}
	}
}

var _ system.System = (*Manager)(nil)
