package objmgr

import (
	"strconv"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/geom"
)

// AddObjByFile spawns a new object from its ObjectDef, named for later
// addressing by DeleteObj/OpenBox/CloseBox/SetObjScript/saveObj. If a saved
// state exists for this zone+name from a prior openBox/closeBox that never
// called saveObj, it is applied immediately (spec.md S4).
func (m *Manager) AddObjByFile(name, defKey string, tile geom.Tile, dir geom.Direction8) (*Obj, bool) {
	def, ok := m.registry.ObjectDef(defKey)
	if !ok {
		return nil, false
	}

	m.nextID++
	id := m.nextID

	o := &Obj{
		ObjID:               id,
		Name:                name,
		DefKey:              defKey,
		Kind:                classify(def),
		Tile:                tile,
		Dir:                 dir,
		FrameBegin:          def.FrameBegin,
		FrameEnd:            def.FrameEnd,
		FrameIndex:          def.FrameBegin,
		targetFrame:         def.FrameBegin,
		ScriptFile:          def.ScriptFile,
		ScriptFileRight:     def.ScriptFileRight,
		TimerScriptFile:     def.TimerScriptFile,
		TimerScriptInterval: def.TimerScriptInterval,
		Damage:              def.Damage,
		MillisecondsToRemove: def.MillisecondsToRemove,
	}

	m.objs[id] = o
	m.byName[name] = id
	m.addToTile(id, tile)

	if saved, ok := m.savedStates[m.stateKey(name)]; ok {
		o.ScriptFile = saved.scriptFile
		o.IsRemoved = saved.isRemoved
		o.FrameIndex = saved.currentFrameIndex
		o.targetFrame = saved.currentFrameIndex
	}

	return o, true
}

// classify derives a runtime Kind from an ObjectDef. Door/trap/obstacle
// fields on the def disambiguate the otherwise-uniform Dynamic/Static split;
// anything carrying Damage>0 is a Trap, anything the def flags Obstacle
// without a removal clock is Static, and everything else animates freely
// as Dynamic. Bodies and drops are never loaded from a def file — they are
// only ever spawned at runtime by SpawnBody — so they never appear here.
func classify(def *assets.ObjectDef) Kind {
	switch {
	case def.Damage > 0:
		return KindTrap
	case def.Obstacle && def.MillisecondsToRemove == 0:
		return KindStatic
	case def.Obstacle:
		return KindDoor
	default:
		return KindDynamic
	}
}

// DeleteObj removes the named object. Its id is retired, not reused, so a
// later addObjByFile of the same name starts from a clean frame unless a
// savedStates entry says otherwise.
func (m *Manager) DeleteObj(name string) bool {
	id, ok := m.byName[name]
	if !ok {
		return false
	}
	o := m.objs[id]
	m.removeFromTile(id, o.Tile)
	delete(m.objs, id)
	delete(m.byName, name)
	return true
}

// OpenBox animates the named object toward its final frame, the chest/box
// idiom from spec.md §4.8 and S4. Calling it on a non-existent object is a
// no-op.
func (m *Manager) OpenBox(name string) {
	o, ok := m.Get(name)
	if !ok {
		return
	}
	o.targetFrame = o.FrameEnd
	m.rememberState(o)
}

// CloseBox reverses OpenBox, animating back to the first frame.
func (m *Manager) CloseBox(name string) {
	o, ok := m.Get(name)
	if !ok {
		return
	}
	o.targetFrame = o.FrameBegin
	m.rememberState(o)
}

// SetObjScript rebinds the object's interaction script. Idempotent: setting
// the same path twice is a no-op on the second call (spec.md §8).
func (m *Manager) SetObjScript(name, path string) {
	o, ok := m.Get(name)
	if !ok || o.ScriptFile == path {
		return
	}
	o.ScriptFile = path
	m.rememberState(o)
}

// SpawnBody drops a corpse object at tile and, when defKey resolves to a
// character with a drop table, rolls that table and spawns the resulting
// loot as Drop-kind objects on the same tile. It satisfies
// npcmgr.BodyEmitter structurally.
func (m *Manager) SpawnBody(tile geom.Tile, defKey string) {
	m.nextID++
	bodyID := m.nextID
	body := &Obj{
		ObjID:  bodyID,
		Name:   bodyKeyFor(bodyID),
		DefKey: defKey,
		Kind:   KindBody,
		Tile:   tile,
	}
	m.objs[bodyID] = body
	m.byName[body.Name] = bodyID
	m.addToTile(bodyID, tile)

	def, ok := m.registry.CharacterDef(defKey)
	if !ok || def.DropTableKey == "" {
		return
	}
	entries, ok := m.registry.DropTable(def.DropTableKey)
	if !ok {
		return
	}
	for _, e := range entries {
		if m.rng.Intn(1_000_000) >= e.ChancePerMillion {
			continue
		}
		qty := e.Min
		if e.Max > e.Min {
			qty += m.rng.Intn(e.Max - e.Min + 1)
		}
		m.spawnDrop(tile, e.ItemKey, qty)
	}
}

func (m *Manager) spawnDrop(tile geom.Tile, itemKey string, qty int) {
	m.nextID++
	id := m.nextID
	drop := &Obj{
		ObjID:                id,
		Name:                 dropKeyFor(id),
		DefKey:               itemKey,
		Kind:                 KindDrop,
		Tile:                 tile,
		MillisecondsToRemove: dropLifetimeMs,
		Qty:                  qty,
	}
	m.objs[id] = drop
	m.byName[drop.Name] = id
	m.addToTile(id, tile)
}

const dropLifetimeMs = 60_000

func bodyKeyFor(id int) string { return "__body_" + strconv.Itoa(id) }
func dropKeyFor(id int) string { return "__drop_" + strconv.Itoa(id) }

// rememberState snapshots o's persisted-relevant fields into savedStates so
// a later AddObjByFile of the same name (after a zone swap, without an
// intervening saveObj) can restore them — spec.md S4.
func (m *Manager) rememberState(o *Obj) {
	m.savedStates[m.stateKey(o.Name)] = savedObjState{
		scriptFile:        o.ScriptFile,
		isRemoved:         o.IsRemoved,
		currentFrameIndex: o.targetFrame,
	}
}

// stateKey mirrors the teacher's "{zoneFile}_{objId}"-keyed save-state row
// pattern (internal/persist), generalized to this object's stable name
// rather than its ephemeral in-process ObjID, since only the name survives
// a zone unload/reload cycle.
func (m *Manager) stateKey(name string) string {
	return m.zoneFile + "_" + name
}
