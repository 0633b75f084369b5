package objmgr

import (
	"context"
	"strconv"

	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/snapshot"
)

// toSaveItem flattens a live object into its persisted shape. Only the
// fields a reload cannot rederive from the ObjectDef survive: position,
// script override, removal state and animation progress.
func toSaveItem(o *Obj) snapshot.ObjSaveItem {
	return snapshot.ObjSaveItem{
		ObjID:             o.ObjID,
		DefKey:            o.DefKey,
		TileX:             o.Tile.X,
		TileY:             o.Tile.Y,
		ScriptFile:        o.ScriptFile,
		IsRemoved:         o.IsRemoved,
		CurrentFrameIndex: o.FrameIndex,
	}
}

// saveObjGroup snapshots every object this manager owns into repo under
// zoneFile.
func (m *Manager) saveObjGroup(ctx context.Context, repo snapshot.Repository, zoneFile string) error {
	items := make([]snapshot.ObjSaveItem, 0, len(m.objs))
	for _, o := range m.objs {
		items = append(items, toSaveItem(o))
	}
	return repo.SaveObjGroup(ctx, zoneFile, items)
}

// loadObjGroup restores a zone's objects from repo. It requires the same
// ObjectDef keys to already be loaded in the registry and reapplies them
// through AddObjByFile so classify(), saved-state overlay and spatial
// indexing all run exactly as they would for a freshly authored object.
func (m *Manager) loadObjGroup(ctx context.Context, repo snapshot.Repository, zoneFile string) error {
	items, ok, err := repo.LoadObjGroup(ctx, zoneFile)
	if err != nil || !ok {
		return err
	}
	for _, item := range items {
		name := addressingName(item.ObjID)
		o, added := m.AddObjByFile(name, item.DefKey, geom.Tile{X: item.TileX, Y: item.TileY}, 0)
		if !added {
			continue
		}
		o.ScriptFile = item.ScriptFile
		o.IsRemoved = item.IsRemoved
		o.FrameIndex = item.CurrentFrameIndex
		o.targetFrame = item.CurrentFrameIndex
		if o.IsRemoved {
			m.removeFromTile(o.ObjID, o.Tile)
		}
	}
	return nil
}

// addressingName synthesizes a stable name for objects restored from the
// formal Repository path, which persists by ObjID rather than by the
// author-assigned name used at authoring time.
func addressingName(objID int) string { return "obj_" + strconv.Itoa(objID) }

// SaveZone persists the current object roster under this manager's zone.
func (m *Manager) SaveZone(ctx context.Context, repo snapshot.Repository) error {
	return m.saveObjGroup(ctx, repo, m.zoneFile)
}

// LoadZone restores the object roster for this manager's zone.
func (m *Manager) LoadZone(ctx context.Context, repo snapshot.Repository) error {
	return m.loadObjGroup(ctx, repo, m.zoneFile)
}
