// Package memrepo is the in-process reference implementation of
// snapshot.Repository: a map keyed by zone file name, matching
// spec.md §3's SnapshotStore shape exactly. It is the default
// repository for tests and for a single-player session that doesn't
// need a real database.
package memrepo

import (
	"context"
	"sync"

	"github.com/ninesuns/jianghu/internal/snapshot"
)

// Repository is a concurrency-safe in-memory snapshot.Repository. The lock
// is defensive only — the simulation is single-threaded per spec.md §5 —
// but a save/load pair may legitimately be called from an async task
// callback outside the tick goroutine (spec.md §5 suspension points).
type Repository struct {
	mu   sync.Mutex
	npcs map[string][]snapshot.NpcSaveItem
	objs map[string][]snapshot.ObjSaveItem
}

// New constructs an empty in-memory repository.
func New() *Repository {
	return &Repository{
		npcs: make(map[string][]snapshot.NpcSaveItem),
		objs: make(map[string][]snapshot.ObjSaveItem),
	}
}

func (r *Repository) SaveNpcGroup(_ context.Context, zoneFile string, items []snapshot.NpcSaveItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]snapshot.NpcSaveItem, len(items))
	copy(cp, items)
	r.npcs[zoneFile] = cp
	return nil
}

func (r *Repository) LoadNpcGroup(_ context.Context, zoneFile string) ([]snapshot.NpcSaveItem, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.npcs[zoneFile]
	return items, ok, nil
}

func (r *Repository) SaveObjGroup(_ context.Context, zoneFile string, items []snapshot.ObjSaveItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]snapshot.ObjSaveItem, len(items))
	copy(cp, items)
	r.objs[zoneFile] = cp
	return nil
}

func (r *Repository) LoadObjGroup(_ context.Context, zoneFile string) ([]snapshot.ObjSaveItem, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.objs[zoneFile]
	return items, ok, nil
}

func (r *Repository) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.npcs = make(map[string][]snapshot.NpcSaveItem)
	r.objs = make(map[string][]snapshot.ObjSaveItem)
	return nil
}

var _ snapshot.Repository = (*Repository)(nil)
