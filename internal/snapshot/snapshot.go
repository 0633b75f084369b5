// Package snapshot implements the save/restore boundary for NPC and object
// groups (spec.md §4.9/§6.5): flat, zone-keyed record types plus a storage
// collaborator interface the core consumes without knowing whether it is
// backed by memory or Postgres. Grounded on the teacher's
// internal/persist/character_repo.go (per-entity row save/load,
// context-timeout pattern) and internal/persist/db.go (pool construction),
// generalized from per-character inventory rows to per-zone NPC/Obj groups.
package snapshot

import "context"

// NpcSaveItem is every mutable runtime field NpcManager.saveNpc needs to
// reconstruct an NPC identically (spec §4.9): position, facing, state,
// stats, status effects, fixed-path string and progress, level, the
// partner flag, and the revive clock.
type NpcSaveItem struct {
	DefKey string
	TileX, TileY int
	Dir8   int
	State  int

	Life, LifeMax int
	Mana, ManaMax int
	Thew                      int
	Attack1, Attack2, Attack3 int
	Defend1, Defend2, Defend3 int
	Evade, WalkSpeed, Level   int
	Exp int64

	PoisonSeconds    int
	PetrifiedSeconds int
	FrozenSeconds    int
	PoisonedBy       string

	FixedPathHex string
	IsLoopWalk   bool
	PathIndex    int

	IsPartner   bool
	ReviveTimer int
}

// ObjSaveItem is every mutable runtime field ObjManager.saveObj needs
// (spec §4.9). Items are grouped under their zone file by Repository; the
// zone file is not stored in the item itself.
type ObjSaveItem struct {
	ObjID      int
	DefKey     string
	TileX, TileY int
	ScriptFile string
	IsRemoved  bool
	CurrentFrameIndex int
}

// Repository is the persistence collaborator the core depends on
// (spec.md §6.3, realized per SPEC_FULL.md §5). Implementations must
// treat a zone file name as the sole partition key; ClearAll drops
// everything, used by tests and by a fresh-world bootstrap.
type Repository interface {
	SaveNpcGroup(ctx context.Context, zoneFile string, items []NpcSaveItem) error
	LoadNpcGroup(ctx context.Context, zoneFile string) ([]NpcSaveItem, bool, error)
	SaveObjGroup(ctx context.Context, zoneFile string, items []ObjSaveItem) error
	LoadObjGroup(ctx context.Context, zoneFile string) ([]ObjSaveItem, bool, error)
	ClearAll(ctx context.Context) error
}
