package npcmgr

import (
	"context"

	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/snapshot"
)

// toSaveItem flattens a live NPC into its persisted shape (spec.md §5's
// SnapshotStore row), dropping anything reconstructible from the
// CharacterDef on load (sprite sheet, AI config) and anything that only
// matters mid-flight (FollowTarget's weak ref, frame-animation timers).
func toSaveItem(c *character.Character) snapshot.NpcSaveItem {
	n := c.Npc
	item := snapshot.NpcSaveItem{
		DefKey: n.DefKey,
		TileX:  c.Tile.X,
		TileY:  c.Tile.Y,
		Dir8:   int(c.Dir8),
		State:  int(c.State),

		Life: c.Stats.Life, LifeMax: c.Stats.LifeMax,
		Mana: c.Stats.Mana, ManaMax: c.Stats.ManaMax,
		Thew:    c.Stats.Thew,
		Attack1: c.Stats.Attack1, Attack2: c.Stats.Attack2, Attack3: c.Stats.Attack3,
		Defend1: c.Stats.Defend1, Defend2: c.Stats.Defend2, Defend3: c.Stats.Defend3,
		Evade: c.Stats.Evade, WalkSpeed: c.Stats.WalkSpeed,
		Level: c.Stats.Level, Exp: c.Stats.Exp,

		PoisonSeconds:    c.Status.PoisonSeconds,
		PetrifiedSeconds: c.Status.PetrifiedSeconds,
		FrozenSeconds:    c.Status.FrozenSeconds,
		PoisonedBy:       c.Status.PoisonedBy,

		IsLoopWalk:  n.IsLoopWalk,
		PathIndex:   n.PathIndex,
		IsPartner:   false,
		ReviveTimer: n.ReviveTimer,
	}
	return item
}

// partnerFile is the fixed npcGroups key partner saves live under —
// unlike the rest of the roster, a partner follows the player across
// zone changes rather than being keyed by the zone it was saved in
// (spec §4.9/§6.4).
const partnerFile = "partner"

// saveNpcGroupFiltered snapshots every non-player NPC this manager owns
// whose def.IsPartner matches partnersOnly into repo under zoneFile.
// saveNpcGroup and SavePartner are the same operation with the filter
// flipped (spec §4.9: "savePartner/loadPartner are the same with
// partnersOnly=true").
func (m *Manager) saveNpcGroupFiltered(ctx context.Context, repo snapshot.Repository, zoneFile string, partnersOnly bool) error {
	var items []snapshot.NpcSaveItem
	for _, c := range m.npcs {
		if c.Npc == nil || c.Kind == character.KindPlayer {
			continue
		}
		def, ok := m.defOf(c)
		isPartner := ok && def.IsPartner
		if isPartner != partnersOnly {
			continue
		}
		item := toSaveItem(c)
		item.IsPartner = isPartner
		items = append(items, item)
	}
	return repo.SaveNpcGroup(ctx, zoneFile, items)
}

// saveNpcGroup snapshots every non-partner, non-player NPC this manager
// owns into repo under zoneFile.
func (m *Manager) saveNpcGroup(ctx context.Context, repo snapshot.Repository, zoneFile string) error {
	return m.saveNpcGroupFiltered(ctx, repo, zoneFile, false)
}

// SavePartner snapshots this manager's partner NPCs into repo under the
// fixed partner key, independent of the current zone file (spec §4.9/
// §6.4's `savePartner(name)`).
func (m *Manager) SavePartner(ctx context.Context, repo snapshot.Repository) error {
	return m.saveNpcGroupFiltered(ctx, repo, partnerFile, true)
}

// LoadPartner restores the player's partner NPCs into this manager's
// current zone (spec §4.9/§6.4's `loadPartner(name)`), spawning them the
// same way loadNpcGroup does.
func (m *Manager) LoadPartner(ctx context.Context, repo snapshot.Repository) error {
	return m.loadNpcGroup(ctx, repo, partnerFile)
}

// loadNpcGroup restores a zone's NPCs from repo, spawning a fresh
// Character per saved item via its CharacterDef and then overlaying the
// persisted runtime fields (position, life, status effects).
func (m *Manager) loadNpcGroup(ctx context.Context, repo snapshot.Repository, zoneFile string) error {
	items, ok, err := repo.LoadNpcGroup(ctx, zoneFile)
	if err != nil || !ok {
		return err
	}
	for _, item := range items {
		def, ok := m.registry.CharacterDef(item.DefKey)
		if !ok {
			continue
		}
		tile := geom.Tile{X: item.TileX, Y: item.TileY}
		c := m.Spawn(def, tile)
		c.Dir8 = geom.Direction8(item.Dir8)
		c.State = character.State(item.State)
		c.Stats = character.Stats{
			Life: item.Life, LifeMax: item.LifeMax,
			Mana: item.Mana, ManaMax: item.ManaMax,
			Thew:    item.Thew,
			Attack1: item.Attack1, Attack2: item.Attack2, Attack3: item.Attack3,
			Defend1: item.Defend1, Defend2: item.Defend2, Defend3: item.Defend3,
			Evade: item.Evade, WalkSpeed: item.WalkSpeed,
			Level: item.Level, Exp: item.Exp,
		}
		c.Status = character.StatusEffects{
			PoisonSeconds: item.PoisonSeconds, PetrifiedSeconds: item.PetrifiedSeconds,
			FrozenSeconds: item.FrozenSeconds, PoisonedBy: item.PoisonedBy,
		}
		// Spawn already derived FixedPath/IsLoopWalk from def.FixedPath;
		// only PathIndex (progress along that route) is runtime state.
		c.Npc.PathIndex = item.PathIndex
		c.Npc.ReviveTimer = item.ReviveTimer
		c.ResolveAssets()
	}
	return nil
}

// SaveZone persists the current NPC roster under this manager's zone file.
func (m *Manager) SaveZone(ctx context.Context, repo snapshot.Repository) error {
	return m.saveNpcGroup(ctx, repo, m.zoneFile)
}

// LoadZone restores the NPC roster for this manager's zone file.
func (m *Manager) LoadZone(ctx context.Context, repo snapshot.Repository) error {
	return m.loadNpcGroup(ctx, repo, m.zoneFile)
}
