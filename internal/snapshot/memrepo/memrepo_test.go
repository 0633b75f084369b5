package memrepo

import (
	"context"
	"testing"

	"github.com/ninesuns/jianghu/internal/snapshot"
)

func TestSaveLoadNpcGroupRoundTrips(t *testing.T) {
	r := New()
	ctx := context.Background()
	items := []snapshot.NpcSaveItem{
		{DefKey: "wolf", TileX: 5, TileY: 5, Life: 40, LifeMax: 100},
		{DefKey: "bandit", TileX: 6, TileY: 5, Life: 100, LifeMax: 100},
	}

	if err := r.SaveNpcGroup(ctx, "town.npc", items); err != nil {
		t.Fatalf("SaveNpcGroup: %v", err)
	}

	got, ok, err := r.LoadNpcGroup(ctx, "town.npc")
	if err != nil {
		t.Fatalf("LoadNpcGroup: %v", err)
	}
	if !ok {
		t.Fatal("expected group to be found")
	}
	if len(got) != 2 || got[0].DefKey != "wolf" || got[1].Life != 100 {
		t.Errorf("got %+v", got)
	}
}

func TestLoadNpcGroupMissingReturnsFalse(t *testing.T) {
	r := New()
	_, ok, err := r.LoadNpcGroup(context.Background(), "nowhere.npc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for a zone never saved")
	}
}

func TestSaveObjGroupIsIndependentOfNpcGroup(t *testing.T) {
	r := New()
	ctx := context.Background()
	zoneFile := "town.npc"
	npcItems := []snapshot.NpcSaveItem{{DefKey: "wolf"}}
	objItems := []snapshot.ObjSaveItem{{ObjID: 1, DefKey: "box", IsRemoved: false}}

	if err := r.SaveNpcGroup(ctx, zoneFile, npcItems); err != nil {
		t.Fatalf("SaveNpcGroup: %v", err)
	}
	if err := r.SaveObjGroup(ctx, zoneFile, objItems); err != nil {
		t.Fatalf("SaveObjGroup: %v", err)
	}

	gotNpc, _, _ := r.LoadNpcGroup(ctx, zoneFile)
	gotObj, _, _ := r.LoadObjGroup(ctx, zoneFile)
	if len(gotNpc) != 1 || len(gotObj) != 1 {
		t.Fatalf("expected independent groups under the same zone key, got npc=%+v obj=%+v", gotNpc, gotObj)
	}
}

func TestClearAllWipesBothGroups(t *testing.T) {
	r := New()
	ctx := context.Background()
	r.SaveNpcGroup(ctx, "town.npc", []snapshot.NpcSaveItem{{DefKey: "wolf"}})
	r.SaveObjGroup(ctx, "town.npc", []snapshot.ObjSaveItem{{ObjID: 1}})

	if err := r.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	if _, ok, _ := r.LoadNpcGroup(ctx, "town.npc"); ok {
		t.Error("expected npc group to be cleared")
	}
	if _, ok, _ := r.LoadObjGroup(ctx, "town.npc"); ok {
		t.Error("expected obj group to be cleared")
	}
}

func TestSavedSliceIsCopiedNotAliased(t *testing.T) {
	r := New()
	ctx := context.Background()
	items := []snapshot.NpcSaveItem{{DefKey: "wolf"}}
	r.SaveNpcGroup(ctx, "town.npc", items)

	items[0].DefKey = "mutated"

	got, _, _ := r.LoadNpcGroup(ctx, "town.npc")
	if got[0].DefKey != "wolf" {
		t.Errorf("repository should own a copy of saved items, got %q", got[0].DefKey)
	}
}
