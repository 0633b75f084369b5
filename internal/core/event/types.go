package event

import "github.com/ninesuns/jianghu/internal/core/ecs"

// Cross-tick notification types. These are delivered through Bus, so
// subscribers observe them on the tick after they were emitted — fine for
// "someone nearby died" style awareness, but not for same-tick reentrant
// mutation (see CommandBuffer for that).

// CharacterDied fires once per NPC death, from NpcManager's death handling
// after the death cascade has queued the NPC's death script (the script
// itself runs later, when the queue is drained).
type CharacterDied struct {
	Entity   ecs.EntityID
	Killer   ecs.EntityID
	ZoneFile string
}

// CharacterRespawned fires when NpcManager respawns a dead NPC at (or near)
// its spawn tile.
type CharacterRespawned struct {
	Entity ecs.EntityID
}

// NpcSpawned fires when NpcManager.Spawn brings a new NPC entity into the
// world (a spawn list entry or a snapshot restore). A respawn reuses the
// existing entity and emits CharacterRespawned instead.
type NpcSpawned struct {
	Entity ecs.EntityID
	NpcID  int32
}

// ObjExpired is declared for a timed-out ground item or trap, but nothing
// emits it: ObjManager marks an expired object IsRemoved without an event.
type ObjExpired struct {
	Entity ecs.EntityID
}
