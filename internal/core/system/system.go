package system

import "time"

// Phase defines execution ordering within a single tick. The order mirrors
// the world tick sequence: NPC AI decisions first, then object/trap timers,
// then magic sprite flight and collision, then the view/AOI cache rebuild
// that downstream collaborators (rendering, scripting) read from, and
// finally persistence and cleanup of anything marked for destruction
// mid-tick.
type Phase int

const (
	PhaseNpc     Phase = iota // 0: NPC AI decisions, movement, aggro
	PhaseObj                  // 1: object/trap timers, ground-item expiry
	PhaseMagic                // 2: magic sprite flight, collision, damage
	PhaseView                 // 3: view/AOI cache rebuild
	PhasePersist              // 4: dirty-flag-gated snapshot save
	PhaseCleanup              // 5: destroy queued entities
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
