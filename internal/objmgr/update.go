package objmgr

import "time"

// frameStepMs matches the teacher's object-animation cadence (one frame
// step per 200ms), generalized from the fixed door/box sprite sets to any
// ObjectDef's FrameBegin..FrameEnd window.
const frameStepMs = 200

// Update steps every live object's animation and removal clock, fires timer
// scripts, applies trap damage, and triggers ambient sound — spec.md §4.8.
func (m *Manager) Update(dt time.Duration) {
	ms := int(dt / time.Millisecond)
	if ms <= 0 {
		return
	}

	for _, o := range m.objs {
		if o.IsRemoved {
			continue
		}
		m.stepAnimation(o, ms)
		m.stepRemoval(o, ms)
		if o.IsRemoved {
			continue
		}
		m.stepTimerScript(o, ms)
		m.stepTrap(o)
		m.stepSound(o)
	}
}

// stepAnimation advances FrameIndex one frame per frameStepMs toward
// targetFrame (openBox/closeBox) and holds it there once reached. An
// object whose target was never changed rests at FrameBegin; frames do
// not loop.
func (m *Manager) stepAnimation(o *Obj, ms int) {
	if o.FrameBegin == o.FrameEnd {
		return
	}
	o.frameTimerMs += ms
	for o.frameTimerMs >= frameStepMs {
		o.frameTimerMs -= frameStepMs
		switch {
		case o.FrameIndex < o.targetFrame:
			o.FrameIndex++
		case o.FrameIndex > o.targetFrame:
			o.FrameIndex--
		}
	}
}

// stepRemoval decrements MillisecondsToRemove, marking the object removed
// once it reaches zero. A zero value means "never expires."
func (m *Manager) stepRemoval(o *Obj, ms int) {
	if o.MillisecondsToRemove <= 0 {
		return
	}
	o.elapsedMs += ms
	if o.elapsedMs >= o.MillisecondsToRemove {
		o.IsRemoved = true
		m.removeFromTile(o.ObjID, o.Tile)
	}
}

func (m *Manager) stepTimerScript(o *Obj, ms int) {
	if o.TimerScriptFile == "" || o.TimerScriptInterval <= 0 {
		return
	}
	o.timerElapsedMs += ms
	if o.timerElapsedMs >= o.TimerScriptInterval {
		o.timerElapsedMs -= o.TimerScriptInterval
		m.scr.QueueScript(o.TimerScriptFile)
	}
}

// stepTrap applies Damage to every fighter standing on a Trap object's
// tile on each update in which its animation frame is at FrameBegin, so a
// trap resting at FrameBegin damages every tick.
func (m *Manager) stepTrap(o *Obj) {
	if o.Kind != KindTrap || o.Damage <= 0 || m.damager == nil {
		return
	}
	if o.FrameIndex == o.FrameBegin {
		m.damager.DamageFightersAt(o.Tile, o.Damage)
	}
}

// randSoundChancePerMillion is the teacher's 1-in-200 RandSound roll,
// expressed against the shared 1e6-scale Bernoulli convention used
// elsewhere in this core (drop tables, magic variance).
const randSoundChancePerMillion = 5_000

func (m *Manager) stepSound(o *Obj) {
	if m.sound == nil {
		return
	}
	switch o.Kind {
	case KindLoopingSound:
		m.sound.PlaySound(o.Tile, o.DefKey)
	case KindRandSound:
		if m.rng.Intn(1_000_000) < randSoundChancePerMillion {
			m.sound.PlaySound(o.Tile, o.DefKey)
		}
	}
}
