// Counter/timer model for Jack devices
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resource

// ManualPin is the attachment sentinel meaning "no hardware pin": the
// counter/timer is controlled only by start/stop/resume/reset commands.
const ManualPin = 255

// MaxTimers is the fixed counter/timer slot count of the resource model.
const MaxTimers = 16

// TimerKind selects what a counter/timer slot measures.
type TimerKind uint8

const (
	// Counter counts qualifying trigger edges.
	Counter TimerKind = iota

	// Timer accumulates elapsed milliseconds while active.
	Timer
)

// String returns the kind name.
func (k TimerKind) String() string {
	if k == Counter {
		return "counter"
	}
	return "timer"
}

// Trigger is the pin condition that gates a counter/timer.
type Trigger uint8

const (
	// ActiveLow triggers while the pin reads low.
	ActiveLow Trigger = iota

	// Change triggers on any level change.
	Change

	// Rising triggers on a low-to-high edge.
	Rising

	// Falling triggers on a high-to-low edge.
	Falling

	// ActiveHigh triggers while the pin reads high.
	ActiveHigh
)

// Matches reports whether a transition from old to new level qualifies.
func (t Trigger) Matches(oldLevel, newLevel uint8) bool {
	switch t {
	case ActiveLow:
		return newLevel == 0
	case Change:
		return oldLevel != newLevel
	case Rising:
		return oldLevel == 0 && newLevel != 0
	case Falling:
		return oldLevel != 0 && newLevel == 0
	case ActiveHigh:
		return newLevel != 0
	default:
		return false
	}
}

// Operation selects how trigger events gate the slot's active flag.
type Operation uint8

const (
	// Immediate slots are active from attach; the next trigger stops them.
	Immediate Operation = iota

	// OneShot slots idle until a trigger starts them; a second trigger
	// stops them and they do not restart.
	OneShot

	// Continuous slots toggle between active and idle on every trigger.
	Continuous
)

// Control actions accepted by the stm/sta commands.
const (
	ActionStop = iota
	ActionStart
	ActionResume
	ActionReset
)

// CounterTimer is one counter/timer slot. The zero value is a detached,
// inactive counter.
type CounterTimer struct {
	// Index is the slot number (0..MaxTimers-1).
	Index int

	// Pin is the attached pin index, or ManualPin when manual/detached.
	Pin int

	// Kind selects counting edges vs timing milliseconds.
	Kind TimerKind

	// Trigger is the qualifying pin condition.
	Trigger Trigger

	// Operation is the gating behavior for trigger events.
	Operation Operation

	// Active reports whether the slot is currently counting/timing.
	Active bool

	// value is the count, or the accumulated active milliseconds.
	value uint32

	// startedAt is the clock millisecond of the last activation.
	startedAt int64

	// fired marks a OneShot that has consumed its start trigger.
	fired bool
}

// attached reports whether the slot is bound to a hardware pin.
func (ct *CounterTimer) attached() bool {
	return ct.Pin != ManualPin
}

// elapsed returns the current value as of now: the edge count for
// counters, accumulated active milliseconds for timers.
func (ct *CounterTimer) elapsed(now int64) uint32 {
	if ct.Kind == Timer && ct.Active {
		return ct.value + uint32(now-ct.startedAt)
	}
	return ct.value
}

// gate applies one qualifying trigger event to the active flag per the
// configured operation, then counts the event if the slot is counting.
func (ct *CounterTimer) gate(now int64) {
	switch ct.Operation {
	case Immediate:
		if ct.Active {
			ct.deactivate(now)
		}
	case OneShot:
		if !ct.fired {
			ct.fired = true
			ct.activate(now)
		} else if ct.Active {
			ct.deactivate(now)
		}
	case Continuous:
		if ct.Active {
			ct.deactivate(now)
		} else {
			ct.activate(now)
		}
	}
	if ct.Kind == Counter && ct.Active {
		ct.value++
	}
}

func (ct *CounterTimer) activate(now int64) {
	ct.Active = true
	ct.startedAt = now
}

func (ct *CounterTimer) deactivate(now int64) {
	if ct.Kind == Timer {
		ct.value += uint32(now - ct.startedAt)
	}
	ct.Active = false
}

// control applies a manual stop/start/resume/reset action.
func (ct *CounterTimer) control(action int, now int64) {
	switch action {
	case ActionStop:
		if ct.Active {
			ct.deactivate(now)
		}
	case ActionStart:
		ct.value = 0
		ct.activate(now)
	case ActionResume:
		if !ct.Active {
			ct.activate(now)
		}
	case ActionReset:
		ct.value = 0
		if ct.Active {
			ct.startedAt = now
		}
	}
}
