// Bank: the owned, synchronized resource model of one Jack device
//
// The dispatcher and the program interpreter share this state from a
// single logical thread of control; the mutex exists so that
// interrupt-style updates (PinEdge) stay atomic snapshots with respect
// to command and VM reads.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resource

import (
	"sync"

	"jack-go-migration/pkg/errors"
)

// Bank owns every pin and counter/timer slot of a device.
type Bank struct {
	mu       sync.Mutex
	profile  Profile
	pins     []Pin
	timers   [MaxTimers]CounterTimer
	settings Settings
	hw       Hardware
	clock    Clock

	// last observed level per pin, for edge bookkeeping on manual writes
	levels map[int]uint8
}

// NewBank builds the resource model for a profile over the given
// hardware and clock collaborators.
func NewBank(profile Profile, hw Hardware, clock Clock) *Bank {
	b := &Bank{
		profile:  profile,
		pins:     make([]Pin, profile.PinCount()),
		settings: DefaultSettings(),
		hw:       hw,
		clock:    clock,
		levels:   make(map[int]uint8),
	}
	for i := range b.pins {
		b.pins[i] = Pin{
			Index:            i,
			Kind:             profile.PinKinds[i],
			InterruptCapable: profile.interruptCapable(i),
			Mode:             Input,
		}
	}
	for i := range b.timers {
		b.timers[i] = CounterTimer{Index: i, Pin: ManualPin}
	}
	return b
}

// Profile returns the fixed device description.
func (b *Bank) Profile() Profile {
	return b.profile
}

// Settings returns the active connection settings.
func (b *Bank) Settings() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// SetSettings replaces the active connection settings.
func (b *Bank) SetSettings(s Settings) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = s
}

// PinCount returns the device pin count.
func (b *Bank) PinCount() int {
	return len(b.pins)
}

// TimerCount returns the usable counter/timer slot count.
func (b *Bank) TimerCount() int {
	return b.profile.TimerCount()
}

// ValidPin reports whether pin names a real pin. Out-of-range numeric
// input is the caller's cue to drop the message silently.
func (b *Bank) ValidPin(pin int) bool {
	return pin >= 0 && pin < len(b.pins)
}

// ValidTimer reports whether slot names a usable counter/timer.
func (b *Bank) ValidTimer(slot int) bool {
	return slot >= 0 && slot < b.TimerCount()
}

// wrapPin reduces any wire pin number onto a valid index.
func (b *Bank) wrapPin(pin int) int {
	n := len(b.pins)
	return ((pin % n) + n) % n
}

// wrapTimer reduces any wire timer number onto a valid slot.
func (b *Bank) wrapTimer(slot int) int {
	n := b.TimerCount()
	if n == 0 {
		return 0
	}
	return ((slot % n) + n) % n
}

// PinInfo returns an atomic snapshot of one pin.
func (b *Bank) PinInfo(pin int) Pin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[b.wrapPin(pin)]
}

// SetMode reconfigures one pin. Mode transitions are unconditional
// overwrites; capability mismatches (PwmOut on a non-PWM pin) are
// accepted by the model and left to the hardware layer.
func (b *Bank) SetMode(pin int, mode PinMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins[b.wrapPin(pin)].Mode = mode
}

// SetModeAll reconfigures every pin.
func (b *Bank) SetModeAll(mode PinMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.pins {
		b.pins[i].Mode = mode
	}
}

// Mode returns the configured mode of one pin.
func (b *Bank) Mode(pin int) PinMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[b.wrapPin(pin)].Mode
}

// Modes returns the configured mode of every pin in index order.
func (b *Bank) Modes() []PinMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PinMode, len(b.pins))
	for i, p := range b.pins {
		out[i] = p.Mode
	}
	return out
}

// ReadPin reads one pin: the ADC for analog-capable pins configured as
// inputs, the logic level otherwise.
func (b *Bank) ReadPin(pin int) int64 {
	b.mu.Lock()
	p := b.pins[b.wrapPin(pin)]
	b.mu.Unlock()

	if p.CanAnalog() && (p.Mode == Input || p.Mode == InputPullup) {
		return int64(b.hw.ReadAnalog(p.Index))
	}
	return int64(b.hw.ReadDigital(p.Index))
}

// ReadAll reads every pin in index order.
func (b *Bank) ReadAll() []int64 {
	out := make([]int64, len(b.pins))
	for i := range b.pins {
		out[i] = b.ReadPin(i)
	}
	return out
}

// WritePin drives one pin: a PWM duty cycle when the pin is in PwmOut
// mode (clamped to 0..255), a logic level otherwise.
func (b *Bank) WritePin(pin int, value int64) {
	b.mu.Lock()
	p := b.pins[b.wrapPin(pin)]
	b.mu.Unlock()

	if p.Mode == PwmOut {
		b.hw.WritePWM(p.Index, clampDuty(value))
		return
	}
	var level uint8
	if value != 0 {
		level = 1
	}
	b.hw.WriteDigital(p.Index, level)
	b.PinEdge(p.Index, level)
}

func clampDuty(v int64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Attach binds a counter/timer slot to a pin, or to manual control when
// pin is ManualPin. The pin must be interrupt-capable and not owned by
// another slot.
func (b *Bank) Attach(slot, pin int, kind TimerKind, trigger Trigger, operation Operation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.NowMillis()
	ct := &b.timers[b.wrapTimer(slot)]

	if pin != ManualPin {
		pin = b.wrapPin(pin)
		if !b.pins[pin].InterruptCapable {
			return errors.RuntimeError("pin is not interrupt-capable").
				SetContext("pin", pin)
		}
		for i := range b.timers {
			if i != ct.Index && b.timers[i].Pin == pin {
				return errors.RuntimeError("pin already owned by another counter/timer").
					SetContext("pin", pin)
			}
		}
	}

	*ct = CounterTimer{
		Index:     ct.Index,
		Pin:       pin,
		Kind:      kind,
		Trigger:   trigger,
		Operation: operation,
	}
	if operation == Immediate {
		ct.activate(now)
	}
	return nil
}

// Detach unbinds a slot, resetting its value and clearing its active
// flag. Detach always succeeds.
func (b *Bank) Detach(slot int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.wrapTimer(slot)
	b.timers[idx] = CounterTimer{Index: idx, Pin: ManualPin}
}

// DetachAll unbinds every slot.
func (b *Bank) DetachAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.timers {
		b.timers[i] = CounterTimer{Index: i, Pin: ManualPin}
	}
}

// Control applies a stop/start/resume/reset action to one slot.
func (b *Bank) Control(slot, action int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timers[b.wrapTimer(slot)].control(action, b.clock.NowMillis())
}

// ControlAll applies a stop/start/resume/reset action to every slot.
func (b *Bank) ControlAll(action int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.NowMillis()
	for i := range b.timers {
		b.timers[i].control(action, now)
	}
}

// TimerInfo returns an atomic snapshot of one slot, with its value
// materialized as of now.
func (b *Bank) TimerInfo(slot int) CounterTimer {
	b.mu.Lock()
	defer b.mu.Unlock()
	ct := b.timers[b.wrapTimer(slot)]
	ct.value = ct.elapsed(b.clock.NowMillis())
	return ct
}

// Value returns the current count or elapsed milliseconds of one slot.
func (b *Bank) Value(slot int) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timers[b.wrapTimer(slot)].elapsed(b.clock.NowMillis())
}

// Values returns the current value of every usable slot.
func (b *Bank) Values() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.NowMillis()
	out := make([]int64, b.TimerCount())
	for i := range out {
		out[i] = int64(b.timers[i].elapsed(now))
	}
	return out
}

// SetPreset overwrites the stored value of one slot (the wrr
// counter-preset target). Negative values clamp to zero.
func (b *Bank) SetPreset(slot int, value int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if value < 0 {
		value = 0
	}
	ct := &b.timers[b.wrapTimer(slot)]
	ct.value = uint32(value)
	if ct.Active {
		ct.startedAt = b.clock.NowMillis()
	}
}

// SetTimerActive overwrites the active flag of one slot (the wrr
// timer-state target); any nonzero value activates.
func (b *Bank) SetTimerActive(slot int, value int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.NowMillis()
	ct := &b.timers[b.wrapTimer(slot)]
	if value != 0 && !ct.Active {
		ct.activate(now)
	} else if value == 0 && ct.Active {
		ct.deactivate(now)
	}
}

// PinEdge reports a level transition on a pin. Attached counter/timers
// whose trigger matches are gated and counted. Updates are atomic with
// respect to command and VM reads.
func (b *Bank) PinEdge(pin int, level uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if level != 0 {
		level = 1
	}
	pin = b.wrapPin(pin)
	old := b.levels[pin]
	b.levels[pin] = level
	if old == level {
		return
	}

	now := b.clock.NowMillis()
	for i := range b.timers {
		ct := &b.timers[i]
		if ct.Pin != pin {
			continue
		}
		if ct.Trigger.Matches(old, level) {
			ct.gate(now)
		}
	}
}

// ResetRuntime restores every pin to Input and detaches every slot,
// keeping connection settings. Used by the rst command.
func (b *Bank) ResetRuntime() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.pins {
		b.pins[i].Mode = Input
	}
	for i := range b.timers {
		b.timers[i] = CounterTimer{Index: i, Pin: ManualPin}
	}
}

// Hardware returns the hardware collaborator (for lda/sto EEPROM access).
func (b *Bank) Hardware() Hardware {
	return b.hw
}

// Clock returns the device clock collaborator.
func (b *Bank) Clock() Clock {
	return b.clock
}
