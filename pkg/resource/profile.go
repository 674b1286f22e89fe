// Device profiles: fixed hardware descriptions of supported boards
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resource

// Profile describes the fixed hardware of a device: identity, pin
// capability map, and which pins carry external interrupts.
type Profile struct {
	// ID is the numeric device identifier reported by inf.
	ID int

	// Name is the device family name reported by inf.
	Name string

	// MCU is the microcontroller name reported by inf.
	MCU string

	// SpeedMHz is the core clock in MHz reported by inf.
	SpeedMHz int

	// PinKinds lists the capability class of every pin, in index order.
	PinKinds []PinKind

	// InterruptPins lists the pins a counter/timer may attach to.
	InterruptPins []int
}

// PinCount returns the number of pins on the device.
func (p Profile) PinCount() int {
	return len(p.PinKinds)
}

// TimerCount returns the usable counter/timer slots, bounded by the
// interrupt-capable pin count and the fixed slot array.
func (p Profile) TimerCount() int {
	n := len(p.InterruptPins)
	if n > MaxTimers {
		return MaxTimers
	}
	return n
}

// interruptCapable reports whether pin carries an external interrupt.
func (p Profile) interruptCapable(pin int) bool {
	for _, ip := range p.InterruptPins {
		if ip == pin {
			return true
		}
	}
	return false
}

// UnoProfile describes an ATmega328P board: 14 digital pins (PWM on
// 3,5,6,9,10,11) followed by 6 analog inputs, interrupts on pins 2 and 3.
func UnoProfile() Profile {
	kinds := make([]PinKind, 20)
	for _, p := range []int{3, 5, 6, 9, 10, 11} {
		kinds[p] = DigitalInPwmOut
	}
	for p := 14; p < 20; p++ {
		kinds[p] = AnalogInDigitalOut
	}
	return Profile{
		ID:            1,
		Name:          "jack-uno",
		MCU:           "atmega328p",
		SpeedMHz:      16,
		PinKinds:      kinds,
		InterruptPins: []int{2, 3},
	}
}

// MegaProfile describes an ATmega2560 board: 54 digital pins (PWM on
// 2..13 and 44..46) followed by 16 analog inputs, interrupts on pins
// 2, 3, 18, 19, 20 and 21.
func MegaProfile() Profile {
	kinds := make([]PinKind, 70)
	for p := 2; p <= 13; p++ {
		kinds[p] = DigitalInPwmOut
	}
	for p := 44; p <= 46; p++ {
		kinds[p] = DigitalInPwmOut
	}
	for p := 54; p < 70; p++ {
		kinds[p] = AnalogInDigitalOut
	}
	return Profile{
		ID:            2,
		Name:          "jack-mega",
		MCU:           "atmega2560",
		SpeedMHz:      16,
		PinKinds:      kinds,
		InterruptPins: []int{2, 3, 18, 19, 20, 21},
	}
}

// SimProfile describes the simulator: 32 general-purpose pins where every
// pin reads analog, drives PWM and accepts interrupts. Pin 31 is capped to
// keep the timer count within the slot array.
func SimProfile() Profile {
	kinds := make([]PinKind, 32)
	interrupts := make([]int, 0, MaxTimers)
	for p := range kinds {
		if p%2 == 0 {
			kinds[p] = DigitalInPwmOut
		} else {
			kinds[p] = AnalogInDigitalOut
		}
		if len(interrupts) < MaxTimers {
			interrupts = append(interrupts, p)
		}
	}
	return Profile{
		ID:            99,
		Name:          "jack-sim",
		MCU:           "simulated",
		SpeedMHz:      1000,
		PinKinds:      kinds,
		InterruptPins: interrupts,
	}
}
