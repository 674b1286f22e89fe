// Typed GPIO pin model for Jack devices
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resource

// PinKind describes the hardware capabilities of a pin.
type PinKind uint8

const (
	// DigitalOnly pins read and write logic levels only.
	DigitalOnly PinKind = iota

	// AnalogInDigitalOut pins read through the ADC and write logic levels.
	AnalogInDigitalOut

	// DigitalInPwmOut pins read logic levels and write PWM duty cycles.
	DigitalInPwmOut
)

// String returns the kind name.
func (k PinKind) String() string {
	switch k {
	case DigitalOnly:
		return "digital"
	case AnalogInDigitalOut:
		return "analog-in"
	case DigitalInPwmOut:
		return "pwm-out"
	default:
		return "unknown"
	}
}

// PinMode is the currently configured direction/driver of a pin.
type PinMode uint8

const (
	// Input reads the pin without a pullup.
	Input PinMode = iota

	// Output drives the pin as a logic level.
	Output

	// InputPullup reads the pin with the internal pullup enabled.
	InputPullup

	// PwmOut drives the pin with a PWM duty cycle.
	PwmOut
)

// String returns the mode name.
func (m PinMode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	case InputPullup:
		return "input-pullup"
	case PwmOut:
		return "pwm"
	default:
		return "unknown"
	}
}

// PinModeFromByte maps a wire byte onto a PinMode, wrapping out-of-range
// values onto Input per the permissive protocol contract.
func PinModeFromByte(b int64) PinMode {
	if b < 0 || b > int64(PwmOut) {
		return Input
	}
	return PinMode(b)
}

// Pin is one GPIO pin. Pins are never created or destroyed after the bank
// is built; only Mode changes at runtime.
type Pin struct {
	// Index is the pin number (0..N-1).
	Index int

	// Kind is the fixed hardware capability class.
	Kind PinKind

	// InterruptCapable reports whether a counter/timer may attach here.
	InterruptCapable bool

	// Mode is the current direction/driver configuration.
	Mode PinMode
}

// CanPWM reports whether the pin can drive a PWM duty cycle.
func (p Pin) CanPWM() bool {
	return p.Kind == DigitalInPwmOut
}

// CanAnalog reports whether the pin can be read through the ADC.
func (p Pin) CanAnalog() bool {
	return p.Kind == AnalogInDigitalOut
}
