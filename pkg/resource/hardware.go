// Hardware collaborator interfaces and the simulator backend
//
// The core never touches registers: raw pin, ADC, PWM and EEPROM access
// go through the Hardware interface, and time comes from Clock. Real
// builds supply MCU-specific implementations; tests and jackd use the
// simulator.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resource

import (
	"sync"
	"time"
)

// Hardware is the physical I/O surface consumed, not implemented, by the
// core.
type Hardware interface {
	// ReadDigital returns the logic level of a pin (0 or 1).
	ReadDigital(pin int) uint8

	// WriteDigital drives a pin to a logic level.
	WriteDigital(pin int, level uint8)

	// ReadAnalog returns the ADC reading of a pin (0..1023).
	ReadAnalog(pin int) int

	// WritePWM drives a pin with a duty cycle (0..255).
	WritePWM(pin int, duty uint8)

	// EepromRead reads n bytes of persistent storage from offset.
	EepromRead(offset, n int) []byte

	// EepromWrite writes persistent storage at offset.
	EepromWrite(offset int, data []byte)
}

// Clock is the monotonic device clock collaborator.
type Clock interface {
	// NowMillis returns milliseconds since boot.
	NowMillis() int64

	// NowMicros returns microseconds since boot.
	NowMicros() int64
}

// WallClock implements Clock over the host monotonic clock.
type WallClock struct {
	start time.Time
}

// NewWallClock returns a Clock anchored at the current instant.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// NowMillis returns milliseconds since the clock was created.
func (c *WallClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

// NowMicros returns microseconds since the clock was created.
func (c *WallClock) NowMicros() int64 {
	return time.Since(c.start).Microseconds()
}

// SimClock is a manually advanced Clock for the simulator and tests.
type SimClock struct {
	mu     sync.Mutex
	micros int64
}

// NewSimClock returns a SimClock at time zero.
func NewSimClock() *SimClock {
	return &SimClock{}
}

// NowMillis returns the simulated milliseconds.
func (c *SimClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micros / 1000
}

// NowMicros returns the simulated microseconds.
func (c *SimClock) NowMicros() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micros
}

// AdvanceMillis moves the simulated clock forward.
func (c *SimClock) AdvanceMillis(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.micros += ms * 1000
}

// SimHardware is an in-memory Hardware backend. Digital levels, analog
// readings and PWM duties are plain maps a test or the simulator daemon
// can inspect and drive.
type SimHardware struct {
	mu      sync.Mutex
	digital map[int]uint8
	analog  map[int]int
	pwm     map[int]uint8
	eeprom  []byte
}

// NewSimHardware returns a simulator with the given EEPROM size.
func NewSimHardware(eepromSize int) *SimHardware {
	return &SimHardware{
		digital: make(map[int]uint8),
		analog:  make(map[int]int),
		pwm:     make(map[int]uint8),
		eeprom:  make([]byte, eepromSize),
	}
}

// ReadDigital returns the simulated logic level of a pin.
func (s *SimHardware) ReadDigital(pin int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digital[pin]
}

// WriteDigital sets the simulated logic level of a pin.
func (s *SimHardware) WriteDigital(pin int, level uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level != 0 {
		level = 1
	}
	s.digital[pin] = level
}

// ReadAnalog returns the simulated ADC reading of a pin.
func (s *SimHardware) ReadAnalog(pin int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analog[pin]
}

// SetAnalog sets the simulated ADC reading of a pin.
func (s *SimHardware) SetAnalog(pin, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analog[pin] = value
}

// WritePWM records the simulated duty cycle of a pin.
func (s *SimHardware) WritePWM(pin int, duty uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pwm[pin] = duty
}

// PWM returns the last written duty cycle of a pin.
func (s *SimHardware) PWM(pin int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pwm[pin]
}

// EepromRead reads simulated persistent storage. Reads past the end are
// truncated.
func (s *SimHardware) EepromRead(offset, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset >= len(s.eeprom) {
		return nil
	}
	end := offset + n
	if end > len(s.eeprom) {
		end = len(s.eeprom)
	}
	out := make([]byte, end-offset)
	copy(out, s.eeprom[offset:end])
	return out
}

// EepromWrite writes simulated persistent storage. Writes past the end
// are truncated.
func (s *SimHardware) EepromWrite(offset int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset >= len(s.eeprom) {
		return
	}
	copy(s.eeprom[offset:], data)
}
