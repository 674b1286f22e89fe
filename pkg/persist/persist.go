// Persisted configuration codec for Jack devices
//
// Serializes the resource model and connection settings to a fixed,
// versioned byte layout suitable for EEPROM storage:
//
//	[magic u32][pinCount u8][mode u8 x pinCount]
//	[{pin u8, kind u8, trigger u8, operation u8} x 16]
//	[connKind u8][{len u8, bytes[24]} x 3]
//
// All multi-byte fields are little-endian. The magic id is validated
// before any other field is touched, so a mismatched or truncated buffer
// can never partially overwrite live state.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package persist

import (
	"encoding/binary"

	"jack-go-migration/pkg/errors"
	"jack-go-migration/pkg/log"
	"jack-go-migration/pkg/resource"
)

// Magic is the layout id and version ("JCK" + 0x01).
const Magic uint32 = 0x4A434B01

// paramSize is the fixed storage per connection parameter string.
const paramSize = 24

// TimerConfig is the persisted shape of one counter/timer slot.
// Runtime state (active flag, value) is deliberately not stored.
type TimerConfig struct {
	Pin       uint8
	Kind      resource.TimerKind
	Trigger   resource.Trigger
	Operation resource.Operation
}

// Snapshot is a value-type capture of the persistable device state.
type Snapshot struct {
	PinModes []resource.PinMode
	Timers   [resource.MaxTimers]TimerConfig
	Settings resource.Settings
}

// Size returns the encoded byte size for a device with pinCount pins.
func Size(pinCount int) int {
	return 4 + 1 + pinCount + resource.MaxTimers*4 + 1 + 3*(1+paramSize)
}

// Capture builds a Snapshot from the live resource model.
func Capture(bank *resource.Bank) Snapshot {
	snap := Snapshot{
		PinModes: bank.Modes(),
		Settings: bank.Settings(),
	}
	for i := 0; i < resource.MaxTimers; i++ {
		if i >= bank.TimerCount() {
			snap.Timers[i] = TimerConfig{Pin: resource.ManualPin}
			continue
		}
		ct := bank.TimerInfo(i)
		snap.Timers[i] = TimerConfig{
			Pin:       uint8(ct.Pin),
			Kind:      ct.Kind,
			Trigger:   ct.Trigger,
			Operation: ct.Operation,
		}
	}
	return snap
}

// Apply restores a Snapshot into the live resource model. Timer
// configs the current profile rejects are skipped, their slot stays
// detached.
func Apply(snap Snapshot, bank *resource.Bank) {
	logger := log.Default().Sub("persist")
	for i, m := range snap.PinModes {
		if i >= bank.PinCount() {
			break
		}
		bank.SetMode(i, m)
	}
	bank.DetachAll()
	for i := 0; i < bank.TimerCount(); i++ {
		tc := snap.Timers[i]
		if tc.Pin == resource.ManualPin && tc.Kind == resource.Counter &&
			tc.Trigger == resource.ActiveLow && tc.Operation == resource.Immediate {
			// zero-value slot, nothing was attached
			continue
		}
		if err := bank.Attach(i, int(tc.Pin), tc.Kind, tc.Trigger, tc.Operation); err != nil {
			logger.Debug("timer slot %d not restored: %v", i, err)
		}
	}
	bank.SetSettings(snap.Settings)
}

// Store encodes a Snapshot into the fixed layout.
func Store(snap Snapshot) []byte {
	out := make([]byte, 0, Size(len(snap.PinModes)))

	var magic [4]byte
	binary.LittleEndian.PutUint32(magic[:], Magic)
	out = append(out, magic[:]...)

	out = append(out, uint8(len(snap.PinModes)))
	for _, m := range snap.PinModes {
		out = append(out, uint8(m))
	}

	for _, tc := range snap.Timers {
		out = append(out, tc.Pin, uint8(tc.Kind), uint8(tc.Trigger), uint8(tc.Operation))
	}

	out = append(out, uint8(snap.Settings.Kind))
	for _, p := range snap.Settings.Params {
		if len(p) > paramSize {
			p = p[:paramSize]
		}
		out = append(out, uint8(len(p)))
		var field [paramSize]byte
		copy(field[:], p)
		out = append(out, field[:]...)
	}
	return out
}

// Load decodes the fixed layout. The magic id is checked first; on
// mismatch the caller's state is untouched and a CONFIG_VERSION error is
// returned.
func Load(data []byte) (Snapshot, error) {
	var snap Snapshot

	if len(data) < 4 {
		return snap, errors.ConfigTruncatedError(4, len(data))
	}
	magic := binary.LittleEndian.Uint32(data[:4])
	if magic != Magic {
		return snap, errors.ConfigVersionError(Magic, magic)
	}
	data = data[4:]

	if len(data) < 1 {
		return snap, errors.ConfigTruncatedError(1, len(data))
	}
	pinCount := int(data[0])
	data = data[1:]

	need := pinCount + resource.MaxTimers*4 + 1 + 3*(1+paramSize)
	if len(data) < need {
		return snap, errors.ConfigTruncatedError(need, len(data))
	}

	snap.PinModes = make([]resource.PinMode, pinCount)
	for i := 0; i < pinCount; i++ {
		snap.PinModes[i] = resource.PinMode(data[i])
	}
	data = data[pinCount:]

	for i := 0; i < resource.MaxTimers; i++ {
		snap.Timers[i] = TimerConfig{
			Pin:       data[0],
			Kind:      resource.TimerKind(data[1]),
			Trigger:   resource.Trigger(data[2]),
			Operation: resource.Operation(data[3]),
		}
		data = data[4:]
	}

	snap.Settings.Kind = resource.ConnKind(data[0])
	data = data[1:]
	for i := 0; i < 3; i++ {
		n := int(data[0])
		if n > paramSize {
			n = paramSize
		}
		snap.Settings.Params[i] = string(data[1 : 1+n])
		data = data[1+paramSize:]
	}
	return snap, nil
}
