// Package device assembles a complete Jack device: resource bank,
// command table, program store and interpreter behind one connection.
// All state transitions happen synchronously inside Poll; the embedding
// application drives it from a single loop.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package device

import (
	"jack-go-migration/pkg/command"
	"jack-go-migration/pkg/conn"
	"jack-go-migration/pkg/errors"
	"jack-go-migration/pkg/log"
	"jack-go-migration/pkg/metrics"
	"jack-go-migration/pkg/program"
	"jack-go-migration/pkg/resource"
	"jack-go-migration/pkg/wire"
)

// PollResult describes what one poll did.
type PollResult int

const (
	// PollIdle means no traffic and no program work.
	PollIdle PollResult = iota

	// PollRan means work happened without any reply being sent.
	PollRan

	// PollReplied means at least one reply line was sent.
	PollReplied

	// PollFaulted means the interpreter hit a fatal fault this poll.
	PollFaulted
)

// Device is the explicitly owned context threaded through every
// operation. No package-level mutable state.
type Device struct {
	bank       *resource.Bank
	store      *program.Store
	vm         *program.Machine
	registry   *command.Registry
	dispatcher *command.Dispatcher
	conn       conn.Connection

	ack     bool
	metrics *metrics.JackMetrics
	logger  *log.Logger
}

// New assembles a device over a resource bank and connection. Built-in
// commands are registered immediately; user commands may be appended
// through RegisterCommand before the first poll.
func New(bank *resource.Bank, c conn.Connection, jm *metrics.JackMetrics) *Device {
	d := &Device{
		bank:     bank,
		store:    program.NewStore(),
		registry: command.NewRegistry(),
		conn:     c,
		metrics:  jm,
		logger:   log.Default().Sub("device"),
	}
	d.vm = program.NewMachine(d.store, d)
	d.dispatcher = command.NewDispatcher(d.registry, func() bool { return d.ack })
	d.registerBuiltins()
	return d
}

// Bank exposes the resource model, for embedding applications that feed
// pin edges or preload state.
func (d *Device) Bank() *resource.Bank {
	return d.bank
}

// PinEdge feeds one level transition into the resource model, gating
// any attached counter/timers. Treated as atomic between polls.
func (d *Device) PinEdge(pin int, level uint8) {
	d.bank.PinEdge(pin, level)
	d.metrics.TimerTriggers.Inc(nil)
}

// Store exposes the program store.
func (d *Device) Store() *program.Store {
	return d.store
}

// AckEnabled reports the device-wide acknowledgment flag.
func (d *Device) AckEnabled() bool {
	return d.ack
}

// RegisterCommand appends a user command. Duplicate keys fail.
func (d *Device) RegisterCommand(desc *command.Descriptor) error {
	return d.registry.Register(desc)
}

// Poll performs one cooperative tick: receive and process at most one
// line, then advance the interpreter by at most one statement.
func (d *Device) Poll() PollResult {
	result := PollIdle

	if line := d.conn.Receive(); line != "" {
		d.metrics.MessagesReceived.Inc(nil)
		if d.process(line) {
			result = PollReplied
		} else if result == PollIdle {
			result = PollRan
		}
	}

	switch d.vm.Step(d.bank.Clock().NowMillis()) {
	case program.StepRan:
		d.metrics.InstructionsExecuted.Inc(nil)
		if result == PollIdle {
			result = PollRan
		}
	case program.StepFaulted:
		fault := d.vm.LastFault()
		d.logger.Warn("program fault at pc=%d: %v", d.vm.PC(), fault)
		d.metrics.ProgramFaults.Inc(metrics.Labels{"kind": faultKind(fault)})
		result = PollFaulted
	}

	d.metrics.ProgramState.Set(nil, float64(d.store.State()))
	return result
}

// process parses and dispatches one inbound line, returning whether a
// reply was sent. During Loading every non-pgm line is captured into
// the program text, minus any verified checksum suffix: the suffix is
// transport framing, not part of the statement.
func (d *Device) process(line string) bool {
	msg, err := wire.Parse(line)

	if d.store.State() == program.Loading {
		if err == nil && msg.Key == "pgm" {
			return d.dispatch(msg)
		}
		if errors.Is(err, errors.ErrWireChecksum) {
			d.metrics.ChecksumFailures.Inc(nil)
			return false
		}
		if aerr := d.store.Append(wire.StripChecksum(line)); aerr != nil {
			d.logger.Warn("program load aborted: %v", aerr)
			d.metrics.MessagesDropped.Inc(nil)
		}
		return false
	}

	if err != nil {
		if errors.Is(err, errors.ErrWireChecksum) {
			d.metrics.ChecksumFailures.Inc(nil)
		} else {
			d.metrics.MessagesDropped.Inc(nil)
		}
		return false
	}
	return d.dispatch(msg)
}

// dispatch routes a parsed message and sends any reply lines.
func (d *Device) dispatch(msg wire.Message) bool {
	if d.registry.Lookup(msg.Key) == nil {
		d.metrics.MessagesDropped.Inc(nil)
		return false
	}

	stop := d.metrics.DispatchTime.Timer(nil)
	reply := d.dispatcher.Dispatch(msg)
	stop()
	d.metrics.CommandsDispatched.Inc(metrics.Labels{"key": msg.Key})

	if reply == nil || len(reply.Lines) == 0 {
		return false
	}
	for _, l := range reply.Lines {
		d.conn.Send(l)
	}
	d.metrics.RepliesSent.Add(nil, uint64(len(reply.Lines)))
	return true
}

// reset restores power-on state: pin modes, timers, program, ack flag.
// Connection settings survive, matching a soft device reset.
func (d *Device) reset() {
	d.bank.ResetRuntime()
	d.store = program.NewStore()
	d.vm = program.NewMachine(d.store, d)
	d.ack = false
}

// ReadSystem resolves a system value operand for the interpreter.
func (d *Device) ReadSystem(class byte, index int) int32 {
	switch class {
	case '#':
		return int32(d.bank.ReadPin(index))
	case '%', '+':
		return int32(d.bank.Value(index))
	case '*':
		if d.bank.TimerInfo(index).Active {
			return 1
		}
		return 0
	case '$':
		return int32(d.bank.Clock().NowMillis())
	default:
		return 0
	}
}

// WriteSystem applies an interpreter wrr to a writable system value.
func (d *Device) WriteSystem(class byte, index int, value int32) {
	switch class {
	case '#':
		d.bank.WritePin(index, int64(value))
		d.metrics.PinWrites.Inc(nil)
	case '+':
		d.bank.SetPreset(index, int64(value))
	case '*':
		d.bank.SetTimerActive(index, int64(value))
	}
}

// ExecStatement runs a program statement that is a registered command,
// exactly as if it arrived on the wire.
func (d *Device) ExecStatement(line string) bool {
	msg, err := wire.Parse(line)
	if err != nil || d.registry.Lookup(msg.Key) == nil {
		return false
	}
	d.dispatch(msg)
	return true
}

// IsCommand reports whether a statement resolves to a registered key.
func (d *Device) IsCommand(line string) bool {
	msg, err := wire.Parse(line)
	return err == nil && d.registry.Lookup(msg.Key) != nil
}

// faultKind extracts the error code label for the fault metric.
func faultKind(err error) string {
	if je, ok := err.(*errors.JackError); ok {
		return string(je.Code)
	}
	return "unknown"
}
