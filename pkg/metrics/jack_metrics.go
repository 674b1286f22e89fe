// Jack device metric set
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"time"
)

// JackMetrics groups every metric the device and daemon emit.
type JackMetrics struct {
	// Wire traffic
	MessagesReceived *Counter
	MessagesDropped  *Counter
	ChecksumFailures *Counter
	RepliesSent      *Counter

	// Dispatch
	CommandsDispatched *Counter
	DispatchTime       *Histogram

	// Interpreter
	InstructionsExecuted *Counter
	ProgramFaults        *Counter
	ProgramState         *Gauge

	// Resource model
	TimerTriggers *Counter
	PinWrites     *Counter

	// Daemon
	Uptime *Gauge

	registry  *Registry
	startTime time.Time
}

// NewJackMetrics builds and registers the full metric set on a fresh
// registry.
func NewJackMetrics() *JackMetrics {
	jm := &JackMetrics{
		registry:  NewRegistry(),
		startTime: time.Now(),
	}

	jm.MessagesReceived = NewCounter("jack_messages_received_total",
		"Raw lines received from the connection")
	jm.MessagesDropped = NewCounter("jack_messages_dropped_total",
		"Lines dropped: unknown key, arity underflow or parse failure")
	jm.ChecksumFailures = NewCounter("jack_checksum_failures_total",
		"Messages rejected by checksum verification")
	jm.RepliesSent = NewCounter("jack_replies_sent_total",
		"Reply lines sent on the connection")

	jm.CommandsDispatched = NewCounter("jack_commands_dispatched_total",
		"Commands routed to a handler, by key")
	jm.DispatchTime = NewHistogram("jack_dispatch_seconds",
		"Handler execution time", DefaultBuckets())

	jm.InstructionsExecuted = NewCounter("jack_vm_instructions_total",
		"Interpreter statements executed")
	jm.ProgramFaults = NewCounter("jack_vm_faults_total",
		"Fatal interpreter faults, by kind")
	jm.ProgramState = NewGauge("jack_program_state",
		"Program lifecycle state (0 inactive, 1 loading, 2 halted, 3 running)")

	jm.TimerTriggers = NewCounter("jack_timer_triggers_total",
		"Pin edge events fed to attached counter/timers")
	jm.PinWrites = NewCounter("jack_pin_writes_total",
		"Pin writes through commands or the interpreter")

	jm.Uptime = NewGauge("jack_uptime_seconds",
		"Daemon uptime in seconds")

	for _, m := range []Metric{
		jm.MessagesReceived, jm.MessagesDropped, jm.ChecksumFailures,
		jm.RepliesSent, jm.CommandsDispatched, jm.DispatchTime,
		jm.InstructionsExecuted, jm.ProgramFaults, jm.ProgramState,
		jm.TimerTriggers, jm.PinWrites, jm.Uptime,
	} {
		jm.registry.MustRegister(m)
	}
	return jm
}

// Registry exposes the underlying registry.
func (jm *JackMetrics) Registry() *Registry {
	return jm.registry
}

// Gather refreshes derived gauges and renders the exposition text.
func (jm *JackMetrics) Gather() string {
	jm.Uptime.Set(nil, time.Since(jm.startTime).Seconds())
	return jm.registry.Gather()
}
