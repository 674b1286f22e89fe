// Command registry and dispatcher for the Jack wire protocol
//
// Maps command keys to typed handlers, enforces arity, coerces arguments
// and applies the device acknowledgment policy. Built-ins are registered
// at device construction; user commands are appended before first use
// and never removed.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package command

import (
	"sort"
	"sync"

	"jack-go-migration/pkg/errors"
	"jack-go-migration/pkg/wire"
)

// Invocation carries one dispatched message to its handler with typed
// accessors over the coerced arguments.
type Invocation struct {
	// Msg is the parsed wire message.
	Msg wire.Message

	// Desc is the matched descriptor.
	Desc *Descriptor
}

// arg returns the raw argument i ("" when absent).
func (inv *Invocation) arg(i int) string {
	return inv.Msg.Arg(i)
}

// Byte returns argument i coerced as an unsigned 8-bit value.
func (inv *Invocation) Byte(i int) int64 {
	return wire.CoerceByte(inv.arg(i))
}

// Int returns argument i coerced as a signed 16-bit value.
func (inv *Invocation) Int(i int) int64 {
	return wire.CoerceInt(inv.arg(i))
}

// Long returns argument i coerced as a signed 32-bit value.
func (inv *Invocation) Long(i int) int64 {
	return wire.CoerceLong(inv.arg(i))
}

// Float returns argument i coerced as a float.
func (inv *Invocation) Float(i int) float64 {
	return wire.CoerceFloat(inv.arg(i))
}

// Str returns argument i verbatim.
func (inv *Invocation) Str(i int) string {
	return inv.arg(i)
}

// List returns argument i coerced as a '.'-separated numeric list.
func (inv *Invocation) List(i int) []int64 {
	return wire.CoerceList(inv.arg(i))
}

// Reply is a handler's response. A nil Reply means "no reply"; the
// dispatcher may still synthesize an ack depending on the device flag.
type Reply struct {
	// Lines holds one or more complete wire lines, in send order.
	Lines []string
}

// ReplyLine builds a single-line reply in canonical syntax.
func ReplyLine(key string, args ...string) *Reply {
	return &Reply{Lines: []string{wire.Format(key, args...)}}
}

// ReplyRaw builds a reply from pre-formatted lines (hlp, pgm listing).
func ReplyRaw(lines ...string) *Reply {
	return &Reply{Lines: lines}
}

// Handler executes one command invocation.
type Handler func(inv *Invocation) *Reply

// Descriptor declares a command: its key, minimum arity, declared
// argument types and handler.
type Descriptor struct {
	// Key is the unique, case-sensitive command key.
	Key string

	// MinArgs is the minimum argument count; shorter messages are
	// dropped. Extra arguments beyond ArgTypes are ignored.
	MinArgs int

	// ArgTypes declares the type of each positional argument.
	ArgTypes []wire.ArgType

	// Handler executes the command.
	Handler Handler
}

// Registry is the flat command table.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]*Descriptor
}

// NewRegistry returns an empty command table.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Descriptor)}
}

// Register appends a descriptor. Registering an existing key fails with
// CMD_DUPLICATE_KEY; commands are never replaced or removed.
func (r *Registry) Register(desc *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cmds[desc.Key]; ok {
		return errors.DuplicateKeyError(desc.Key)
	}
	r.cmds[desc.Key] = desc
	return nil
}

// MustRegister registers a built-in descriptor and panics on a duplicate
// key, which is a programming error at device construction.
func (r *Registry) MustRegister(desc *Descriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for key, or nil.
func (r *Registry) Lookup(key string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cmds[key]
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.cmds))
	for k := range r.cmds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dispatcher routes parsed messages to handlers.
type Dispatcher struct {
	registry *Registry

	// ackEnabled reports the device-wide acknowledgment flag; the
	// Device owns the flag, the dispatcher only consults it.
	ackEnabled func() bool
}

// NewDispatcher builds a dispatcher over a registry. ackEnabled may be
// nil, meaning acknowledgment mode is never on.
func NewDispatcher(registry *Registry, ackEnabled func() bool) *Dispatcher {
	return &Dispatcher{registry: registry, ackEnabled: ackEnabled}
}

// Dispatch resolves and invokes the handler for msg. Unknown keys and
// arity underflows drop the message silently, returning nil, even under
// acknowledgment mode. When acknowledgment is on and the handler
// produced no reply, an ack line is synthesized.
func (d *Dispatcher) Dispatch(msg wire.Message) *Reply {
	desc := d.registry.Lookup(msg.Key)
	if desc == nil {
		return nil
	}
	if len(msg.Args) < desc.MinArgs {
		return nil
	}

	reply := desc.Handler(&Invocation{Msg: msg, Desc: desc})
	if reply == nil && d.ackEnabled != nil && d.ackEnabled() {
		return ReplyLine("ack")
	}
	return reply
}
