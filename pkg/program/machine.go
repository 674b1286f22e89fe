// Bytecode interpreter for downloaded Jack programs
//
// Executes one statement per poll tick against four registers, a status
// register, a bounded data stack and a separate call frame stack.
// Statements that resolve to registered command keys run through the
// normal dispatcher; everything else decodes as a VM instruction.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package program

import (
	"strings"

	"jack-go-migration/pkg/errors"
)

// Stack depths are fixed integration contracts.
const (
	stackDepth = 32
	frameDepth = 16
)

// SystemBus is the interpreter's window onto the rest of the device:
// system-value reads/writes against the resource model and command
// execution through the dispatcher.
type SystemBus interface {
	// ReadSystem reads a live system value: '#' pin state, '%' timer
	// elapsed ms, '+' counter value, '*' timer active flag, '$' clock.
	ReadSystem(class byte, index int) int32

	// WriteSystem writes a system value; only '#', '+' and '*' are
	// writable, values are range-clamped by the resource model.
	WriteSystem(class byte, index int, value int32)

	// ExecStatement runs a statement that parsed as a registered
	// command key, exactly as a wire message. Returns false when the
	// statement is not a known command.
	ExecStatement(line string) bool

	// IsCommand reports whether a statement resolves to a registered
	// command key (used by the pgm verify action).
	IsCommand(line string) bool
}

// StepResult describes what one tick did.
type StepResult int

const (
	// StepIdle means there was nothing to run (not Running).
	StepIdle StepResult = iota

	// StepRan means one statement executed.
	StepRan

	// StepAsleep means a dly deadline has not passed yet.
	StepAsleep

	// StepEnded means execution ran past the last instruction and the
	// program halted normally.
	StepEnded

	// StepFaulted means a fatal fault halted the program.
	StepFaulted
)

// frame is one call-stack entry: the return address and the caller's
// status register.
type frame struct {
	retPC int
	sr    int32
}

// Machine is the VM execution state. It is reset on program reset and
// on every (re)start.
type Machine struct {
	store *Store
	bus   SystemBus

	regs [4]int32 // ax, bx, cx, dx
	sr   int32
	pc   int

	stack [stackDepth]int32
	sp    int

	frames [frameDepth]frame
	fp     int

	asleep     bool
	sleepUntil int64

	lastFault error
}

// NewMachine builds an interpreter over a store and a system bus.
func NewMachine(store *Store, bus SystemBus) *Machine {
	return &Machine{store: store, bus: bus}
}

// Reset zeroes registers, stacks, the program counter and any pending
// sleep. The last fault is cleared.
func (m *Machine) Reset() {
	m.regs = [4]int32{}
	m.sr = 0
	m.pc = 0
	m.sp = 0
	m.fp = 0
	m.asleep = false
	m.sleepUntil = 0
	m.lastFault = nil
}

// PC returns the current instruction index.
func (m *Machine) PC() int {
	return m.pc
}

// Reg returns register i (0=ax .. 3=dx).
func (m *Machine) Reg(i int) int32 {
	return m.regs[i]
}

// SR returns the status register.
func (m *Machine) SR() int32 {
	return m.sr
}

// LastFault returns the fault that halted the last run, or nil.
func (m *Machine) LastFault() error {
	return m.lastFault
}

// Asleep reports whether a dly deadline is pending at now.
func (m *Machine) Asleep(now int64) bool {
	return m.asleep && now < m.sleepUntil
}

// fault records err, halts the program and returns StepFaulted.
func (m *Machine) fault(err error) StepResult {
	m.lastFault = err
	m.store.SetHalted()
	return StepFaulted
}

// Step executes at most one unit of work at device time now (ms).
func (m *Machine) Step(now int64) StepResult {
	if m.store.State() != Running {
		return StepIdle
	}
	if m.asleep {
		if now < m.sleepUntil {
			return StepAsleep
		}
		m.asleep = false
	}

	if m.pc >= m.store.Len() {
		// Ran past the last instruction without a jump.
		m.store.SetHalted()
		return StepEnded
	}

	stmt := m.store.Statement(m.pc)
	if strings.TrimSpace(stmt) == "" {
		m.pc++
		return StepRan
	}

	// Statements that resolve to command keys run through the
	// dispatcher; commands cannot touch VM registers.
	if m.bus.ExecStatement(stmt) {
		m.pc++
		return StepRan
	}

	ins, err := decode(stmt)
	if err != nil {
		return m.fault(errors.BadInstructionError(stmt, m.pc))
	}
	return m.exec(ins, now)
}

// jump validates a branch target and moves pc there. Statement numbers
// on the wire are 1-based; pc stays 0-based internally.
func (m *Machine) jump(op string, target int32) (StepResult, bool) {
	if target < 1 || int(target) > m.store.Len() {
		return m.fault(errors.JumpRangeError(op, int(target), m.store.Len())), false
	}
	m.pc = int(target) - 1
	return StepRan, true
}

// read resolves an operand's current value.
func (m *Machine) read(op operand) int32 {
	switch op.kind {
	case opRegister:
		return m.regs[op.reg]
	case opSystem:
		return m.bus.ReadSystem(op.class, op.index)
	default:
		return op.value
	}
}

// storeResult implements the shared arithmetic/logic store rule: the
// result lands in sr, and in operand a when a is a register.
func (m *Machine) storeResult(a operand, r int32) {
	m.sr = r
	if a.kind == opRegister {
		m.regs[a.reg] = r
	}
}

// exec runs one decoded instruction.
func (m *Machine) exec(ins instruction, now int64) StepResult {
	a, b := ins.a, ins.b

	switch ins.op {
	case "add":
		m.storeResult(a, m.read(a)+m.read(b))
	case "sub":
		m.storeResult(a, m.read(a)-m.read(b))
	case "mul":
		m.storeResult(a, m.read(a)*m.read(b))
	case "div":
		d := m.read(b)
		if d == 0 {
			return m.fault(errors.DivZeroError("div"))
		}
		m.storeResult(a, m.read(a)/d)
	case "mod":
		d := m.read(b)
		if d == 0 {
			return m.fault(errors.DivZeroError("mod"))
		}
		m.storeResult(a, m.read(a)%d)
	case "inc":
		m.storeResult(a, m.read(a)+1)
	case "dec":
		m.storeResult(a, m.read(a)-1)
	case "neg":
		m.storeResult(a, -m.read(a))
	case "and":
		m.storeResult(a, m.read(a)&m.read(b))
	case "or":
		m.storeResult(a, m.read(a)|m.read(b))
	case "xor":
		m.storeResult(a, m.read(a)^m.read(b))
	case "not":
		m.storeResult(a, ^m.read(a))

	case "cmp":
		m.sr = m.read(a) - m.read(b)

	case "jmp":
		res, _ := m.jump("jmp", m.read(a))
		return res
	case "je", "jz":
		return m.branch(ins.op, a, m.sr == 0)
	case "jne", "jnz":
		return m.branch(ins.op, a, m.sr != 0)
	case "jlt", "js":
		return m.branch(ins.op, a, m.sr < 0)
	case "jgt":
		return m.branch(ins.op, a, m.sr > 0)
	case "jle":
		return m.branch(ins.op, a, m.sr <= 0)
	case "jge", "jns":
		return m.branch(ins.op, a, m.sr >= 0)

	case "loop":
		// dec cx; cmp cx,0; jgt n as one atomic step.
		m.regs[2]--
		m.sr = m.regs[2]
		return m.branch("loop", a, m.regs[2] > 0)

	case "push":
		if m.sp >= stackDepth {
			return m.fault(errors.StackFaultError("push overflow", m.sp))
		}
		m.stack[m.sp] = m.read(a)
		m.sp++
	case "pop":
		if a.kind != opRegister {
			return m.fault(errors.BadInstructionError("pop to non-register", m.pc))
		}
		if m.sp == 0 {
			return m.fault(errors.StackFaultError("pop underflow", m.sp))
		}
		m.sp--
		m.regs[a.reg] = m.stack[m.sp]

	case "mov":
		if a.kind != opRegister {
			return m.fault(errors.BadInstructionError("mov to non-register", m.pc))
		}
		m.regs[a.reg] = m.read(b)

	case "wrr":
		if a.kind != opSystem {
			return m.fault(errors.BadInstructionError("wrr to non-system operand", m.pc))
		}
		switch a.class {
		case '#', '+', '*':
			m.bus.WriteSystem(a.class, a.index, m.read(b))
		default:
			return m.fault(errors.BadInstructionError("wrr to read-only system value", m.pc))
		}

	case "call":
		if m.fp >= frameDepth {
			return m.fault(errors.StackFaultError("call overflow", m.fp))
		}
		target := m.read(a)
		if target < 1 || int(target) > m.store.Len() {
			return m.fault(errors.JumpRangeError("call", int(target), m.store.Len()))
		}
		m.frames[m.fp] = frame{retPC: m.pc + 1, sr: m.sr}
		m.fp++
		m.pc = int(target) - 1
		return StepRan

	case "ret":
		return m.doReturn(nil)
	case "rets":
		v := m.read(a)
		return m.doReturn(&v)

	case "dly":
		m.asleep = true
		m.sleepUntil = now + int64(m.read(a))

	default:
		return m.fault(errors.BadInstructionError(ins.op, m.pc))
	}

	m.pc++
	return StepRan
}

// branch moves pc to the target when taken, otherwise falls through.
func (m *Machine) branch(op string, a operand, taken bool) StepResult {
	if taken {
		res, _ := m.jump(op, m.read(a))
		return res
	}
	m.pc++
	return StepRan
}

// doReturn pops a call frame, optionally pushing a return value onto the
// data stack first so the caller can retrieve it.
func (m *Machine) doReturn(value *int32) StepResult {
	if m.fp == 0 {
		return m.fault(errors.StackFaultError("ret without call", m.fp))
	}
	if value != nil {
		if m.sp >= stackDepth {
			return m.fault(errors.StackFaultError("rets overflow", m.sp))
		}
		m.stack[m.sp] = *value
		m.sp++
	}
	m.fp--
	f := m.frames[m.fp]
	m.pc = f.retPC
	m.sr = f.sr
	return StepRan
}
