// Statement decoding: mnemonics and operand resolution
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package program

import (
	"strings"

	"jack-go-migration/pkg/errors"
	"jack-go-migration/pkg/wire"
)

// operandKind classifies a resolved operand.
type operandKind int

const (
	// opNone marks an absent operand.
	opNone operandKind = iota

	// opLiteral is a wrapping-coerced integer literal.
	opLiteral

	// opRegister is ax, bx, cx or dx.
	opRegister

	// opSystem is a live system value: #pin %timer +counter *state $clock.
	opSystem
)

// operand is one decoded instruction operand.
type operand struct {
	kind  operandKind
	value int32 // literal value
	reg   int   // register index (0=ax .. 3=dx)
	class byte  // system value class sigil
	index int   // system value index
}

// instruction is one decoded statement.
type instruction struct {
	op   string
	a, b operand
}

// arity maps each mnemonic to its operand count.
var arity = map[string]int{
	"add": 2, "sub": 2, "mul": 2, "div": 2, "mod": 2,
	"inc": 1, "dec": 1, "neg": 1,
	"and": 2, "or": 2, "xor": 2, "not": 1,
	"cmp": 2,
	"jmp": 1, "je": 1, "jne": 1, "jlt": 1, "jgt": 1, "jle": 1, "jge": 1,
	"jz": 1, "jnz": 1, "js": 1, "jns": 1,
	"loop": 1,
	"push": 1, "pop": 1,
	"mov": 2,
	"wrr": 2,
	"call": 1, "ret": 0, "rets": 1,
	"dly": 1,
}

var registers = map[string]int{"ax": 0, "bx": 1, "cx": 2, "dx": 3}

// systemClasses are the operand sigils that read the resource model.
const systemClasses = "#%+*$"

// IsInstruction reports whether a statement decodes as a VM instruction.
func IsInstruction(stmt string) bool {
	_, err := decode(stmt)
	return err == nil
}

// decode parses one statement into an instruction. The syntax is
// `op [a[,b]]` with whitespace around operands tolerated.
func decode(stmt string) (instruction, error) {
	s := strings.TrimSpace(stmt)
	if s == "" {
		return instruction{}, errors.New(errors.ErrVMBadInstruction, "empty statement")
	}

	var op, rest string
	if idx := strings.IndexAny(s, " \t"); idx >= 0 {
		op, rest = s[:idx], strings.TrimSpace(s[idx+1:])
	} else {
		op = s
	}
	op = strings.ToLower(op)

	want, ok := arity[op]
	if !ok {
		return instruction{}, errors.New(errors.ErrVMBadInstruction, "unknown mnemonic "+op)
	}

	var operands []string
	if rest != "" {
		operands = strings.Split(rest, ",")
		for i := range operands {
			operands[i] = strings.TrimSpace(operands[i])
		}
	}
	if len(operands) < want {
		return instruction{}, errors.New(errors.ErrVMBadInstruction, op+" missing operands")
	}

	ins := instruction{op: op}
	if want >= 1 {
		ins.a = decodeOperand(operands[0])
	}
	if want >= 2 {
		ins.b = decodeOperand(operands[1])
	}
	return ins, nil
}

// decodeOperand resolves one operand token: a register name, a system
// value sigil plus index, or a wrapping integer literal.
func decodeOperand(tok string) operand {
	if idx, ok := registers[strings.ToLower(tok)]; ok {
		return operand{kind: opRegister, reg: idx}
	}
	if len(tok) > 0 && strings.IndexByte(systemClasses, tok[0]) >= 0 {
		return operand{
			kind:  opSystem,
			class: tok[0],
			index: int(wire.CoerceByte(tok[1:])),
		}
	}
	return operand{kind: opLiteral, value: int32(wire.CoerceLong(tok))}
}
