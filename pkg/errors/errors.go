// Unified error handling for Jack Go migration
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Wire protocol errors
	ErrWireParse    ErrorCode = "WIRE_PARSE"
	ErrWireChecksum ErrorCode = "WIRE_CHECKSUM"

	// Command registry errors
	ErrCmdDuplicateKey ErrorCode = "CMD_DUPLICATE_KEY"
	ErrCmdUnknown      ErrorCode = "CMD_UNKNOWN"

	// Persisted configuration errors
	ErrConfigVersion   ErrorCode = "CONFIG_VERSION"
	ErrConfigTruncated ErrorCode = "CONFIG_TRUNCATED"

	// Program store errors
	ErrProgramTooLarge ErrorCode = "PROGRAM_TOO_LARGE"
	ErrProgramState    ErrorCode = "PROGRAM_STATE"

	// VM faults (fatal to the running program, never to the device)
	ErrVMStackFault     ErrorCode = "VM_STACK_FAULT"
	ErrVMJumpRange      ErrorCode = "VM_JUMP_RANGE"
	ErrVMDivZero        ErrorCode = "VM_DIV_ZERO"
	ErrVMBadInstruction ErrorCode = "VM_BAD_INSTRUCTION"

	// Connection errors
	ErrConnClosed ErrorCode = "CONN_CLOSED"
	ErrConnParams ErrorCode = "CONN_PARAMS"

	// Runtime errors
	ErrRuntime     ErrorCode = "RUNTIME"
	ErrRuntimeInit ErrorCode = "RUNTIME_INIT"
)

// JackError is the unified error type for the Jack core
type JackError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Key is the command key or instruction mnemonic involved
	Key string

	// Line is the program line or instruction index involved
	Line int

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *JackError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Key, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *JackError) Unwrap() error {
	return e.Err
}

// SetKey sets the command key or mnemonic
func (e *JackError) SetKey(key string) *JackError {
	e.Key = key
	return e
}

// SetLine sets the program line number
func (e *JackError) SetLine(line int) *JackError {
	e.Line = line
	return e
}

// SetContext adds additional context
func (e *JackError) SetContext(key string, value interface{}) *JackError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new JackError
func New(code ErrorCode, message string) *JackError {
	return &JackError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *JackError {
	return &JackError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wire errors

// ParseError creates an error for a malformed wire message
func ParseError(line string, reason string) *JackError {
	return New(ErrWireParse, fmt.Sprintf("failed to parse message %q: %s", line, reason))
}

// ChecksumError creates an error for a checksum mismatch
func ChecksumError(want, got byte) *JackError {
	return New(ErrWireChecksum, fmt.Sprintf("checksum mismatch: computed %d, message carried %d", want, got))
}

// Command errors

// DuplicateKeyError creates an error for a duplicate command registration
func DuplicateKeyError(key string) *JackError {
	return New(ErrCmdDuplicateKey, fmt.Sprintf("command key '%s' already registered", key)).
		SetKey(key)
}

// Config errors

// ConfigVersionError creates an error for a persisted-config magic mismatch
func ConfigVersionError(want, got uint32) *JackError {
	return New(ErrConfigVersion, fmt.Sprintf("config magic mismatch: want %#08x, got %#08x", want, got))
}

// ConfigTruncatedError creates an error for a short persisted-config buffer
func ConfigTruncatedError(need, have int) *JackError {
	return New(ErrConfigTruncated, fmt.Sprintf("config buffer truncated: need %d bytes, have %d", need, have))
}

// Program errors

// ProgramTooLargeError creates an error for a program text overflow during load
func ProgramTooLargeError(limit int) *JackError {
	return New(ErrProgramTooLarge, fmt.Sprintf("program text exceeds %d characters", limit))
}

// ProgramStateError creates an error for an action invalid in the current state
func ProgramStateError(action int, state string) *JackError {
	return New(ErrProgramState, fmt.Sprintf("program action %d invalid in state %s", action, state))
}

// VM faults

// StackFaultError creates an error for a VM stack overflow or underflow
func StackFaultError(op string, sp int) *JackError {
	return New(ErrVMStackFault, fmt.Sprintf("%s with stack pointer %d", op, sp)).
		SetKey(op)
}

// JumpRangeError creates an error for a branch target outside the program
func JumpRangeError(op string, target, size int) *JackError {
	return New(ErrVMJumpRange, fmt.Sprintf("%s target %d outside program of %d statements", op, target, size)).
		SetKey(op)
}

// DivZeroError creates an error for integer division by zero
func DivZeroError(op string) *JackError {
	return New(ErrVMDivZero, fmt.Sprintf("%s by zero", op)).
		SetKey(op)
}

// BadInstructionError creates an error for an undecodable program statement
func BadInstructionError(stmt string, pc int) *JackError {
	return New(ErrVMBadInstruction, fmt.Sprintf("statement %q is neither an instruction nor a command", stmt)).
		SetLine(pc)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *JackError {
	return New(ErrRuntime, message)
}

// RuntimeErrorInit creates an error for initialization failure
func RuntimeErrorInit(component string, reason string) *JackError {
	return New(ErrRuntimeInit, fmt.Sprintf("failed to initialize %s: %s", component, reason))
}

// RecoverPanic safely recovers from panic and converts to error
func RecoverPanic() *JackError {
	if r := recover(); r != nil {
		var err error
		switch x := r.(type) {
		case string:
			err = RuntimeError(fmt.Sprintf("panic: %s", x))
		case error:
			err = RuntimeError(x.Error())
		case runtime.Error:
			err = RuntimeError(x.Error())
		default:
			err = RuntimeError(fmt.Sprintf("panic: %v", x))
		}
		return err.(*JackError)
	}
	return nil
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if jackErr, ok := err.(*JackError); ok {
		return jackErr.Code == code
	}
	return false
}

// IsWire checks if error is a wire protocol error
func IsWire(err error) bool {
	return Is(err, ErrWireParse) || Is(err, ErrWireChecksum)
}

// IsFault checks if error is a fatal-to-program VM fault
func IsFault(err error) bool {
	return Is(err, ErrVMStackFault) ||
		Is(err, ErrVMJumpRange) ||
		Is(err, ErrVMDivZero) ||
		Is(err, ErrVMBadInstruction)
}

// IsConfig checks if error is a persisted-config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigVersion) || Is(err, ErrConfigTruncated)
}
