// Program store: one downloadable program as bounded text lines
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package program

import (
	"strings"
	"sync"

	"jack-go-migration/pkg/errors"
)

// MaxText is the program text bound in characters, newline separators
// included.
const MaxText = 1024

// State is the program lifecycle state.
type State int

const (
	// Inactive means no program has ever been loaded.
	Inactive State = iota

	// Loading means incoming lines are appended verbatim to the text.
	Loading

	// Halted means a program is present but not executing.
	Halted

	// Running means the interpreter advances one statement per tick.
	Running
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Loading:
		return "loading"
	case Halted:
		return "halted"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Actions of the pgm command.
const (
	ActionEnd    = 0
	ActionBegin  = 1
	ActionRun    = 2
	ActionHalt   = 3
	ActionReset  = 4
	ActionSize   = 5
	ActionStatus = 6
	ActionVerify = 7
	ActionList   = 8
)

// Store holds the single loaded program. Text is a newline-delimited
// sequence of raw statements, bounded at MaxText characters.
type Store struct {
	mu    sync.Mutex
	text  strings.Builder
	lines []string
	state State
}

// NewStore returns an empty, Inactive store.
func NewStore() *Store {
	return &Store{state: Inactive}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin enters Loading, clearing any previous text. It is ignored with
// an error while Running.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return errors.ProgramStateError(ActionBegin, s.state.String())
	}
	s.text.Reset()
	s.lines = nil
	s.state = Loading
	return nil
}

// Append adds one raw line to the text during Loading. Exceeding MaxText
// is fatal to the load: the text is cleared and the store returns to
// Halted.
func (s *Store) Append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		return errors.ProgramStateError(-1, s.state.String())
	}
	if s.text.Len()+len(line)+1 > MaxText {
		s.text.Reset()
		s.lines = nil
		s.state = Halted
		return errors.ProgramTooLargeError(MaxText)
	}
	s.text.WriteString(line)
	s.text.WriteByte('\n')
	return nil
}

// End leaves Loading, freezing the statement list.
func (s *Store) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		return errors.ProgramStateError(ActionEnd, s.state.String())
	}
	text := s.text.String()
	s.lines = nil
	if text != "" {
		s.lines = strings.Split(strings.TrimRight(text, "\n"), "\n")
	}
	s.state = Halted
	return nil
}

// SetRunning marks the program executing. Only valid from Halted.
func (s *Store) SetRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Halted {
		return false
	}
	s.state = Running
	return true
}

// SetHalted stops execution. Valid from Running or Halted.
func (s *Store) SetHalted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running && s.state != Halted {
		return false
	}
	s.state = Halted
	return true
}

// Size returns the exact character count of the loaded text.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.Len()
}

// Len returns the statement count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Statement returns the raw statement at index, or "" out of range.
func (s *Store) Statement(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return s.lines[i]
}

// Lines returns a copy of every statement, for the pgm list action.
func (s *Store) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
