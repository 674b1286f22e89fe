// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package conn

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Stdio bridges the device to standard input/output, one line per
// message. Useful for piping a simulated device into other tools.
type Stdio struct {
	mu     sync.Mutex
	open   bool
	in     *lineQueue
	reader io.Reader
	writer io.Writer
	once   sync.Once
}

// NewStdio returns a closed stdio adapter over os.Stdin/os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{in: newLineQueue(0), reader: os.Stdin, writer: os.Stdout}
}

func (s *Stdio) Open(params string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.once.Do(func() {
		go s.readLoop()
	})
	return true
}

func (s *Stdio) readLoop() {
	scanner := bufio.NewScanner(s.reader)
	for scanner.Scan() {
		s.in.push(scanner.Text())
	}
}

func (s *Stdio) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Stdio) Send(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	fmt.Fprintln(s.writer, line)
}

func (s *Stdio) Receive() string {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return ""
	}
	return s.in.pop()
}

func (s *Stdio) Kind() string { return "stdio" }

func (s *Stdio) Params() string { return "" }

func (s *Stdio) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}
