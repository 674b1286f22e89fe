// Package conn provides the line-oriented connection adapters a Jack
// device talks through. The core never blocks on a connection: Receive
// returns "" when nothing is pending.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package conn

import (
	"strings"
	"sync"
)

// Connection is the device's transport collaborator.
type Connection interface {
	// Open (re)establishes the transport from a parameter string whose
	// format is adapter-specific. Returns false on failure.
	Open(params string) bool

	// IsOpen reports whether the transport is usable.
	IsOpen() bool

	// Send writes one line. Trailing newlines are added by the adapter.
	Send(line string)

	// Receive returns the next pending line without blocking, or ""
	// when nothing is queued.
	Receive() string

	// Kind names the adapter ("loopback", "serial", "websocket",
	// "stdio").
	Kind() string

	// Params returns the parameter string the transport was opened with.
	Params() string

	// Close tears the transport down.
	Close()
}

// lineQueue is a bounded FIFO of complete lines with partial-line
// assembly for byte-stream transports.
type lineQueue struct {
	mu      sync.Mutex
	lines   []string
	partial strings.Builder
	limit   int
	dropped int
}

func newLineQueue(limit int) *lineQueue {
	if limit <= 0 {
		limit = 256
	}
	return &lineQueue{limit: limit}
}

// pushBytes feeds raw bytes, splitting on \n and discarding \r.
func (q *lineQueue) pushBytes(data []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, b := range data {
		switch b {
		case '\n':
			q.pushLocked(q.partial.String())
			q.partial.Reset()
		case '\r':
		default:
			q.partial.WriteByte(b)
		}
	}
}

// push queues one complete line.
func (q *lineQueue) push(line string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushLocked(line)
}

func (q *lineQueue) pushLocked(line string) {
	if len(q.lines) >= q.limit {
		// Oldest line wins; newest is dropped.
		q.dropped++
		return
	}
	q.lines = append(q.lines, line)
}

// pop removes and returns the next line, or "" when empty.
func (q *lineQueue) pop() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) == 0 {
		return ""
	}
	line := q.lines[0]
	q.lines = q.lines[1:]
	return line
}

// depth returns the pending line count.
func (q *lineQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

// reset drops all buffered state.
func (q *lineQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lines = nil
	q.partial.Reset()
}
