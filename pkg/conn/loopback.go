// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package conn

import "sync"

// Loopback is an in-memory connection. Tests and the embedding
// application inject inbound lines and collect what the device sends.
type Loopback struct {
	mu     sync.Mutex
	open   bool
	params string
	in     *lineQueue
	out    []string
}

// NewLoopback returns an open loopback connection.
func NewLoopback() *Loopback {
	return &Loopback{open: true, in: newLineQueue(0)}
}

func (l *Loopback) Open(params string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = true
	l.params = params
	return true
}

func (l *Loopback) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

func (l *Loopback) Send(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return
	}
	l.out = append(l.out, line)
}

func (l *Loopback) Receive() string {
	l.mu.Lock()
	open := l.open
	l.mu.Unlock()
	if !open {
		return ""
	}
	return l.in.pop()
}

func (l *Loopback) Kind() string { return "loopback" }

func (l *Loopback) Params() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

func (l *Loopback) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = false
	l.in.reset()
}

// Inject queues one inbound line for the device to receive.
func (l *Loopback) Inject(line string) {
	l.in.push(line)
}

// Sent drains and returns every line the device has sent so far.
func (l *Loopback) Sent() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	l.out = nil
	return out
}
