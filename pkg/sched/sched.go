// Package sched provides the cooperative interval scheduler driving the
// Jack poll loop. Tasks run synchronously inside Tick; there is no
// preemption, so handlers and the interpreter may share state freely.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package sched

import (
	"context"
	"sync"
	"time"
)

// Command is the work a task performs, invoked at most once per tick.
type Command func(now time.Time)

// Task is one scheduled unit: a command fired every Interval while the
// task is active. Re-arming is drift-free from the invocation time, not
// a wall-clock grid.
type Task struct {
	mu       sync.Mutex
	name     string
	interval time.Duration
	command  Command
	active   bool
	nextDue  time.Time
}

// NewTask builds an inactive task.
func NewTask(name string, interval time.Duration, command Command) *Task {
	return &Task{name: name, interval: interval, command: command}
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// Interval returns the firing interval.
func (t *Task) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// SetInterval changes the firing interval. The next due time is re-armed
// from now.
func (t *Task) SetInterval(now time.Time, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = d
	t.nextDue = now.Add(d)
}

// Active reports whether the task is eligible to fire.
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Activate arms the task from now.
func (t *Task) Activate(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.nextDue = now.Add(t.interval)
}

// Deactivate parks the task without touching its interval.
func (t *Task) Deactivate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

// fire runs the command when due, re-arming from the invocation time.
// Returns whether the command ran.
func (t *Task) fire(now time.Time) bool {
	t.mu.Lock()
	if !t.active || now.Before(t.nextDue) {
		t.mu.Unlock()
		return false
	}
	t.nextDue = now.Add(t.interval)
	cmd := t.command
	t.mu.Unlock()

	cmd(now)
	return true
}

// rearm resets the due time from now without firing.
func (t *Task) rearm(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextDue = now.Add(t.interval)
}

// Scheduler owns a fixed set of tasks and a running flag. Tick is the
// only place task commands execute.
type Scheduler struct {
	mu      sync.Mutex
	tasks   []*Task
	running bool
}

// New returns a stopped scheduler with no tasks.
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a task and activates it from now.
func (s *Scheduler) Add(now time.Time, task *Task) *Task {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	task.Activate(now)
	return task
}

// Lookup returns the task with the given name, or nil.
func (s *Scheduler) Lookup(name string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.name == name {
			return t
		}
	}
	return nil
}

// Start sets the scheduler-wide running flag and re-arms every task so
// intervals measure from the restart, not across the stopped gap.
func (s *Scheduler) Start(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	for _, t := range s.tasks {
		t.rearm(now)
	}
}

// Stop clears the running flag. Tasks keep their state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Running reports the scheduler-wide flag.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reset re-arms every task's timer from now.
func (s *Scheduler) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t.rearm(now)
	}
}

// Tick fires each due active task at most once and returns how many ran.
// A stopped scheduler ticks to zero.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return 0
	}
	tasks := make([]*Task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	fired := 0
	for _, t := range tasks {
		if t.fire(now) {
			fired++
		}
	}
	return fired
}

// Run drives Tick on a real-time cadence until the context is cancelled.
// resolution bounds how late a task can fire.
func (s *Scheduler) Run(ctx context.Context, resolution time.Duration) {
	if resolution <= 0 {
		resolution = time.Millisecond
	}
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}
