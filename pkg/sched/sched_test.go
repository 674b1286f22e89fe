// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package sched

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int64) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestTickFiresDueTasks(t *testing.T) {
	s := New()
	var fired int
	s.Add(at(0), NewTask("poll", 100*time.Millisecond, func(time.Time) { fired++ }))
	s.Start(at(0))

	if n := s.Tick(at(50)); n != 0 {
		t.Fatalf("fired %d tasks before due", n)
	}
	if n := s.Tick(at(100)); n != 1 {
		t.Fatalf("Tick at due time fired %d, want 1", n)
	}
	if fired != 1 {
		t.Fatalf("command ran %d times, want 1", fired)
	}
}

func TestTickRunsEachTaskAtMostOnce(t *testing.T) {
	s := New()
	var fired int
	s.Add(at(0), NewTask("poll", 10*time.Millisecond, func(time.Time) { fired++ }))
	s.Start(at(0))

	// A very late tick still fires the task a single time.
	if n := s.Tick(at(5000)); n != 1 {
		t.Fatalf("late Tick fired %d, want 1", n)
	}
	if fired != 1 {
		t.Fatalf("command ran %d times, want 1", fired)
	}
}

func TestDriftFreeRearm(t *testing.T) {
	s := New()
	var times []int64
	s.Add(at(0), NewTask("poll", 100*time.Millisecond, func(now time.Time) {
		times = append(times, now.Sub(epoch).Milliseconds())
	}))
	s.Start(at(0))

	// Ticks arrive late; the next deadline measures from the invocation
	// time, not a fixed grid.
	s.Tick(at(130)) // due 100, fires, next due 230
	s.Tick(at(200)) // not due
	s.Tick(at(230)) // fires, next due 330
	s.Tick(at(320)) // not due
	s.Tick(at(340)) // fires

	want := []int64{130, 230, 340}
	if len(times) != len(want) {
		t.Fatalf("fired at %v, want %v", times, want)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("fired at %v, want %v", times, want)
		}
	}
}

func TestStoppedSchedulerTicksToZero(t *testing.T) {
	s := New()
	var fired int
	s.Add(at(0), NewTask("poll", time.Millisecond, func(time.Time) { fired++ }))

	if n := s.Tick(at(1000)); n != 0 {
		t.Fatalf("stopped scheduler fired %d tasks", n)
	}

	s.Start(at(1000))
	s.Tick(at(1001))
	s.Stop()
	if n := s.Tick(at(2000)); n != 0 {
		t.Fatalf("fired %d tasks after Stop", n)
	}
	if fired != 1 {
		t.Fatalf("command ran %d times, want 1", fired)
	}
}

func TestStartRearmsAcrossStoppedGap(t *testing.T) {
	s := New()
	var fired int
	s.Add(at(0), NewTask("poll", 100*time.Millisecond, func(time.Time) { fired++ }))
	s.Start(at(0))
	s.Stop()

	// Long stopped gap, then restart: the interval measures from the
	// restart, so nothing is immediately due.
	s.Start(at(5000))
	if n := s.Tick(at(5050)); n != 0 {
		t.Fatalf("fired %d tasks immediately after restart", n)
	}
	if n := s.Tick(at(5100)); n != 1 {
		t.Fatalf("fired %d tasks one interval after restart, want 1", n)
	}
}

func TestResetZeroesTimers(t *testing.T) {
	s := New()
	var fired int
	s.Add(at(0), NewTask("poll", 100*time.Millisecond, func(time.Time) { fired++ }))
	s.Start(at(0))

	s.Reset(at(90))
	if n := s.Tick(at(100)); n != 0 {
		t.Fatalf("fired %d tasks right after Reset", n)
	}
	if n := s.Tick(at(190)); n != 1 {
		t.Fatalf("fired %d tasks one interval after Reset, want 1", n)
	}
}

func TestDeactivatedTaskSkipped(t *testing.T) {
	s := New()
	var fired int
	task := s.Add(at(0), NewTask("poll", 10*time.Millisecond, func(time.Time) { fired++ }))
	s.Start(at(0))

	task.Deactivate()
	s.Tick(at(100))
	if fired != 0 {
		t.Fatalf("deactivated task ran %d times", fired)
	}

	task.Activate(at(100))
	s.Tick(at(110))
	if fired != 1 {
		t.Fatalf("reactivated task ran %d times, want 1", fired)
	}
}

func TestMultipleTasksIndependentIntervals(t *testing.T) {
	s := New()
	var fast, slow int
	s.Add(at(0), NewTask("fast", 10*time.Millisecond, func(time.Time) { fast++ }))
	s.Add(at(0), NewTask("slow", 50*time.Millisecond, func(time.Time) { slow++ }))
	s.Start(at(0))

	for ms := int64(10); ms <= 100; ms += 10 {
		s.Tick(at(ms))
	}
	if fast != 10 {
		t.Fatalf("fast task ran %d times, want 10", fast)
	}
	if slow != 2 {
		t.Fatalf("slow task ran %d times, want 2", slow)
	}
}

func TestLookup(t *testing.T) {
	s := New()
	task := s.Add(at(0), NewTask("poll", time.Second, func(time.Time) {}))
	if got := s.Lookup("poll"); got != task {
		t.Fatalf("Lookup returned %v", got)
	}
	if got := s.Lookup("missing"); got != nil {
		t.Fatalf("Lookup for missing task returned %v", got)
	}
}
