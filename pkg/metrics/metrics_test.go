// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterPerLabelSet(t *testing.T) {
	c := NewCounter("test_total", "help")
	c.Inc(Labels{"key": "rdp"})
	c.Inc(Labels{"key": "rdp"})
	c.Add(Labels{"key": "wrp"}, 5)

	if got := c.Get(Labels{"key": "rdp"}); got != 2 {
		t.Fatalf("rdp count = %d, want 2", got)
	}
	if got := c.Get(Labels{"key": "wrp"}); got != 5 {
		t.Fatalf("wrp count = %d, want 5", got)
	}
	if got := c.Get(Labels{"key": "other"}); got != 0 {
		t.Fatalf("unseen label count = %d, want 0", got)
	}
}

func TestGaugeSetAddDec(t *testing.T) {
	g := NewGauge("test_gauge", "help")
	g.Set(nil, 3)
	g.Add(nil, 2.5)
	g.Dec(nil)
	if got := g.Get(nil); got != 4.5 {
		t.Fatalf("gauge = %g, want 4.5", got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogram("test_seconds", "help", []float64{1, 5, 10})
	for _, v := range []float64{0.5, 3, 7, 20} {
		h.Observe(nil, v)
	}
	if got := h.Count(nil); got != 4 {
		t.Fatalf("count = %d, want 4", got)
	}

	var sb strings.Builder
	h.Write(&sb)
	out := sb.String()
	for _, want := range []string{
		`test_seconds_bucket{le="1"} 1`,
		`test_seconds_bucket{le="5"} 2`,
		`test_seconds_bucket{le="10"} 3`,
		`test_seconds_bucket{le="+Inf"} 4`,
		`test_seconds_count 4`,
		`test_seconds_sum 30.5`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCounter("dup_total", "h")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewCounter("dup_total", "h")); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestGatherFormat(t *testing.T) {
	r := NewRegistry()
	c := NewCounter("jack_messages_received_total", "Raw lines received")
	r.MustRegister(c)
	c.Inc(nil)

	out := r.Gather()
	if !strings.Contains(out, "# TYPE jack_messages_received_total counter") {
		t.Fatalf("missing TYPE line:\n%s", out)
	}
	if !strings.Contains(out, "jack_messages_received_total 1") {
		t.Fatalf("missing sample line:\n%s", out)
	}
}

func TestJackMetricsGather(t *testing.T) {
	jm := NewJackMetrics()
	jm.MessagesReceived.Inc(nil)
	jm.CommandsDispatched.Inc(Labels{"key": "inf"})
	jm.ProgramFaults.Inc(Labels{"kind": "VM_DIV_ZERO"})

	out := jm.Gather()
	for _, want := range []string{
		"jack_messages_received_total 1",
		`jack_commands_dispatched_total{key="inf"} 1`,
		`jack_vm_faults_total{kind="VM_DIV_ZERO"} 1`,
		"jack_uptime_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("gather missing %q:\n%s", want, out)
		}
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	jm := NewJackMetrics()
	jm.RepliesSent.Inc(nil)
	srv := NewServer(jm, ":0")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jack_replies_sent_total 1") {
		t.Fatalf("body missing sample:\n%s", rec.Body.String())
	}

	req = httptest.NewRequest("POST", "/metrics", nil)
	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	if rec.Code != 405 {
		t.Fatalf("POST status = %d, want 405", rec.Code)
	}
}
