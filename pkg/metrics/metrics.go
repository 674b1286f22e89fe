// Metrics primitives for the Jack daemon
//
// Counter, Gauge and Histogram with label support, gathered into
// Prometheus text format for scraping.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Labels is one metric label set.
type Labels map[string]string

// key builds a stable identity for a label set.
func (l Labels) key() string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(l[k])
	}
	return sb.String()
}

// format renders the label set in exposition syntax.
func (l Labels) format() string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		v := strings.ReplaceAll(l[k], `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		v = strings.ReplaceAll(v, "\n", `\n`)
		fmt.Fprintf(&sb, "%s=%q", k, v)
	}
	sb.WriteByte('}')
	return sb.String()
}

// Metric is anything the registry can gather.
type Metric interface {
	Name() string
	Write(sb *strings.Builder)
}

// Counter is a monotonically increasing value per label set.
type Counter struct {
	name   string
	help   string
	mu     sync.Mutex
	series map[string]*counterSeries
}

type counterSeries struct {
	labels Labels
	value  uint64
}

// NewCounter creates a counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help, series: make(map[string]*counterSeries)}
}

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Inc adds 1.
func (c *Counter) Inc(labels Labels) { c.Add(labels, 1) }

// Add increments by delta.
func (c *Counter) Add(labels Labels, delta uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := labels.key()
	s, ok := c.series[k]
	if !ok {
		s = &counterSeries{labels: labels}
		c.series[k] = s
	}
	atomic.AddUint64(&s.value, delta)
}

// Get returns the value for a label set.
func (c *Counter) Get(labels Labels) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.series[labels.key()]
	if !ok {
		return 0
	}
	return atomic.LoadUint64(&s.value)
}

func (c *Counter) Write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range orderedCounter(c.series) {
		fmt.Fprintf(sb, "%s%s %d\n", c.name, s.labels.format(), atomic.LoadUint64(&s.value))
	}
}

// Gauge is a value that moves in both directions.
type Gauge struct {
	name   string
	help   string
	mu     sync.Mutex
	series map[string]*gaugeSeries
}

type gaugeSeries struct {
	labels Labels
	value  float64
}

// NewGauge creates a gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help, series: make(map[string]*gaugeSeries)}
}

// Name returns the metric name.
func (g *Gauge) Name() string { return g.name }

// Set stores an absolute value.
func (g *Gauge) Set(labels Labels, v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locate(labels).value = v
}

// Add shifts the value by delta.
func (g *Gauge) Add(labels Labels, delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locate(labels).value += delta
}

// Inc adds 1.
func (g *Gauge) Inc(labels Labels) { g.Add(labels, 1) }

// Dec subtracts 1.
func (g *Gauge) Dec(labels Labels) { g.Add(labels, -1) }

// Get returns the value for a label set.
func (g *Gauge) Get(labels Labels) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.series[labels.key()]
	if !ok {
		return 0
	}
	return s.value
}

func (g *Gauge) locate(labels Labels) *gaugeSeries {
	k := labels.key()
	s, ok := g.series[k]
	if !ok {
		s = &gaugeSeries{labels: labels}
		g.series[k] = s
	}
	return s
}

func (g *Gauge) Write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s gauge\n", g.name, g.help, g.name)
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range orderedGauge(g.series) {
		fmt.Fprintf(sb, "%s%s %g\n", g.name, s.labels.format(), s.value)
	}
}

// Histogram tracks an observation distribution over fixed buckets.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	mu      sync.Mutex
	series  map[string]*histSeries
}

type histSeries struct {
	labels  Labels
	count   uint64
	sum     float64
	buckets []uint64
}

// NewHistogram creates a histogram over sorted bucket bounds.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	bs := make([]float64, len(buckets))
	copy(bs, buckets)
	sort.Float64s(bs)
	return &Histogram{name: name, help: help, buckets: bs, series: make(map[string]*histSeries)}
}

// DefaultBuckets suits poll-loop latencies.
func DefaultBuckets() []float64 {
	return []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25}
}

// Name returns the metric name.
func (h *Histogram) Name() string { return h.name }

// Observe records one value.
func (h *Histogram) Observe(labels Labels, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := labels.key()
	s, ok := h.series[k]
	if !ok {
		s = &histSeries{labels: labels, buckets: make([]uint64, len(h.buckets))}
		h.series[k] = s
	}
	s.count++
	s.sum += v
	for i, bound := range h.buckets {
		if v <= bound {
			s.buckets[i]++
		}
	}
}

// Timer returns a stop function observing elapsed seconds.
func (h *Histogram) Timer(labels Labels) func() {
	start := time.Now()
	return func() {
		h.Observe(labels, time.Since(start).Seconds())
	}
}

// Count returns the observation count for a label set.
func (h *Histogram) Count(labels Labels) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[labels.key()]
	if !ok {
		return 0
	}
	return s.count
}

func (h *Histogram) Write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range orderedHist(h.series) {
		cumulative := uint64(0)
		for i, bound := range h.buckets {
			cumulative += s.buckets[i]
			ls := make(Labels, len(s.labels)+1)
			for k, v := range s.labels {
				ls[k] = v
			}
			ls["le"] = fmt.Sprintf("%g", bound)
			fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, ls.format(), cumulative)
		}
		ls := make(Labels, len(s.labels)+1)
		for k, v := range s.labels {
			ls[k] = v
		}
		ls["le"] = "+Inf"
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, ls.format(), s.count)
		fmt.Fprintf(sb, "%s_sum%s %g\n", h.name, s.labels.format(), s.sum)
		fmt.Fprintf(sb, "%s_count%s %d\n", h.name, s.labels.format(), s.count)
	}
}

// Stable series ordering keeps the exposition output deterministic.
func orderedCounter(m map[string]*counterSeries) []*counterSeries {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*counterSeries, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func orderedGauge(m map[string]*gaugeSeries) []*gaugeSeries {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*gaugeSeries, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func orderedHist(m map[string]*histSeries) []*histSeries {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*histSeries, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// Registry holds metrics in registration order.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register adds a metric; duplicate names are an error.
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := m.Name()
	if _, exists := r.metrics[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = m
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on duplicate registration.
func (r *Registry) MustRegister(m Metric) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Get returns a metric by name, or nil.
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather renders every metric in registration order.
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sb strings.Builder
	for _, name := range r.order {
		r.metrics[name].Write(&sb)
	}
	return sb.String()
}
