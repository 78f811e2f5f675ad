package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/Skryldev/plotting/core"
)

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	stepDurationsMs map[string]int64 // cumulative ms per step
	stepCalls       map[string]int64 // call count per step
	stepErrors      map[string]int64
	cacheHits       map[string]int64 // per backend
	cacheMisses     map[string]int64

	totalThroughputB int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		stepDurationsMs: make(map[string]int64),
		stepCalls:       make(map[string]int64),
		stepErrors:      make(map[string]int64),
		cacheHits:       make(map[string]int64),
		cacheMisses:     make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordProcessingTime(stepName string, d interface{ Seconds() float64 }) {
	ms := int64(d.Seconds() * 1000)
	m.mu.Lock()
	m.stepDurationsMs[stepName] += ms
	m.stepCalls[stepName]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	atomic.AddInt64(&m.totalThroughputB, bytes)
}

func (m *InMemoryMetrics) RecordError(stepName string, _ string) {
	m.mu.Lock()
	m.stepErrors[stepName]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordCacheLookup(backend string, hit bool) {
	m.mu.Lock()
	if hit {
		m.cacheHits[backend]++
	} else {
		m.cacheMisses[backend]++
	}
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		StepDurationsMs:  copyCounts(m.stepDurationsMs),
		StepCalls:        copyCounts(m.stepCalls),
		StepErrors:       copyCounts(m.stepErrors),
		CacheHits:        copyCounts(m.cacheHits),
		CacheMisses:      copyCounts(m.cacheMisses),
		TotalThroughputB: atomic.LoadInt64(&m.totalThroughputB),
	}
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	StepDurationsMs  map[string]int64
	StepCalls        map[string]int64
	StepErrors       map[string]int64
	CacheHits        map[string]int64
	CacheMisses      map[string]int64
	TotalThroughputB int64
}

// ── Latency quantiles ─────────────────────────────────────────────────────────

// LatencyMetrics tracks per-step latency quantiles using DDSketch and
// counts everything else like InMemoryMetrics.
type LatencyMetrics struct {
	*InMemoryMetrics

	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// NewLatencyMetrics creates a tracker.  relativeAccuracy determines the
// accuracy of quantile estimates (e.g. 0.01 = 1%).
func NewLatencyMetrics(relativeAccuracy float64) *LatencyMetrics {
	return &LatencyMetrics{
		InMemoryMetrics:  NewInMemoryMetrics(),
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

func (l *LatencyMetrics) RecordProcessingTime(stepName string, d interface{ Seconds() float64 }) {
	l.InMemoryMetrics.RecordProcessingTime(stepName, d)

	l.mu.Lock()
	defer l.mu.Unlock()
	sketch, ok := l.sketches[stepName]
	if !ok {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(l.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(l.relativeAccuracy)
		}
		l.sketches[stepName] = sketch
	}
	// milliseconds
	_ = sketch.Add(d.Seconds() * 1000)
}

// LatencyStats summarises the latency distribution of one step in ms.
type LatencyStats struct {
	Step  string
	Count int64
	P50   float64
	P90   float64
	P99   float64
	Max   float64
}

// Stats returns the latency summary of stepName.
func (l *LatencyMetrics) Stats(stepName string) (LatencyStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sketch, ok := l.sketches[stepName]
	if !ok {
		return LatencyStats{}, fmt.Errorf("no data for step: %s", stepName)
	}
	st := LatencyStats{Step: stepName, Count: int64(sketch.GetCount())}
	if st.Count == 0 {
		return st, nil
	}
	st.P50, _ = sketch.GetValueAtQuantile(0.50)
	st.P90, _ = sketch.GetValueAtQuantile(0.90)
	st.P99, _ = sketch.GetValueAtQuantile(0.99)
	st.Max, _ = sketch.GetMaxValue()
	return st, nil
}

// AllStats returns summaries for every tracked step, sorted by name.
func (l *LatencyMetrics) AllStats() []LatencyStats {
	l.mu.Lock()
	names := make([]string, 0, len(l.sketches))
	for name := range l.sketches {
		names = append(names, name)
	}
	l.mu.Unlock()
	sort.Strings(names)

	out := make([]LatencyStats, 0, len(names))
	for _, name := range names {
		if st, err := l.Stats(name); err == nil {
			out = append(out, st)
		}
	}
	return out
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(_ context.Context, _ string, _ *core.EncodedImage) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, img *core.EncodedImage, d time.Duration, err error) {
	h.collector.RecordProcessingTime(stepName, d)
	if err != nil {
		h.collector.RecordError(stepName, "pipeline")
	}
	if img != nil {
		h.collector.RecordThroughput(int64(img.Len()))
	}
}
