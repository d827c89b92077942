package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/config"
)

// Monitor records operation events into a bounded rolling window and computes
// latency percentiles and bottleneck flags per category.
//
// Operation names are "category:detail" (e.g. "agent:keyword", "cache:get",
// "consensus:resolve"); the prefix before the first colon is the bottleneck
// category.
type Monitor struct {
	mu         sync.Mutex
	windowSize int
	thresholds map[string]time.Duration
	ops        map[string]*opWindow
	now        func() time.Time // for testing
}

type opWindow struct {
	events   []monitorEvent // rolling, newest last
	total    int64
	failures int64
}

type monitorEvent struct {
	at       time.Time
	duration time.Duration
	success  bool
	metadata map[string]string
}

// OperationStats summarizes one operation's rolling window. Totals cover the
// operation's lifetime; percentiles and last-event fields cover only the
// retained window.
type OperationStats struct {
	Count        int64             `json:"count"`
	Failures     int64             `json:"failures"`
	SuccessRate  float64           `json:"success_rate"`
	Average      time.Duration     `json:"average"`
	P50          time.Duration     `json:"p50"`
	P95          time.Duration     `json:"p95"`
	P99          time.Duration     `json:"p99"`
	LastEventAt  time.Time         `json:"last_event_at,omitzero"`
	LastMetadata map[string]string `json:"last_metadata,omitempty"`
}

// Bottleneck flags a category whose p95 latency exceeds its threshold.
type Bottleneck struct {
	Category  string        `json:"category"`
	Operation string        `json:"operation"`
	P95       time.Duration `json:"p95"`
	Threshold time.Duration `json:"threshold"`
}

// PerformanceSummary is an immutable snapshot of the monitor state.
type PerformanceSummary struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Operations  map[string]OperationStats `json:"operations"`
	Bottlenecks []Bottleneck              `json:"bottlenecks"`
}

// NewMonitor creates a Monitor with the configured window size and
// per-category bottleneck thresholds.
func NewMonitor(cfg config.Monitor) *Monitor {
	size := cfg.WindowSize
	if size < 1 {
		size = 1000
	}
	thresholds := make(map[string]time.Duration, len(cfg.Thresholds))
	for k, v := range cfg.Thresholds {
		thresholds[k] = v
	}
	return &Monitor{
		windowSize: size,
		thresholds: thresholds,
		ops:        make(map[string]*opWindow),
		now:        time.Now,
	}
}

// Record adds one event for the named operation. metadata may be nil.
func (m *Monitor) Record(operation string, duration time.Duration, success bool, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.ops[operation]
	if !ok {
		w = &opWindow{}
		m.ops[operation] = w
	}

	w.total++
	if !success {
		w.failures++
	}
	w.events = append(w.events, monitorEvent{
		at:       m.now(),
		duration: duration,
		success:  success,
		metadata: metadata,
	})
	if len(w.events) > m.windowSize {
		w.events = w.events[len(w.events)-m.windowSize:]
	}
}

// Summary computes percentiles for every operation and flags bottleneck
// categories. The returned snapshot shares no state with the monitor.
func (m *Monitor) Summary() PerformanceSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := PerformanceSummary{
		GeneratedAt: m.now(),
		Operations:  make(map[string]OperationStats, len(m.ops)),
	}

	for name, w := range m.ops {
		sorted := make([]time.Duration, len(w.events))
		for i, e := range w.events {
			sorted[i] = e.duration
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		stats := OperationStats{
			Count:    w.total,
			Failures: w.failures,
			P50:      percentile(sorted, 50),
			P95:      percentile(sorted, 95),
			P99:      percentile(sorted, 99),
		}
		if w.total > 0 {
			stats.SuccessRate = float64(w.total-w.failures) / float64(w.total)
		}
		var sum time.Duration
		for _, d := range sorted {
			sum += d
		}
		if len(sorted) > 0 {
			stats.Average = sum / time.Duration(len(sorted))
		}
		if n := len(w.events); n > 0 {
			last := w.events[n-1]
			stats.LastEventAt = last.at
			if len(last.metadata) > 0 {
				md := make(map[string]string, len(last.metadata))
				for k, v := range last.metadata {
					md[k] = v
				}
				stats.LastMetadata = md
			}
		}
		out.Operations[name] = stats

		category := name
		if i := strings.IndexByte(name, ':'); i >= 0 {
			category = name[:i]
		}
		if threshold, ok := m.thresholds[category]; ok && stats.P95 > threshold {
			out.Bottlenecks = append(out.Bottlenecks, Bottleneck{
				Category:  category,
				Operation: name,
				P95:       stats.P95,
				Threshold: threshold,
			})
		}
	}

	sort.Slice(out.Bottlenecks, func(i, j int) bool {
		return out.Bottlenecks[i].Operation < out.Bottlenecks[j].Operation
	})
	return out
}

// percentile returns the p-th percentile of an ascending-sorted window using
// nearest-rank.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}
