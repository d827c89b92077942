package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/service"
)

func newTestMonitor(windowSize int) *service.Monitor {
	cfg := config.Defaults().Monitor
	cfg.WindowSize = windowSize
	return service.NewMonitor(cfg)
}

func TestMonitorComputesPercentiles(t *testing.T) {
	m := newTestMonitor(1000)

	// 100 events: 1ms..100ms
	for i := 1; i <= 100; i++ {
		m.Record("agent:keyword", time.Duration(i)*time.Millisecond, true, nil)
	}

	stats, ok := m.Summary().Operations["agent:keyword"]
	if !ok {
		t.Fatal("missing operation agent:keyword")
	}
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.P50 != 50*time.Millisecond {
		t.Errorf("P50 = %v, want 50ms", stats.P50)
	}
	if stats.P95 != 95*time.Millisecond {
		t.Errorf("P95 = %v, want 95ms", stats.P95)
	}
	if stats.P99 != 99*time.Millisecond {
		t.Errorf("P99 = %v, want 99ms", stats.P99)
	}
	if stats.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", stats.SuccessRate)
	}
}

func TestMonitorTracksFailures(t *testing.T) {
	m := newTestMonitor(1000)

	for i := 0; i < 10; i++ {
		m.Record("consensus:resolve", time.Millisecond, i%2 == 0, nil)
	}

	stats := m.Summary().Operations["consensus:resolve"]
	if stats.Failures != 5 {
		t.Errorf("Failures = %d, want 5", stats.Failures)
	}
	if stats.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", stats.SuccessRate)
	}
}

func TestMonitorWindowBoundsMemory(t *testing.T) {
	m := newTestMonitor(10)

	// Old slow events roll out of the window; totals survive.
	for i := 0; i < 50; i++ {
		m.Record("cache:analysis_get", time.Second, true, nil)
	}
	for i := 0; i < 10; i++ {
		m.Record("cache:analysis_get", time.Millisecond, true, nil)
	}

	stats := m.Summary().Operations["cache:analysis_get"]
	if stats.Count != 60 {
		t.Errorf("Count = %d, want lifetime total 60", stats.Count)
	}
	if stats.P99 != time.Millisecond {
		t.Errorf("P99 = %v, want 1ms after window rolled", stats.P99)
	}
}

func TestMonitorFlagsBottlenecks(t *testing.T) {
	cfg := config.Monitor{
		WindowSize: 100,
		Thresholds: map[string]time.Duration{"agent": 10 * time.Millisecond},
	}
	m := service.NewMonitor(cfg)

	for i := 0; i < 20; i++ {
		m.Record("agent:slow", 50*time.Millisecond, true, nil)
		m.Record("agent:fast", time.Millisecond, true, nil)
		m.Record("consensus:resolve", time.Second, true, nil) // no threshold for this category
	}

	summary := m.Summary()
	if len(summary.Bottlenecks) != 1 {
		t.Fatalf("Bottlenecks = %+v, want exactly agent:slow", summary.Bottlenecks)
	}
	b := summary.Bottlenecks[0]
	if b.Operation != "agent:slow" || b.Category != "agent" {
		t.Errorf("bottleneck = %+v", b)
	}
}

func TestMonitorSurfacesLastEvent(t *testing.T) {
	m := newTestMonitor(100)
	m.Record("agent:keyword", time.Millisecond, false, map[string]string{"error": "timeout"})
	m.Record("agent:keyword", 2*time.Millisecond, true, map[string]string{"method": "highest_confidence"})

	stats := m.Summary().Operations["agent:keyword"]
	if stats.LastMetadata["method"] != "highest_confidence" {
		t.Errorf("LastMetadata = %v, want the newest event's metadata", stats.LastMetadata)
	}
	if stats.LastEventAt.IsZero() {
		t.Error("LastEventAt not set")
	}

	// The snapshot holds a copy; mutating it must not reach the monitor.
	stats.LastMetadata["method"] = "majority_vote"
	if again := m.Summary().Operations["agent:keyword"]; again.LastMetadata["method"] != "highest_confidence" {
		t.Errorf("snapshot mutation leaked: %v", again.LastMetadata)
	}
}

func TestMonitorSummaryIsSnapshot(t *testing.T) {
	m := newTestMonitor(100)
	m.Record("agent:x", time.Millisecond, true, nil)

	s1 := m.Summary()
	for i := 0; i < 5; i++ {
		m.Record(fmt.Sprintf("agent:y%d", i), time.Millisecond, true, nil)
	}
	if len(s1.Operations) != 1 {
		t.Errorf("snapshot mutated: %d operations", len(s1.Operations))
	}
}
