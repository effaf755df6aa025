package membarrier

import (
	"errors"
	"testing"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	// Test initial state
	snap := m.Snapshot()
	if snap.Resolved {
		t.Error("Expected unresolved metrics before RecordSelected")
	}
	if snap.HeavyOps != 0 {
		t.Errorf("Expected 0 initial heavy ops, got %d", snap.HeavyOps)
	}

	m.RecordProbe(false)
	m.RecordProbe(true)
	m.RecordSelected(MemoryProtection)

	m.RecordHeavy(2_000, true)    // 2us
	m.RecordHeavy(4_000, true)    // 4us
	m.RecordHeavy(600_000, false) // 600us, failed

	snap = m.Snapshot()

	if !snap.Resolved || snap.Backend != MemoryProtection {
		t.Errorf("Expected resolved mprotect, got resolved=%v backend=%s", snap.Resolved, snap.Backend)
	}
	if snap.ProbeRuns != 1 {
		t.Errorf("Expected 1 probe run, got %d", snap.ProbeRuns)
	}
	if snap.ProbeAttempts != 2 || snap.ProbeFailures != 1 {
		t.Errorf("Expected 2 attempts and 1 failure, got %d and %d", snap.ProbeAttempts, snap.ProbeFailures)
	}
	if snap.HeavyOps != 3 {
		t.Errorf("Expected 3 heavy ops, got %d", snap.HeavyOps)
	}
	if snap.HeavyErrors != 1 {
		t.Errorf("Expected 1 heavy error, got %d", snap.HeavyErrors)
	}
	if snap.AvgLatencyNs != 202_000 {
		t.Errorf("Expected average latency 202000ns, got %d", snap.AvgLatencyNs)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()

	m.RecordHeavy(50, true)        // <= 100ns
	m.RecordHeavy(5_000, true)     // <= 10us
	m.RecordHeavy(2_000_000, true) // <= 10ms

	snap := m.Snapshot()

	// Buckets are cumulative
	expected := [numLatencyBuckets]uint64{1, 1, 2, 2, 2, 3, 3, 3}
	if snap.LatencyHistogram != expected {
		t.Errorf("Expected histogram %v, got %v", expected, snap.LatencyHistogram)
	}
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 98; i++ {
		m.RecordHeavy(800, true) // <= 1us
	}
	m.RecordHeavy(50_000_000, true) // 50ms outliers
	m.RecordHeavy(50_000_000, true)

	snap := m.Snapshot()

	if snap.LatencyP50Ns > 1_000 {
		t.Errorf("Expected p50 <= 1us, got %dns", snap.LatencyP50Ns)
	}
	if snap.LatencyP99Ns <= 10_000_000 {
		t.Errorf("Expected p99 above 10ms, got %dns", snap.LatencyP99Ns)
	}
	if snap.LatencyP999Ns < snap.LatencyP99Ns {
		t.Errorf("Expected p99.9 >= p99, got %dns < %dns", snap.LatencyP999Ns, snap.LatencyP99Ns)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordSelected(NativeSyscall)
	m.RecordHeavy(1_000, true)

	m.Reset()

	snap := m.Snapshot()
	if snap.HeavyOps != 0 || snap.LatencyHistogram[numLatencyBuckets-1] != 0 {
		t.Errorf("Expected heavy counters cleared, got %+v", snap)
	}
	if !snap.Resolved || snap.Backend != NativeSyscall {
		t.Error("Reset should keep the probe result")
	}
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveProbe(NativeSyscall, errors.New("no"))
	obs.ObserveProbe(MemoryProtection, nil)
	obs.ObserveSelected(MemoryProtection)
	obs.ObserveHeavy(MemoryProtection, 1_000, true)

	snap := m.Snapshot()
	if snap.ProbeAttempts != 2 || snap.ProbeFailures != 1 {
		t.Errorf("Expected 2 attempts and 1 failure, got %d and %d", snap.ProbeAttempts, snap.ProbeFailures)
	}
	if snap.Backend != MemoryProtection {
		t.Errorf("Expected mprotect, got %s", snap.Backend)
	}
	if snap.HeavyOps != 1 {
		t.Errorf("Expected 1 heavy op, got %d", snap.HeavyOps)
	}
}

func TestNoOpObserver(t *testing.T) {
	var obs Observer = NoOpObserver{}

	// Should not panic
	obs.ObserveProbe(NativeSyscall, nil)
	obs.ObserveSelected(NativeSyscall)
	obs.ObserveHeavy(NativeSyscall, 1_000, true)
}
