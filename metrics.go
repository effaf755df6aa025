package membarrier

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the heavy barrier latency histogram buckets in
// nanoseconds. A local fence is tens of nanoseconds, an expedited membarrier
// a few microseconds, and an mprotect shootdown on a large machine can reach
// milliseconds.
var LatencyBuckets = []uint64{
	100,           // 100ns
	1_000,         // 1us
	10_000,        // 10us
	100_000,       // 100us
	1_000_000,     // 1ms
	10_000_000,    // 10ms
	100_000_000,   // 100ms
	1_000_000_000, // 1s
}

const numLatencyBuckets = 8

// Metrics tracks probe and heavy barrier statistics for one Barrier
type Metrics struct {
	// Probe counters
	ProbeRuns     atomic.Uint64 // Completed probe executions (at most 1 per Barrier)
	ProbeAttempts atomic.Uint64 // Candidates tried
	ProbeFailures atomic.Uint64 // Candidates rejected

	// selected holds Backend+1 once resolved, 0 before
	selected atomic.Uint32

	// Heavy barrier counters
	HeavyOps    atomic.Uint64
	HeavyErrors atomic.Uint64

	// Performance tracking
	TotalLatencyNs atomic.Uint64

	// Each bucket[i] contains the count of barriers with latency <= LatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordProbe records one candidate verification
func (m *Metrics) RecordProbe(success bool) {
	m.ProbeAttempts.Add(1)
	if !success {
		m.ProbeFailures.Add(1)
	}
}

// RecordSelected records the end of a probe
func (m *Metrics) RecordSelected(b Backend) {
	m.ProbeRuns.Add(1)
	m.selected.Store(uint32(b) + 1)
}

// RecordHeavy records one heavy barrier
func (m *Metrics) RecordHeavy(latencyNs uint64, success bool) {
	m.HeavyOps.Add(1)
	if !success {
		m.HeavyErrors.Add(1)
	}
	m.TotalLatencyNs.Add(latencyNs)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	// Probe
	Resolved      bool
	Backend       Backend
	ProbeRuns     uint64
	ProbeAttempts uint64
	ProbeFailures uint64

	// Heavy barriers
	HeavyOps    uint64
	HeavyErrors uint64

	// Performance
	AvgLatencyNs uint64
	UptimeNs     uint64
	HeavyRate    float64 // Heavy barriers per second

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ProbeRuns:     m.ProbeRuns.Load(),
		ProbeAttempts: m.ProbeAttempts.Load(),
		ProbeFailures: m.ProbeFailures.Load(),
		HeavyOps:      m.HeavyOps.Load(),
		HeavyErrors:   m.HeavyErrors.Load(),
	}

	if sel := m.selected.Load(); sel != 0 {
		snap.Resolved = true
		snap.Backend = Backend(sel - 1)
	}

	if snap.HeavyOps > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / snap.HeavyOps
	}

	snap.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())
	if snap.UptimeNs > 0 {
		snap.HeavyRate = float64(snap.HeavyOps) / (float64(snap.UptimeNs) / 1e9)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if snap.HeavyOps > 0 {
		snap.LatencyP50Ns = calculatePercentile(snap.LatencyHistogram, snap.HeavyOps, 0.50)
		snap.LatencyP99Ns = calculatePercentile(snap.LatencyHistogram, snap.HeavyOps, 0.99)
		snap.LatencyP999Ns = calculatePercentile(snap.LatencyHistogram, snap.HeavyOps, 0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func calculatePercentile(hist [numLatencyBuckets]uint64, total uint64, percentile float64) uint64 {
	targetCount := uint64(float64(total) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := hist[i]
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = hist[i-1]
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	// latency exceeds all buckets
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset clears the heavy barrier counters. Probe results are kept since the
// probe never runs again.
func (m *Metrics) Reset() {
	m.HeavyOps.Store(0)
	m.HeavyErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
}

// Observer allows pluggable metrics collection
type Observer interface {
	// ObserveProbe is called for each candidate the probe tries
	ObserveProbe(backend Backend, err error)

	// ObserveSelected is called once when the probe settles on a backend
	ObserveSelected(backend Backend)

	// ObserveHeavy is called after every heavy barrier
	ObserveHeavy(backend Backend, latencyNs uint64, success bool)
}

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveProbe(Backend, error)        {}
func (NoOpObserver) ObserveSelected(Backend)            {}
func (NoOpObserver) ObserveHeavy(Backend, uint64, bool) {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveProbe(_ Backend, err error) {
	o.metrics.RecordProbe(err == nil)
}

func (o *MetricsObserver) ObserveSelected(backend Backend) {
	o.metrics.RecordSelected(backend)
}

func (o *MetricsObserver) ObserveHeavy(_ Backend, latencyNs uint64, success bool) {
	o.metrics.RecordHeavy(latencyNs, success)
}

// Compile-time interface check
var _ Observer = (*MetricsObserver)(nil)
