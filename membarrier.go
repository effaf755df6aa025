package membarrier

import "github.com/ehrlich-b/go-membarrier/internal/platform"

// std is the process-wide barrier. Its backend is probed on first use and
// shared by every goroutine for the rest of the process.
var std = New(DefaultConfig())

// Default returns the process-wide Barrier used by the package functions.
func Default() *Barrier {
	return std
}

// Light issues the fast path barrier. It only keeps the compiler from
// reordering memory accesses across the call, costs no fence instruction and
// no OS call, and transfers visibility only when another thread issues Heavy.
func Light() {
	platform.Compiler()
}

// Normal issues a sequentially consistent fence on the calling thread, the
// same strength as a sync/atomic read-modify-write.
func Normal() {
	platform.Full()
}

// Heavy issues the process-wide barrier. See Barrier.Heavy.
func Heavy() {
	std.Heavy()
}

// Init probes the platform now instead of on the first Heavy, and returns
// the selected backend.
func Init() Backend {
	return std.Init()
}

// Selected returns the process-wide backend without probing.
func Selected() (Backend, bool) {
	return std.Selected()
}

// ProcessWide reports whether Heavy orders every thread of the process. It
// is false only on platforms without any supported mechanism, where Light
// must not be relied on.
func ProcessWide() bool {
	return std.ProcessWide()
}

// ProbeErrors returns why preferred backends were rejected.
func ProbeErrors() []*Error {
	return std.ProbeErrors()
}

// Stats returns a snapshot of the process-wide barrier's metrics.
func Stats() MetricsSnapshot {
	return std.Metrics().Snapshot()
}
