package platform

import "sync/atomic"

var (
	// fenceWord is the target of the read-modify-write in Full.
	fenceWord int64

	// markWord is loaded by Compiler.
	markWord uint32
)

// Full issues a sequentially consistent fence. atomic.AddInt64 compiles to
// LOCK XADD on x86-64 and to an acquire-release read-modify-write on arm64,
// both of which order all earlier loads and stores against all later ones.
func Full() {
	atomic.AddInt64(&fenceWord, 0)
}

// Compiler is the light barrier. The compiler treats the call and the atomic
// load inside it as ordering points and will not move memory accesses across
// them; no fence instruction is emitted on TSO hardware.
//
//go:noinline
func Compiler() {
	atomic.LoadUint32(&markWord)
}

// unavailable degrades the heavy barrier to a local fence.
type unavailable struct{}

// NewUnavailable returns the mechanism used when the probe finds nothing.
// Its Barrier only orders the calling thread.
func NewUnavailable() Mechanism {
	return unavailable{}
}

func (unavailable) Backend() Backend { return Unavailable }

func (unavailable) Barrier() error {
	Full()
	return nil
}
