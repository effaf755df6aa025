// Package membarrier provides process-wide memory barriers for asymmetric
// synchronization.
//
// A full fence on every fast path (hazard pointer publication, epoch entry,
// seqlock reads) costs tens to hundreds of cycles. Operating systems offer a
// way to move that cost to the rare slow path instead: one call that forces
// every thread of the process through a barrier. Fast paths then only need
// to stop the compiler from reordering.
//
//	// reader, frequent
//	hazard.Store(ptr)
//	membarrier.Light()
//	if head.Load() != ptr { ... }
//
//	// reclaimer, rare
//	head.Store(next)
//	membarrier.Heavy()
//	if !isHazard(ptr) { free(ptr) }
//
// # Semantics
//
// There are three kinds of barrier: Light, Normal and Heavy. All barrier
// invocations in an execution are totally ordered. If thread A issues
// barrier X, thread B issues barrier Y, and X is ordered before Y, then
// everything A could see at X is visible to B after Y when
//
//   - X or Y is Heavy, or
//   - X and Y are both Normal.
//
// Light/Light and Light/Normal pairs give no guarantee. Transfers encodes
// the rule.
//
// # Backends
//
// The first Heavy (or Init) probes the platform once and keeps the result:
//
//   - Linux 4.14+: membarrier(2) MEMBARRIER_CMD_PRIVATE_EXPEDITED.
//   - Older Linux, macOS, FreeBSD: mprotect(2) on a dummy page, whose TLB
//     shootdown interrupts every CPU running a thread of the process.
//   - Windows: FlushProcessWriteBuffers.
//   - Anything else: Unavailable. Heavy is then a local fence and
//     ProcessWide reports false; Light is NOT safe to rely on.
//
// membarrier is tried first by default, since the kernel reports whether it
// is usable and the probe falls back on its own. Build with
// -tags membarrier_mprotect to try mprotect first instead. The tag opts in
// to the fallback rather than to the syscall, so a build that must avoid
// membarrier sets the tag. Set MEMBARRIER_BACKEND=membarrier|mprotect|flush|none
// to force one backend at run time.
//
// A backend that passed the probe and later fails a heavy barrier panics:
// returning would claim a guarantee that did not hold.
package membarrier
