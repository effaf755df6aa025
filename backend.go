package membarrier

import "github.com/ehrlich-b/go-membarrier/internal/platform"

// Backend identifies the OS facility behind Heavy. It is resolved once per
// Barrier and never changes afterwards.
type Backend = platform.Backend

const (
	// NativeSyscall is Linux membarrier(2), MEMBARRIER_CMD_PRIVATE_EXPEDITED (4.14+).
	NativeSyscall = platform.NativeSyscall

	// MemoryProtection is the mprotect(2) TLB shootdown fallback.
	MemoryProtection = platform.MemoryProtection

	// NativeAPI is Windows FlushProcessWriteBuffers.
	NativeAPI = platform.NativeAPI

	// Unavailable means Heavy only issues a local fence. It orders the
	// calling thread and nothing else: code relying on Light elsewhere in
	// the process is NOT safe on this backend.
	Unavailable = platform.Unavailable
)

// Mechanism issues the heavy barrier for one resolved backend.
type Mechanism = platform.Mechanism

// Candidate is one entry of a probe order.
type Candidate = platform.Candidate

// ParseBackend parses a backend name: membarrier, mprotect, flush or none.
func ParseBackend(s string) (Backend, error) {
	return platform.ParseBackend(s)
}

// PlatformCandidates returns the default probe order for the running OS.
func PlatformCandidates() []Candidate {
	return platform.Candidates(preferMprotect)
}

// CandidateFor returns the candidate for a single backend. Backends the OS
// does not provide fail to open with ErrNotSupported.
func CandidateFor(b Backend) Candidate {
	return platform.Lookup(b)
}
