// Package platform implements the OS facilities that back the heavy barrier
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Backend identifies the mechanism used to issue a heavy barrier.
type Backend uint8

const (
	// Unavailable means no process-wide mechanism was found. A heavy barrier
	// degrades to a local sequentially consistent fence, which only orders
	// the calling thread.
	Unavailable Backend = iota

	// NativeSyscall is Linux membarrier(2) with MEMBARRIER_CMD_PRIVATE_EXPEDITED.
	NativeSyscall

	// MemoryProtection downgrades the protection of a dummy page with
	// mprotect(2). The kernel must shoot down the TLB entry on every CPU
	// running a thread of the process, and the IPI serializes those threads.
	MemoryProtection

	// NativeAPI is the Windows FlushProcessWriteBuffers call.
	NativeAPI
)

// ErrNotSupported is returned by a Candidate whose facility does not exist
// on the running OS.
var ErrNotSupported = errors.New("backend not supported on this platform")

func (b Backend) String() string {
	switch b {
	case Unavailable:
		return "unavailable"
	case NativeSyscall:
		return "membarrier"
	case MemoryProtection:
		return "mprotect"
	case NativeAPI:
		return "flush"
	default:
		return fmt.Sprintf("backend(%d)", uint8(b))
	}
}

// ProcessWide reports whether a heavy barrier on this backend orders every
// thread of the process, not only the caller.
func (b Backend) ProcessWide() bool {
	switch b {
	case NativeSyscall, MemoryProtection, NativeAPI:
		return true
	default:
		return false
	}
}

// Backends lists every backend in default priority order.
func Backends() []Backend {
	return []Backend{NativeSyscall, MemoryProtection, NativeAPI, Unavailable}
}

// ParseBackend parses a backend name as accepted by MEMBARRIER_BACKEND.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "membarrier", "syscall", "native":
		return NativeSyscall, nil
	case "mprotect", "protection":
		return MemoryProtection, nil
	case "flush", "api", "flushprocesswritebuffers":
		return NativeAPI, nil
	case "none", "unavailable", "fence":
		return Unavailable, nil
	default:
		return Unavailable, fmt.Errorf("unknown backend %q", s)
	}
}

// Mechanism issues the heavy barrier for one resolved backend.
type Mechanism interface {
	// Backend returns the backend this mechanism implements.
	Backend() Backend

	// Barrier blocks until every thread of the process has passed a point
	// where its memory accesses are ordered with the caller's. A non-nil
	// error means the guarantee did not hold.
	Barrier() error
}

// Candidate is one entry in the probe order. Open verifies the facility is
// usable, performing a harmless barrier if needed, and returns a ready
// Mechanism.
type Candidate struct {
	Backend Backend
	Open    func() (Mechanism, error)
}

// Candidates returns the probe order for the running OS. When preferMprotect
// is set the mprotect fallback is tried before membarrier.
func Candidates(preferMprotect bool) []Candidate {
	order := defaultOrder()
	if preferMprotect {
		order = moveFirst(order, MemoryProtection)
	}

	candidates := make([]Candidate, 0, len(order))
	for _, b := range order {
		candidates = append(candidates, Lookup(b))
	}
	return candidates
}

// Lookup returns the candidate for a single backend. Backends the OS does not
// provide yield a candidate whose Open fails with ErrNotSupported.
func Lookup(b Backend) Candidate {
	switch b {
	case NativeSyscall:
		return Candidate{Backend: b, Open: openMembarrier}
	case MemoryProtection:
		return Candidate{Backend: b, Open: openMprotect}
	case NativeAPI:
		return Candidate{Backend: b, Open: openFlush}
	default:
		return Candidate{Backend: Unavailable, Open: func() (Mechanism, error) { return NewUnavailable(), nil }}
	}
}

func moveFirst(order []Backend, b Backend) []Backend {
	out := []Backend{}
	found := false
	for _, o := range order {
		if o == b {
			found = true
			continue
		}
		out = append(out, o)
	}
	if !found {
		return order
	}
	return append([]Backend{b}, out...)
}
