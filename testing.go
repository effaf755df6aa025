package membarrier

import (
	"sync"
	"sync/atomic"

	"github.com/ehrlich-b/go-membarrier/internal/platform"
)

// FakeMechanism is a Mechanism for testing code that builds its own Barrier.
// Its Barrier issues a local fence, counts calls, and can be told to fail or
// to refuse to open.
type FakeMechanism struct {
	backend Backend

	mu       sync.Mutex
	openErr  error
	failNext error

	opens    atomic.Int64
	barriers atomic.Int64
}

// NewFakeMechanism creates a fake reporting the given backend.
func NewFakeMechanism(backend Backend) *FakeMechanism {
	return &FakeMechanism{backend: backend}
}

// Backend implements Mechanism
func (f *FakeMechanism) Backend() Backend {
	return f.backend
}

// Barrier implements Mechanism
func (f *FakeMechanism) Barrier() error {
	f.barriers.Add(1)
	platform.Full()

	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.failNext
	f.failNext = nil
	return err
}

// RejectOpen makes the candidate's Open fail with err.
func (f *FakeMechanism) RejectOpen(err error) *FakeMechanism {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
	return f
}

// FailNext makes the next Barrier call return err.
func (f *FakeMechanism) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

// Candidate returns a probe candidate that opens this fake.
func (f *FakeMechanism) Candidate() Candidate {
	return Candidate{
		Backend: f.backend,
		Open: func() (Mechanism, error) {
			f.opens.Add(1)
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.openErr != nil {
				return nil, f.openErr
			}
			return f, nil
		},
	}
}

// Opens returns how many times the candidate was opened.
func (f *FakeMechanism) Opens() int64 {
	return f.opens.Load()
}

// Barriers returns how many barriers were issued.
func (f *FakeMechanism) Barriers() int64 {
	return f.barriers.Load()
}

// FatalRecorder collects the errors a Barrier would have panicked with.
type FatalRecorder struct {
	mu   sync.Mutex
	errs []*Error
}

// Fatal is suitable for Config.Fatal.
func (r *FatalRecorder) Fatal(err *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors returns the recorded errors.
func (r *FatalRecorder) Errors() []*Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Error(nil), r.errs...)
}
