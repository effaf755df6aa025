package membarrier

import (
	"runtime"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-membarrier/internal/logging"
	"github.com/ehrlich-b/go-membarrier/internal/platform"
)

func newTestBarrier(fatal func(*Error), candidates ...Candidate) *Barrier {
	return New(&Config{
		Candidates: candidates,
		Logger:     logging.Nop(),
		Fatal:      fatal,
	})
}

func TestBarrierLazyResolution(t *testing.T) {
	fake := NewFakeMechanism(NativeSyscall)
	b := newTestBarrier(nil, fake.Candidate())

	_, ok := b.Selected()
	assert.False(t, ok, "nothing is probed before first use")
	assert.Nil(t, b.ProbeErrors())
	assert.Equal(t, int64(0), fake.Opens())

	b.Light()
	b.Normal()
	_, ok = b.Selected()
	assert.False(t, ok, "light and normal never probe")

	b.Heavy()
	backend, ok := b.Selected()
	assert.True(t, ok)
	assert.Equal(t, NativeSyscall, backend)
	assert.Equal(t, int64(1), fake.Barriers())
}

func TestBarrierInitIdempotent(t *testing.T) {
	fake := NewFakeMechanism(MemoryProtection)
	b := newTestBarrier(nil, fake.Candidate())

	first := b.Init()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, b.Init())
		b.Heavy()
	}

	assert.Equal(t, int64(1), fake.Opens(), "probe must run exactly once")
	assert.Equal(t, uint64(1), b.Metrics().Snapshot().ProbeRuns)
}

func TestBarrierConcurrentInit(t *testing.T) {
	rejected := NewFakeMechanism(NativeSyscall).RejectOpen(syscall.ENOSYS)
	fake := NewFakeMechanism(MemoryProtection)
	b := newTestBarrier(nil, rejected.Candidate(), fake.Candidate())

	workers := runtime.GOMAXPROCS(0) * 4
	results := make([]Backend, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if i%2 == 0 {
				b.Heavy()
				results[i], _ = b.Selected()
			} else {
				results[i] = b.Init()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), rejected.Opens())
	assert.Equal(t, int64(1), fake.Opens())
	for i, got := range results {
		assert.Equal(t, MemoryProtection, got, "worker %d", i)
	}
	require.Len(t, b.ProbeErrors(), 1)
	assert.Equal(t, NativeSyscall, b.ProbeErrors()[0].Backend)
}

func TestBarrierUnavailableDegrade(t *testing.T) {
	rejected := NewFakeMechanism(NativeSyscall).RejectOpen(syscall.ENOSYS)
	recorder := &FatalRecorder{}
	b := newTestBarrier(recorder.Fatal, rejected.Candidate())

	b.Heavy()
	b.Heavy()

	backend, ok := b.Selected()
	assert.True(t, ok)
	assert.Equal(t, Unavailable, backend)
	assert.False(t, b.ProcessWide())
	assert.Empty(t, recorder.Errors(), "the degraded barrier never fails")
	assert.Equal(t, uint64(2), b.Metrics().Snapshot().HeavyOps)
}

func TestBarrierFatalOnFailure(t *testing.T) {
	fake := NewFakeMechanism(NativeSyscall)
	recorder := &FatalRecorder{}
	b := newTestBarrier(recorder.Fatal, fake.Candidate())

	b.Heavy()
	require.Empty(t, recorder.Errors())

	fake.FailNext(syscall.EINVAL)
	b.Heavy()

	errs := recorder.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "heavy", errs[0].Op)
	assert.Equal(t, NativeSyscall, errs[0].Backend)
	assert.Equal(t, ErrCodeInvalidParameters, errs[0].Code)
	assert.True(t, IsErrno(errs[0], syscall.EINVAL))

	snap := b.Metrics().Snapshot()
	assert.Equal(t, uint64(2), snap.HeavyOps)
	assert.Equal(t, uint64(1), snap.HeavyErrors)

	// probe errors and the fatal path stay separate
	assert.Empty(t, b.ProbeErrors())
}

func TestBarrierDefaultFatalPanics(t *testing.T) {
	fake := NewFakeMechanism(NativeSyscall)
	b := newTestBarrier(nil, fake.Candidate())
	b.Init()
	fake.FailNext(syscall.EPERM)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		b.Heavy()
	}()

	require.NotNil(t, recovered, "a failed heavy barrier must not return normally")
	err, ok := recovered.(*Error)
	require.True(t, ok, "panic value should be *Error, got %T", recovered)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBarrierObserver(t *testing.T) {
	m := NewMetrics()
	rejected := NewFakeMechanism(NativeSyscall).RejectOpen(syscall.ENOSYS)
	fake := NewFakeMechanism(MemoryProtection)
	b := New(&Config{
		Candidates: []Candidate{rejected.Candidate(), fake.Candidate()},
		Logger:     logging.Nop(),
		Observer:   NewMetricsObserver(m),
	})

	b.Heavy()

	for name, snap := range map[string]MetricsSnapshot{"observer": m.Snapshot(), "builtin": b.Metrics().Snapshot()} {
		assert.Equal(t, uint64(2), snap.ProbeAttempts, name)
		assert.Equal(t, uint64(1), snap.ProbeFailures, name)
		assert.Equal(t, MemoryProtection, snap.Backend, name)
		assert.Equal(t, uint64(1), snap.HeavyOps, name)
	}
}

func TestNewNilConfig(t *testing.T) {
	b := New(nil)
	backend := b.Init()

	assert.Contains(t, platform.Backends(), backend)
}

func TestPackageFunctions(t *testing.T) {
	// Smoke test of the process-wide barrier: every call must return.
	Light()
	Normal()
	Heavy()

	backend, ok := Selected()
	require.True(t, ok)
	assert.Equal(t, backend, Init())
	assert.Equal(t, backend.ProcessWide(), ProcessWide())
	assert.Same(t, Default(), Default())

	stats := Stats()
	assert.True(t, stats.Resolved)
	assert.Equal(t, backend, stats.Backend)
	assert.GreaterOrEqual(t, stats.HeavyOps, uint64(1))
	t.Logf("process-wide backend: %s (probe errors: %v)", backend, ProbeErrors())
}

func TestBarrierPanickingCandidate(t *testing.T) {
	broken := Candidate{
		Backend: NativeSyscall,
		Open:    func() (Mechanism, error) { panic("boom") },
	}
	fallback := NewFakeMechanism(MemoryProtection)
	recorder := &FatalRecorder{}
	b := newTestBarrier(recorder.Fatal, broken, fallback.Candidate())

	require.NotPanics(t, b.Heavy)
	require.NotPanics(t, b.Heavy)

	assert.Equal(t, MemoryProtection, b.Init())
	assert.Equal(t, int64(2), fallback.Barriers())
	require.Len(t, b.ProbeErrors(), 1)
	assert.Equal(t, NativeSyscall, b.ProbeErrors()[0].Backend)
	assert.Empty(t, recorder.Errors())
}

// panicObserver panics when the probe settles.
type panicObserver struct{ NoOpObserver }

func (panicObserver) ObserveSelected(Backend) { panic("observer") }

func TestBarrierResolvedAfterHookPanic(t *testing.T) {
	fake := NewFakeMechanism(MemoryProtection)
	b := New(&Config{
		Candidates: []Candidate{fake.Candidate()},
		Logger:     logging.Nop(),
		Observer:   panicObserver{},
	})

	assert.Panics(t, func() { b.Init() })

	// the cell is filled and every later caller sees the same backend
	var got Backend
	require.NotPanics(t, func() { got = b.Init() })
	assert.Equal(t, MemoryProtection, got)
	require.NotPanics(t, b.Heavy)
	assert.Equal(t, int64(1), fake.Opens())
}
