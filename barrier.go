package membarrier

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-membarrier/internal/logging"
	"github.com/ehrlich-b/go-membarrier/internal/platform"
)

// resolution is the immutable result of the one probe a Barrier runs.
type resolution struct {
	mech Mechanism
	errs []*Error
}

// Barrier owns one resolved backend. The package-level functions use a
// process-wide Barrier built from DefaultConfig; New is for callers that
// need a different probe order or hooks.
//
// The backend is resolved on the first call to Init or Heavy. Exactly one
// goroutine runs the probe; concurrent callers wait for it and all observe
// the same backend.
type Barrier struct {
	candidates []Candidate
	logger     *logging.Logger
	observer   Observer
	fatal      func(*Error)
	metrics    *Metrics

	once  sync.Once
	state atomic.Pointer[resolution]
}

// New creates a Barrier. Nothing is probed until Init or Heavy.
func New(cfg *Config) *Barrier {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	b := &Barrier{
		candidates: append([]Candidate(nil), cfg.Candidates...),
		logger:     cfg.Logger,
		observer:   cfg.Observer,
		fatal:      cfg.Fatal,
		metrics:    NewMetrics(),
	}
	if b.observer == nil {
		b.observer = NoOpObserver{}
	}
	if b.fatal == nil {
		b.fatal = defaultFatal
	}
	return b
}

// resolve runs the probe. Called exactly once under b.once. The cell is
// filled even if a hook panics, so later callers still get a backend.
func (b *Barrier) resolve() {
	r := &resolution{mech: platform.NewUnavailable()}
	defer func() { b.state.Store(r) }()

	logger := b.logger
	if logger == nil {
		logger = logging.Default()
	}

	mech, errs := Probe(b.candidates, logger, multiObserver{NewMetricsObserver(b.metrics), b.observer})
	r = &resolution{mech: mech, errs: errs}

	backend := mech.Backend()
	b.metrics.RecordSelected(backend)
	b.observer.ObserveSelected(backend)
	logger.ProbeSelected(backend.String(), backend.ProcessWide())
}

func (b *Barrier) resolution() *resolution {
	if r := b.state.Load(); r != nil {
		return r
	}
	b.once.Do(b.resolve)
	return b.state.Load()
}

// Init resolves the backend if needed and returns it.
func (b *Barrier) Init() Backend {
	return b.resolution().mech.Backend()
}

// Selected returns the resolved backend without probing. ok is false until
// the first Init or Heavy has completed.
func (b *Barrier) Selected() (backend Backend, ok bool) {
	r := b.state.Load()
	if r == nil {
		return Unavailable, false
	}
	return r.mech.Backend(), true
}

// ProcessWide resolves the backend if needed and reports whether Heavy
// orders every thread of the process.
func (b *Barrier) ProcessWide() bool {
	return b.Init().ProcessWide()
}

// ProbeErrors returns the rejections recorded by the probe, in probe order.
// It is nil before resolution.
func (b *Barrier) ProbeErrors() []*Error {
	r := b.state.Load()
	if r == nil {
		return nil
	}
	return append([]*Error(nil), r.errs...)
}

// Metrics returns the Barrier's statistics.
func (b *Barrier) Metrics() *Metrics {
	return b.metrics
}

// Light issues the fast path barrier. It never blocks and makes no OS call.
func (b *Barrier) Light() {
	platform.Compiler()
}

// Normal issues a sequentially consistent fence on the calling thread.
func (b *Barrier) Normal() {
	platform.Full()
}

// Heavy issues the process-wide barrier and blocks until the OS reports that
// every thread of the process has crossed it. Paired with a barrier of any
// kind on another thread, in either order, it transfers visibility as
// described by Transfers.
//
// On the Unavailable backend Heavy degrades to Normal: it then only pairs
// with Normal or Heavy on the other side, never with Light.
func (b *Barrier) Heavy() {
	r := b.resolution()
	backend := r.mech.Backend()

	start := time.Now()
	err := r.mech.Barrier()
	latency := uint64(time.Since(start))

	b.metrics.RecordHeavy(latency, err == nil)
	b.observer.ObserveHeavy(backend, latency, err == nil)
	if err != nil {
		b.fail(backend, err)
	}
}

// fail handles a heavy barrier failure on a backend that passed the probe.
// The barrier guarantee cannot be reported as partially held, so this is
// fatal rather than returned.
func (b *Barrier) fail(backend Backend, err error) {
	e := WrapError("heavy", backend, err)
	logger := b.logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.BarrierFailed(backend.String(), e)
	b.fatal(e)
}

// multiObserver fans out to several observers.
type multiObserver []Observer

func (m multiObserver) ObserveProbe(backend Backend, err error) {
	for _, o := range m {
		o.ObserveProbe(backend, err)
	}
}

func (m multiObserver) ObserveSelected(backend Backend) {
	for _, o := range m {
		o.ObserveSelected(backend)
	}
}

func (m multiObserver) ObserveHeavy(backend Backend, latencyNs uint64, success bool) {
	for _, o := range m {
		o.ObserveHeavy(backend, latencyNs, success)
	}
}
