package membarrier

import (
	"fmt"

	"github.com/ehrlich-b/go-membarrier/internal/logging"
	"github.com/ehrlich-b/go-membarrier/internal/platform"
)

// Probe walks candidates in order and returns the first mechanism whose Open
// succeeds, with one *Error per rejected candidate. When every candidate is
// rejected it returns the Unavailable mechanism. Probe never panics and
// never returns a nil Mechanism.
//
// Opening a candidate can register the process with the kernel or run one
// barrier, so callers should keep the result instead of probing again.
func Probe(candidates []Candidate, logger *logging.Logger, observer Observer) (Mechanism, []*Error) {
	if logger == nil {
		logger = logging.Default()
	}
	if observer == nil {
		observer = NoOpObserver{}
	}

	var errs []*Error
	for _, c := range candidates {
		if c.Open == nil {
			continue
		}

		mech, err := open(c)
		if err == nil && mech == nil {
			err = NewError("probe", c.Backend, ErrCodeNotSupported, "candidate returned no mechanism")
		}
		observer.ObserveProbe(c.Backend, err)
		if err != nil {
			perr := WrapError("probe", c.Backend, err)
			logger.ProbeRejected(c.Backend.String(), perr, expectedRejection(perr))
			errs = append(errs, perr)
			continue
		}

		return mech, errs
	}

	return platform.NewUnavailable(), errs
}

// open calls c.Open, turning a panic into a rejection so one broken
// candidate cannot stop the probe.
func open(c Candidate) (mech Mechanism, err error) {
	defer func() {
		if r := recover(); r != nil {
			mech = nil
			err = NewError("probe", c.Backend, ErrCodeBarrierFailed, fmt.Sprintf("open panicked: %v", r))
		}
	}()
	return c.Open()
}
