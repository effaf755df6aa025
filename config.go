package membarrier

import (
	"os"

	"github.com/ehrlich-b/go-membarrier/internal/constants"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
	"github.com/ehrlich-b/go-membarrier/internal/platform"
)

// Config controls how a Barrier resolves and reports its backend
type Config struct {
	// Candidates is the probe order. Empty means Unavailable.
	Candidates []Candidate

	// Logger receives probe and failure events. Nil uses logging.Default()
	// at probe time.
	Logger *logging.Logger

	// Observer is notified of probes and heavy barriers in addition to the
	// Barrier's own Metrics.
	Observer Observer

	// Fatal is called when a verified backend fails a heavy barrier. The
	// default panics with the *Error. A hook that returns makes Heavy return
	// without the process-wide guarantee; only tests should install one.
	Fatal func(*Error)
}

// DefaultConfig returns the configuration of the process-wide barrier: the
// platform probe order, honoring MEMBARRIER_BACKEND and the
// membarrier_mprotect build tag.
func DefaultConfig() *Config {
	forced := os.Getenv(constants.EnvBackend)
	candidates, err := CandidatesFor(forced)
	if err != nil {
		logging.Warn("ignoring "+constants.EnvBackend, "value", forced, "error", err)
	}
	return &Config{
		Candidates: candidates,
	}
}

// CandidatesFor returns the platform probe order with the named backend moved
// to the front. An empty name yields the platform order unchanged. A forced
// backend the host lacks is rejected by the probe, which then falls through
// to the usual candidates. An unknown name returns the platform order along
// with the parse error.
func CandidatesFor(forced string) ([]Candidate, error) {
	candidates := platform.Candidates(preferMprotect)
	if forced == "" {
		return candidates, nil
	}

	b, err := platform.ParseBackend(forced)
	if err != nil {
		return candidates, err
	}

	out := []Candidate{platform.Lookup(b)}
	for _, c := range candidates {
		if c.Backend != b {
			out = append(out, c)
		}
	}
	return out, nil
}

func defaultFatal(err *Error) {
	panic(err)
}
