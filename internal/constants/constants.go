package constants

// Configuration constants
const (
	// EnvBackend names the environment variable that forces the backend of
	// the process-wide barrier (membarrier, mprotect, flush, none)
	EnvBackend = "MEMBARRIER_BACKEND"
)

// Stress and benchmark defaults
const (
	// DefaultStressRepetitions is the number of publish/observe rounds a
	// visibility stress run performs per backend
	DefaultStressRepetitions = 10000

	// SpinYieldThreshold is the number of busy-wait iterations before a
	// spinning goroutine yields with runtime.Gosched
	SpinYieldThreshold = 1000

	// DefaultBenchIterations is the default number of barriers per bench path
	DefaultBenchIterations = 100000
)
