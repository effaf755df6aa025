package membarrier

import "github.com/ehrlich-b/go-membarrier/internal/constants"

// Re-export constants for public API
const (
	EnvBackend               = constants.EnvBackend
	DefaultStressRepetitions = constants.DefaultStressRepetitions
)
