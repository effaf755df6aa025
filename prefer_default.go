//go:build !membarrier_mprotect

package membarrier

// preferMprotect puts the mprotect fallback ahead of membarrier. Build with
// -tags membarrier_mprotect to set it.
const preferMprotect = false
