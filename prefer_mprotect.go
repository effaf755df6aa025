//go:build membarrier_mprotect

package membarrier

const preferMprotect = true
