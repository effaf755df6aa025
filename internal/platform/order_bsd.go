//go:build darwin || freebsd

package platform

func defaultOrder() []Backend {
	return []Backend{MemoryProtection}
}
