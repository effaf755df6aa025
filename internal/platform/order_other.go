//go:build !linux && !darwin && !freebsd && !windows

package platform

func defaultOrder() []Backend {
	return nil
}
