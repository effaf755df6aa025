//go:build !linux && !darwin && !freebsd

package platform

func openMprotect() (Mechanism, error) {
	return nil, ErrNotSupported
}
