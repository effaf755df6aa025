//go:build !linux

package platform

func openMembarrier() (Mechanism, error) {
	return nil, ErrNotSupported
}
