//go:build !windows

package platform

func openFlush() (Mechanism, error) {
	return nil, ErrNotSupported
}
