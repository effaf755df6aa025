package platform

import (
	"fmt"

	"github.com/ehrlich-b/go-membarrier/internal/uapi"
)

// sysMembarrier issues membarrier(cmd, 0, 0) and returns the raw result.
type sysMembarrier func(cmd uintptr) (uintptr, error)

// membarrierMech is the process-wide barrier built on membarrier(2).
type membarrierMech struct {
	sys sysMembarrier
}

func (m *membarrierMech) Backend() Backend { return NativeSyscall }

func (m *membarrierMech) Barrier() error {
	return retryEINTR(func() error {
		_, err := m.sys(uapi.MEMBARRIER_CMD_PRIVATE_EXPEDITED)
		return err
	})
}

// newMembarrier queries the kernel for private expedited support and
// registers the process for it. Kernels before 4.14 either lack the syscall
// (ENOSYS) or lack the command bits, and are rejected here.
func newMembarrier(sys sysMembarrier) (Mechanism, error) {
	var mask uintptr
	err := retryEINTR(func() error {
		var err error
		mask, err = sys(uapi.MEMBARRIER_CMD_QUERY)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uapi.CommandName(uapi.MEMBARRIER_CMD_QUERY), err)
	}
	if !uapi.Supports(mask, uapi.PrivateExpeditedMask) {
		return nil, fmt.Errorf("query mask %#x lacks private expedited: %w", mask, ErrNotSupported)
	}

	err = retryEINTR(func() error {
		_, err := sys(uapi.MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uapi.CommandName(uapi.MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED), err)
	}

	return &membarrierMech{sys: sys}, nil
}
