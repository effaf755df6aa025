//go:build linux

package platform

import "golang.org/x/sys/unix"

func membarrierSyscall(cmd uintptr) (uintptr, error) {
	r, _, errno := unix.Syscall(unix.SYS_MEMBARRIER, cmd, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return r, nil
}

func openMembarrier() (Mechanism, error) {
	return newMembarrier(membarrierSyscall)
}

func defaultOrder() []Backend {
	return []Backend{NativeSyscall, MemoryProtection}
}
