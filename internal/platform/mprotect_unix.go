//go:build linux || darwin || freebsd

package platform

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mprotectMu serializes the protection sequence process-wide. Concurrent
// sequences on the same page could coalesce into a single shootdown.
var mprotectMu sync.Mutex

// mprotectMech is the fallback for kernels without private expedited
// membarrier. Downgrading a dirty, resident page from read-write to
// read-only forces the kernel to flush the TLB entry on every CPU that may
// cache it, i.e. every CPU currently running a thread of this process.
type mprotectMech struct {
	page   []byte
	locked bool
}

func openMprotect() (Mechanism, error) {
	page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap dummy page: %w", err)
	}

	// mlock keeps the page from being swapped out between barriers; an
	// unlocked page still works, it just costs a fault on the next touch.
	m := &mprotectMech{page: page}
	m.locked = unix.Mlock(page) == nil

	// One full sequence as the verification call.
	if err := m.Barrier(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (m *mprotectMech) Backend() Backend { return MemoryProtection }

func (m *mprotectMech) Barrier() error {
	mprotectMu.Lock()
	defer mprotectMu.Unlock()

	err := retryEINTR(func() error {
		return unix.Mprotect(m.page, unix.PROT_READ|unix.PROT_WRITE)
	})
	if err != nil {
		return fmt.Errorf("mprotect(PROT_READ|PROT_WRITE): %w", err)
	}

	// Dirty the page so the downgrade has a writable TLB entry to revoke.
	atomic.AddUint64((*uint64)(unsafe.Pointer(&m.page[0])), 1)

	err = retryEINTR(func() error {
		return unix.Mprotect(m.page, unix.PROT_READ)
	})
	if err != nil {
		return fmt.Errorf("mprotect(PROT_READ): %w", err)
	}
	return nil
}

// Close releases the dummy page. The process-wide mechanism is never closed.
func (m *mprotectMech) Close() error {
	if m.locked {
		unix.Munlock(m.page)
	}
	return unix.Munmap(m.page)
}
