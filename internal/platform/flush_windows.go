//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procFlushProcessWriteBuffers = modkernel32.NewProc("FlushProcessWriteBuffers")
)

// flushMech calls FlushProcessWriteBuffers, which raises an IPI on every
// processor running a thread of the process. It has no failure mode once the
// proc is resolved.
type flushMech struct{}

func openFlush() (Mechanism, error) {
	if err := procFlushProcessWriteBuffers.Find(); err != nil {
		return nil, fmt.Errorf("FlushProcessWriteBuffers: %w", err)
	}
	m := flushMech{}
	m.Barrier()
	return m, nil
}

func (flushMech) Backend() Backend { return NativeAPI }

func (flushMech) Barrier() error {
	procFlushProcessWriteBuffers.Call()
	return nil
}

func defaultOrder() []Backend {
	return []Backend{NativeAPI}
}
