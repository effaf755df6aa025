package platform

import (
	"errors"
	"syscall"
	"testing"
)

func TestFences(t *testing.T) {
	Compiler()
	Full()
	if err := NewUnavailable().Barrier(); err != nil {
		t.Errorf("unavailable Barrier() = %v, want nil", err)
	}
}

func TestRetryEINTR(t *testing.T) {
	calls := 0
	err := retryEINTR(func() error {
		calls++
		if calls < 3 {
			return syscall.EINTR
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retryEINTR = %v after %d calls, want nil after 3", err, calls)
	}

	want := errors.New("boom")
	if err := retryEINTR(func() error { return want }); err != want {
		t.Errorf("retryEINTR passed through %v, want %v", err, want)
	}
}

func BenchmarkCompiler(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Compiler()
	}
}

func BenchmarkFull(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Full()
	}
}
