package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestProbeCommand(t *testing.T) {
	out := runCommand(t, "probe")
	assert.Contains(t, out, "backend:")
	assert.Contains(t, out, "process-wide:")
}

func TestProbeCommandForcedNone(t *testing.T) {
	out := runCommand(t, "--backend", "none", "probe")
	assert.Contains(t, out, "backend:      unavailable")
	assert.Contains(t, out, "only order the calling thread")
}

func TestProbeCommandBadBackend(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--backend", "rcu", "probe"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestBenchCommand(t *testing.T) {
	out := runCommand(t, "bench", "-n", "100", "-w", "2")
	for _, path := range []string{"light", "normal", "heavy"} {
		assert.Contains(t, out, path)
	}
	assert.Contains(t, out, "heavy p50=")
}

func TestStressCommand(t *testing.T) {
	out := runCommand(t, "stress", "-n", "200")
	assert.Contains(t, out, "heavy/heavy")
	assert.Contains(t, out, "normal/normal")
	assert.NotContains(t, out, "light/light")
	assert.NotRegexp(t, `violations=[1-9]`, out)
}

func TestViolationError(t *testing.T) {
	err := &violationError{pairing: "heavy/light", violations: 3}
	assert.Equal(t, "heavy/light: 3 visibility violations", err.Error())
}
