package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
)

type rootOptions struct {
	verbose   bool
	logFormat string
	backend   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		var ve *violationError
		if errors.As(err, &ve) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "membarrier",
		Short: "Probe, benchmark and stress process-wide memory barriers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logConfig := logging.DefaultConfig()
			logConfig.Format = opts.logFormat
			logConfig.Sync = true
			if opts.verbose {
				logConfig.Level = logging.LevelDebug
			}
			logging.SetDefault(logging.NewLogger(logConfig))
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text or json)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", os.Getenv(membarrier.EnvBackend),
		"Force a backend (membarrier, mprotect, flush, none); falls back to the platform order if unusable")

	cmd.AddCommand(
		newProbeCommand(opts),
		newBenchCommand(opts),
		newStressCommand(opts),
	)
	return cmd
}

// newBarrier builds a Barrier for the requested backend. The process-wide
// barrier reads MEMBARRIER_BACKEND once at startup, so the flag needs its
// own instance.
func newBarrier(opts *rootOptions) (*membarrier.Barrier, error) {
	candidates, err := membarrier.CandidatesFor(opts.backend)
	if err != nil {
		return nil, err
	}

	return membarrier.New(&membarrier.Config{
		Candidates: candidates,
		Logger:     logging.Default(),
	}), nil
}

func newProbeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Show which backend the heavy barrier uses on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBarrier(opts)
			if err != nil {
				return err
			}

			backend := b.Init()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:      %s\n", backend)
			fmt.Fprintf(out, "process-wide: %v\n", backend.ProcessWide())
			for _, perr := range b.ProbeErrors() {
				fmt.Fprintf(out, "rejected:     %s: %v\n", perr.Backend, perr)
			}
			if !backend.ProcessWide() {
				fmt.Fprintln(out, "warning:      heavy barriers only order the calling thread")
			}
			return nil
		},
	}
}
