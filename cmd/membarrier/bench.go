package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/constants"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
	"github.com/ehrlich-b/go-membarrier/internal/stress"
)

func newBenchCommand(opts *rootOptions) *cobra.Command {
	var (
		iterations int
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the light, normal and heavy barrier paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBarrier(opts)
			if err != nil {
				return err
			}
			backend := b.Init()
			logging.Default().WithBackend(backend.String()).Info("benchmarking", "iterations", iterations, "workers", workers)

			paths := []struct {
				kind membarrier.Kind
				fn   func()
			}{
				{membarrier.KindLight, b.Light},
				{membarrier.KindNormal, b.Normal},
				{membarrier.KindHeavy, b.Heavy},
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "path\tbackend\tworkers\titerations\tns/op\n")
			for _, p := range paths {
				res, err := stress.Bench(cmd.Context(), p.kind.String(), p.fn, iterations, workers)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\n", res.Name, backend, res.Workers, res.Iterations, res.NsPerOp())
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			snap := b.Metrics().Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "\nheavy p50=%dns p99=%dns p99.9=%dns\n",
				snap.LatencyP50Ns, snap.LatencyP99Ns, snap.LatencyP999Ns)
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", constants.DefaultBenchIterations, "Barriers per worker per path")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.GOMAXPROCS(0), "Concurrent goroutines per path")
	return cmd
}
