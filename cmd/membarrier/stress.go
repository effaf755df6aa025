package main

import (
	"fmt"

	"github.com/spf13/cobra"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
	"github.com/ehrlich-b/go-membarrier/internal/stress"
)

// violationError reports a visibility violation; main exits with status 2.
type violationError struct {
	pairing    string
	violations int
}

func (e *violationError) Error() string {
	return fmt.Sprintf("%s: %d visibility violations", e.pairing, e.violations)
}

func newStressCommand(opts *rootOptions) *cobra.Command {
	var reps int

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run the publish/observe visibility scenario for every guaranteed pairing",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBarrier(opts)
			if err != nil {
				return err
			}
			backend := b.Init()
			logger := logging.Default().WithBackend(backend.String())

			fns := map[membarrier.Kind]func(){
				membarrier.KindLight:  b.Light,
				membarrier.KindNormal: b.Normal,
				membarrier.KindHeavy:  b.Heavy,
			}

			for _, writer := range membarrier.Kinds() {
				for _, reader := range membarrier.Kinds() {
					// Pairings without a guarantee are not run: they may
					// pass or fail and neither outcome means anything.
					if !membarrier.Transfers(writer, reader) {
						continue
					}
					// Heavy on the Unavailable backend is a local fence
					// and no longer pairs with Light.
					if !backend.ProcessWide() && (writer == membarrier.KindLight || reader == membarrier.KindLight) {
						continue
					}

					pairing := fmt.Sprintf("%s/%s", writer, reader)
					res, err := stress.Visibility(cmd.Context(), fns[writer], fns[reader], reps)
					if err != nil {
						return err
					}
					logger.Info("stress pairing finished", "pairing", pairing, "violations", res.Violations, "elapsed", res.Elapsed.String())
					fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-10s reps=%d violations=%d elapsed=%s\n",
						pairing, backend, res.Repetitions, res.Violations, res.Elapsed)
					if res.Violations > 0 {
						return &violationError{pairing: pairing, violations: res.Violations}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&reps, "reps", "n", membarrier.DefaultStressRepetitions, "Rounds per pairing")
	return cmd
}
