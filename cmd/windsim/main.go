// Command windsim generates synthetic wind-speed traces with storm and
// microburst overlays.
//
// Usage:
//
//	windsim run --config simulationConfiguration.txt --out ./out --seed 42
//	windsim validate --config storm.yaml
//	windsim serve
//
// Service settings come from the environment (see internal/config); the
// simulation parameters come from a YAML, JSON or 14-number text file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/windsim/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "windsim",
		Short: "Wind-speed simulator with storm and microburst events",
		Long: `windsim samples a base wind speed on a fixed time grid, overlays randomly
triggered storm windows and, inside storms, microburst windows, and merges
the three series into one trace with a storm-present flag.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd(), newServeCmd())
	return root
}

// exitCode maps configuration problems to their count, everything else to 1.
func exitCode(err error) int {
	var verr *config.ValidationError
	if errors.As(err, &verr) && len(verr.Problems) > 0 {
		return len(verr.Problems)
	}
	return 1
}
