package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/windsim/internal/config"
)

func newValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a simulation parameter file and list every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				path = cfg.SimulationConfig
			}
			return validateFile(cmd.OutOrStdout(), path)
		},
	}

	cmd.Flags().StringVarP(&path, "config", "c", "", "simulation parameter file (default $SIMULATION_CONFIG)")
	return cmd
}

func validateFile(w io.Writer, path string) error {
	cfg, err := config.LoadSimulation(path)
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			fmt.Fprintf(w, "  FAIL: %s\n", p)
		}
		fmt.Fprintf(w, "%d errors encountered in %s\n", len(verr.Problems), path)
		return err
	}
	if err != nil {
		return err
	}

	grid := cfg.Wind.Grid()
	fmt.Fprintf(w, "%s is valid: %d grid points from 0 to %g every %g\n", path, grid.Points(), grid.Duration, grid.Step)
	return nil
}
