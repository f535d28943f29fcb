package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LouisonF/miom"
)

func parseDirection(s string) (miom.Direction, error) {
	switch s {
	case "max":
		return miom.Maximize, nil
	case "min":
		return miom.Minimize, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want max or min)", s)
	}
}

func newFBACmd() *cobra.Command {
	var (
		objective string
		direction string
	)
	cmd := &cobra.Command{
		Use:   "fba",
		Short: "Solve a steady-state flux balance problem for one objective reaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			net, err := loadModelNetwork()
			if err != nil {
				return err
			}
			m, err := newModel(net)
			if err != nil {
				return err
			}
			m.SteadyState().
				SetReactionObjective(objective, dir).
				Solve(miom.WithVerbosity(flagVerbosity))
			flux, err := m.Fluxes(objective)
			if err != nil {
				return err
			}
			st := m.Status()
			fmt.Printf("status     : %s\n", st.State)
			fmt.Printf("objective  : %g\n", st.Objective)
			fmt.Printf("flux %-6s: %g (%s)\n", objective, flux, dir)
			fmt.Printf("elapsed    : %s\n", st.Elapsed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&objective, "objective", "o", "", "objective reaction id")
	cmd.Flags().StringVarP(&direction, "direction", "d", "max", "max or min")
	_ = cmd.MarkFlagRequired("objective")
	return cmd
}
