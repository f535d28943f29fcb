package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LouisonF/miom"
)

func parseComparator(s string) (miom.Comparator, error) {
	switch strings.ToLower(s) {
	case "lt":
		return miom.LT, nil
	case "le":
		return miom.LE, nil
	case "gt":
		return miom.GT, nil
	case "ge":
		return miom.GE, nil
	case "eq":
		return miom.EQ, nil
	case "ne":
		return miom.NE, nil
	default:
		return 0, fmt.Errorf("unknown comparator %q", s)
	}
}

func newSubsetCmd() *cobra.Command {
	var (
		weight     float64
		eps        float64
		extract    string
		comparator string
		threshold  float64
		out        string
	)
	cmd := &cobra.Command{
		Use:   "subset",
		Short: "Run subset selection and extract the selected subnetwork",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := parseComparator(comparator)
			if err != nil {
				return err
			}
			var mode miom.ExtractionMode
			switch extract {
			case "indicator":
				mode = miom.ByIndicator
			case "flux":
				mode = miom.ByAbsFlux
			default:
				return fmt.Errorf("unknown extraction mode %q (want indicator or flux)", extract)
			}

			net, err := loadModelNetwork()
			if err != nil {
				return err
			}
			m := miom.New(net, miom.WithSolver(flagSolver), miom.WithEpsilon(eps)).
				SteadyState().
				SubsetSelection(weight).
				Solve(miom.WithVerbosity(flagVerbosity))
			sub, err := m.Subnetwork(mode, cmp, threshold)
			if err != nil {
				return err
			}

			st := m.Status()
			fmt.Printf("status     : %s\n", st.State)
			fmt.Printf("objective  : %g\n", st.Objective)
			fmt.Printf("reactions  : %d of %d kept\n", sub.NumReactions(), net.NumReactions())
			for _, id := range sub.ReactionIDs() {
				fmt.Printf("  %s\n", id)
			}
			if out != "" {
				if err := miom.SaveNetwork(sub, out); err != nil {
					return err
				}
				fmt.Printf("subnetwork written to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().Float64VarP(&weight, "weight", "w", -1, "scalar selection weight for every reaction")
	cmd.Flags().Float64Var(&eps, "eps", miom.DefaultEps, "minimum active flux magnitude")
	cmd.Flags().StringVar(&extract, "extract", "indicator", "extraction metric: indicator or flux")
	cmd.Flags().StringVar(&comparator, "cmp", "le", "comparator: lt, le, gt, ge, eq, ne")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "extraction threshold")
	cmd.Flags().StringVar(&out, "out", "", "write the extracted subnetwork to this path")
	return cmd
}
