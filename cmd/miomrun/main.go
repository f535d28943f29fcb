// miomrun exercises the miom package from the command line: plain flux
// balance analysis, subset selection with subnetwork extraction, and network
// reduction, over models loaded from local files or URLs.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LouisonF/miom"
	"github.com/LouisonF/miom/logger"
	_ "github.com/LouisonF/miom/solver/highs"
)

var (
	flagModel     string
	flagSolver    string
	flagVerbosity int
)

func main() {
	root := &cobra.Command{
		Use:           "miomrun",
		Short:         "Flux balance analysis over metabolic networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case flagVerbosity <= 0:
				logger.SetLevel(zerolog.WarnLevel)
			case flagVerbosity == 1:
				logger.SetLevel(zerolog.InfoLevel)
			default:
				logger.SetLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "path or URL of the serialized model")
	root.PersistentFlags().StringVarP(&flagSolver, "solver", "s", "highs", "solver backend name")
	root.PersistentFlags().IntVarP(&flagVerbosity, "verbosity", "v", 0, "0 silent, 1 summary, 2 full solver log")

	root.AddCommand(newFBACmd(), newSubsetCmd(), newReduceCmd(), newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "miomrun:", err)
		os.Exit(1)
	}
}

func loadModelNetwork() (*miom.Network, error) {
	if flagModel == "" {
		return nil, fmt.Errorf("no model given (use --model)")
	}
	return miom.LoadNetwork(flagModel)
}

func newModel(net *miom.Network) (*miom.Model, error) {
	m := miom.New(net, miom.WithSolver(flagSolver))
	return m, m.Err()
}
