package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LouisonF/miom"
)

func newReduceCmd() *cobra.Command {
	var (
		out          string
		maxIter      int
		keepBlocked  bool
		keepDeadEnds bool
	)
	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Remove blocked reactions and dead-end metabolites from a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			net, err := loadModelNetwork()
			if err != nil {
				return err
			}
			ctrl := miom.DefaultReduceCtrl()
			ctrl.MaxIter = maxIter
			ctrl.DelBlocked = !keepBlocked
			ctrl.DelDeadEnds = !keepDeadEnds

			reduced, stats, err := net.Reduce(ctrl)
			if err != nil {
				return err
			}
			fmt.Printf("reactions   : %d -> %d (%d removed)\n",
				net.NumReactions(), reduced.NumReactions(), stats.RxnsDel)
			fmt.Printf("metabolites : %d -> %d (%d removed)\n",
				net.NumMetabolites(), reduced.NumMetabolites(), stats.MetsDel)
			fmt.Printf("passes      : %d\n", stats.IterUsed)
			if out != "" {
				if err := miom.SaveNetwork(reduced, out); err != nil {
					return err
				}
				fmt.Printf("reduced model written to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the reduced model to this path")
	cmd.Flags().IntVar(&maxIter, "max-iter", miom.DefaultReduceCtrl().MaxIter, "maximum reduction passes")
	cmd.Flags().BoolVar(&keepBlocked, "keep-blocked", false, "do not remove blocked reactions")
	cmd.Flags().BoolVar(&keepDeadEnds, "keep-dead-ends", false, "do not remove dead-end metabolites")
	return cmd
}
