package main

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/utils"
	"github.com/spf13/cobra"
)

func rebalanceCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Price the portfolio and compute the trades that restore the target allocation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			service := a.container.RebalancingService
			refCcy := a.container.Engine.ReferenceCurrency()

			if dryRun {
				result, err := service.Preview(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Preview (nothing saved), portfolio value %s\n", utils.FormatMoney(result.TotalValue, refCcy))
				printActions(out, result.Actions)
				return nil
			}

			result, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Run %s, portfolio value %s\n", result.RunID, utils.FormatMoney(result.TotalValue, refCcy))
			if len(result.AddedTickers) > 0 {
				fmt.Fprintf(out, "Added zero-weight targets for %v\n", result.AddedTickers)
			}
			printActions(out, result.Actions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute actions without writing them")
	return cmd
}
