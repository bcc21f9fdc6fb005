package main

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/modules/trading"
	"github.com/spf13/cobra"
)

func actionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "Show the actions of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := a.container.ActionRepo.GetAll()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(stored) > 0 {
				fmt.Fprintf(out, "Run %s at %s\n", stored[0].RunID, stored[0].CreatedAt.Format("2006-01-02 15:04:05"))
			}
			printActions(out, trading.Actions(stored))
			return nil
		},
	}
}
