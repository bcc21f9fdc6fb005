package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("refusing to run without --yes")

func maintenanceCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Destructive store operations",
	}
	cmd.PersistentFlags().BoolVar(&yes, "yes", false, "confirm a destructive operation")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "delete-all",
			Short: "Delete every asset, allocation and action",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if !yes {
					return errNotConfirmed
				}
				if err := a.container.SetupService.DeleteAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted all assets, allocations and actions")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Add the sample holdings (AAPL, MSFT, TSLA, NVDA)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if !yes {
					return errNotConfirmed
				}
				if err := a.container.SetupService.SeedSampleAssets(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Seeded sample assets")
				return nil
			},
		},
	)

	return cmd
}
