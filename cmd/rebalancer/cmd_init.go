package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store tables and the cash assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setup := a.container.SetupService
			if err := setup.Initialize(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized store with cash assets %s\n", strings.Join(setup.CashCurrencies(), ", "))
			return nil
		},
	}
}
