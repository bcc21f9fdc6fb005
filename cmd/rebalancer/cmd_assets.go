package main

import (
	"fmt"
	"strconv"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/spf13/cobra"
)

func assetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List and edit held positions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List assets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				assets, err := a.container.AssetRepo.GetAll()
				if err != nil {
					return err
				}
				printAssets(cmd.OutOrStdout(), assets)
				return nil
			},
		},
		assetsSetCmd(a),
		&cobra.Command{
			Use:   "remove TICKER",
			Short: "Delete an asset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.container.AssetRepo.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			},
		},
	)

	return cmd
}

func assetsSetCmd(a *app) *cobra.Command {
	var name, currency, notes string

	cmd := &cobra.Command{
		Use:   "set TICKER QUANTITY",
		Short: "Add an asset or update its quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}

			asset := domain.Asset{Ticker: args[0], Quantity: quantity, Name: name, Currency: currency, Notes: notes}
			existing, err := a.container.AssetRepo.GetByTicker(args[0])
			if err != nil {
				return err
			}
			if existing != nil {
				asset = mergeAsset(*existing, cmd, asset)
			}

			if err := a.container.AssetRepo.Upsert(asset); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", asset.Ticker)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&currency, "currency", "", "quote currency (defaults to the ticker for cash)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

// mergeAsset keeps the stored fields whose flags were not given
func mergeAsset(existing domain.Asset, cmd *cobra.Command, update domain.Asset) domain.Asset {
	existing.Quantity = update.Quantity
	if cmd.Flags().Changed("name") {
		existing.Name = update.Name
	}
	if cmd.Flags().Changed("currency") {
		existing.Currency = update.Currency
	}
	if cmd.Flags().Changed("notes") {
		existing.Notes = update.Notes
	}
	return existing
}
