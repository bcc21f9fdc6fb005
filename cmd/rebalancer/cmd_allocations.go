package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// targetsFile is the YAML layout accepted by "allocations import":
//
//	targets:
//	  AAPL: 0.4
//	  MSFT: 0.3
type targetsFile struct {
	Targets map[string]float64 `yaml:"targets"`
}

func allocationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocations",
		Short: "List and edit target weights",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List target and last observed weights",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				allocations, err := a.container.AllocationRepo.GetAll()
				if err != nil {
					return err
				}
				printAllocations(cmd.OutOrStdout(), allocations)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set TICKER WEIGHT",
			Short: "Set the target weight of a ticker (fraction of 1.0)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				weight, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid weight %q: %w", args[1], err)
				}

				current := 0.0
				existing, err := a.container.AllocationRepo.GetByTicker(args[0])
				if err != nil {
					return err
				}
				if existing != nil {
					current = existing.CurrentWeight
				}

				if err := a.container.AllocationRepo.Upsert(domain.Allocation{
					Ticker:        args[0],
					TargetWeight:  weight,
					CurrentWeight: current,
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Target for %s set\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Replace all targets from a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				allocations, err := readTargetsFile(args[0])
				if err != nil {
					return err
				}
				if err := a.container.AllocationRepo.ReplaceAll(allocations); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d targets (sum %s)\n",
					len(allocations), formatWeightSum(allocations))
				return nil
			},
		},
	)

	return cmd
}

// readTargetsFile parses a targets file into allocations in ticker order
func readTargetsFile(path string) ([]domain.Allocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets file %s: %w", path, err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s has no targets", path)
	}

	allocations := make([]domain.Allocation, 0, len(file.Targets))
	for _, ticker := range allocation.SortedTickers(file.Targets) {
		allocations = append(allocations, domain.Allocation{Ticker: ticker, TargetWeight: file.Targets[ticker]})
	}
	return allocations, nil
}

func formatWeightSum(allocations []domain.Allocation) string {
	return strconv.FormatFloat(allocation.SumWeights(allocation.TargetWeights(allocations)), 'f', 4, 64)
}
