package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/utils"
)

// printActions writes one "Ticker | Action | Quantity" line per action, then the full table
func printActions(w io.Writer, actions []domain.Action) {
	if len(actions) == 0 {
		fmt.Fprintln(w, "No actions needed")
		return
	}

	for _, a := range actions {
		fmt.Fprintf(w, "%s | %s | %s\n", a.Ticker, a.Direction, utils.FormatQuantity(a.Quantity))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Ticker\tAction\tQuantity\tCurrent Value\tTarget Value\tCurrent Price\t")
	for _, a := range actions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.Ticker,
			a.Direction,
			utils.FormatQuantity(a.Quantity),
			utils.FormatMoney(a.CurrentValue, a.Currency),
			utils.FormatMoney(a.TargetValue, a.Currency),
			utils.FormatMoney(a.CurrentPrice, a.Currency),
		)
	}
	tw.Flush()
}

// printAssets writes the asset table
func printAssets(w io.Writer, assets []domain.Asset) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Ticker\tName\tQuantity\tCurrency\tNotes")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Ticker, a.Name, utils.FormatQuantity(a.Quantity), a.Currency, a.Notes)
	}
	tw.Flush()
}

// printAllocations writes the allocation table
func printAllocations(w io.Writer, allocations []domain.Allocation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Ticker\tTarget\tCurrent")
	for _, a := range allocations {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Ticker, utils.FormatPercent(a.TargetWeight), utils.FormatPercent(a.CurrentWeight))
	}
	tw.Flush()
}
