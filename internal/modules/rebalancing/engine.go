package rebalancing

import (
	"context"
	"strings"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/rs/zerolog"
)

// Result is the outcome of one rebalance computation
type Result struct {
	// Allocations is the covered, normalized allocation list with CurrentWeight set
	// to the observed share. It is what gets written back to the store.
	Allocations []domain.Allocation `json:"allocations"`
	// AddedTickers are held tickers that had no allocation and received a zero target
	AddedTickers        []string                  `json:"added_tickers"`
	Holdings            map[string]domain.Holding `json:"holdings"`
	TotalValue          float64                   `json:"total_value"`
	Actions             []domain.Action           `json:"actions"`
	ObservedPercentages map[string]float64        `json:"observed_percentages"`
}

// Engine turns a snapshot of assets and allocations into an ordered action list.
// It holds no state between calls and never writes anywhere.
type Engine struct {
	oracle             domain.PriceOracle
	referenceCurrency  string
	minTradePercentage float64
	log                zerolog.Logger
}

// NewEngine creates a new rebalance engine
func NewEngine(oracle domain.PriceOracle, referenceCurrency string, minTradePercentage float64, log zerolog.Logger) *Engine {
	return &Engine{
		oracle:             oracle,
		referenceCurrency:  strings.ToUpper(referenceCurrency),
		minTradePercentage: minTradePercentage,
		log:                log.With().Str("service", "rebalance_engine").Logger(),
	}
}

// ReferenceCurrency returns the currency values are compared in
func (e *Engine) ReferenceCurrency() string {
	return e.referenceCurrency
}

// MinTradePercentage returns the threshold below which deviations are not traded
func (e *Engine) MinTradePercentage() float64 {
	return e.minTradePercentage
}

// Rebalance covers and normalizes allocations, prices the portfolio and decides the trades.
// Any oracle failure is returned as is and no result is produced.
func (e *Engine) Rebalance(ctx context.Context, assets []domain.Asset, allocations []domain.Allocation) (*Result, error) {
	held := make([]string, 0, len(assets))
	for _, a := range assets {
		held = append(held, a.Ticker)
	}

	covered, added := allocation.EnsureCoverage(held, allocations)
	if len(added) > 0 {
		e.log.Info().Strs("tickers", added).Msg("Added zero-weight allocations for unallocated holdings")
	}

	normalized := allocation.Normalize(covered)
	targets := allocation.TargetWeights(normalized)

	positions, err := e.positions(ctx, assets, targets)
	if err != nil {
		return nil, err
	}

	holdings, err := Value(ctx, positions, e.oracle, e.referenceCurrency)
	if err != nil {
		return nil, err
	}

	actions, observed := Decide(holdings, targets, e.minTradePercentage)
	ordered := Order(actions)

	for i := range normalized {
		normalized[i].CurrentWeight = observed[normalized[i].Ticker]
	}

	total := TotalValue(holdings)
	e.log.Debug().
		Float64("total_value", total).
		Str("currency", e.referenceCurrency).
		Int("holdings", len(holdings)).
		Int("actions", len(ordered)).
		Msg("Rebalance computed")

	return &Result{
		Allocations:         normalized,
		AddedTickers:        added,
		Holdings:            holdings,
		TotalValue:          total,
		Actions:             ordered,
		ObservedPercentages: observed,
	}, nil
}

// positions lists what needs pricing: every asset with a quantity or a positive target,
// then every target-only ticker with a positive target at zero quantity.
func (e *Engine) positions(ctx context.Context, assets []domain.Asset, targets map[string]float64) ([]Position, error) {
	positions := make([]Position, 0, len(assets))
	seen := make(map[string]bool, len(assets))

	for _, a := range assets {
		seen[a.Ticker] = true
		if a.Quantity == 0 && targets[a.Ticker] <= 0 {
			continue
		}
		positions = append(positions, Position{Ticker: a.Ticker, Quantity: a.Quantity, Currency: a.Currency})
	}

	for _, ticker := range allocation.SortedTickers(targets) {
		if seen[ticker] || targets[ticker] <= 0 {
			continue
		}
		price, currency, err := e.resolveQuote(ctx, ticker)
		if err != nil {
			return nil, err
		}
		positions = append(positions, Position{Ticker: ticker, Quantity: 0, Currency: currency, Price: price})
	}

	return positions, nil
}

// resolveQuote finds the currency of a ticker with no asset row. When the oracle cannot
// resolve quotes the reference currency is assumed and the price is left for Value to fetch.
func (e *Engine) resolveQuote(ctx context.Context, ticker string) (float64, string, error) {
	if domain.IsCashCurrency(ticker) {
		return 1, strings.ToUpper(ticker), nil
	}

	resolver, ok := e.oracle.(domain.QuoteResolver)
	if !ok {
		return 0, e.referenceCurrency, nil
	}

	price, currency, err := resolver.ResolveQuote(ctx, ticker)
	if err != nil {
		return 0, "", asPriceUnavailable(ticker, err)
	}
	return price, strings.ToUpper(currency), nil
}
