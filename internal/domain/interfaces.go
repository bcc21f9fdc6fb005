package domain

import "context"

// PriceOracle prices tickers in their native currency and converts prices between currencies.
// Implementations must short-circuit identity conversions and cash currencies without a network call.
type PriceOracle interface {
	// GetPrice returns the current unit price of ticker in its native currency
	GetPrice(ctx context.Context, ticker string) (float64, error)

	// ConvertPrice converts price from one currency to another
	ConvertPrice(ctx context.Context, price float64, fromCurrency, toCurrency string) (float64, error)
}

// QuoteResolver is implemented by oracles that can return a ticker's price together with
// its quote currency in one lookup. It is used for target-only tickers that have no asset
// row carrying a currency; the returned price is reused for valuation.
type QuoteResolver interface {
	ResolveQuote(ctx context.Context, ticker string) (price float64, currency string, err error)
}

// RateSource returns the multiplier converting one unit of fromCurrency into toCurrency
type RateSource interface {
	GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error)
}

// Notifier consumes the result of a completed rebalance run.
// Failures are logged by the caller and never fail the run.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, report RunReport) error
}
