package rebalancing

import (
	"context"
	"errors"
	"strings"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"gonum.org/v1/gonum/floats"
)

// Position is what the store knows about a ticker. Price is the native price when it
// is already known from the same run; zero means ask the oracle.
type Position struct {
	Ticker   string
	Quantity float64
	Currency string
	Price    float64
}

// Value prices every position in its native currency and in referenceCurrency.
// Cash tickers are priced at 1 unit of themselves without asking the oracle.
// Conversions between equal currencies never reach the oracle.
// The first oracle failure aborts valuation.
func Value(ctx context.Context, positions []Position, oracle domain.PriceOracle, referenceCurrency string) (map[string]domain.Holding, error) {
	holdings := make(map[string]domain.Holding, len(positions))

	for _, p := range positions {
		if existing, ok := holdings[p.Ticker]; ok {
			existing.Quantity += p.Quantity
			holdings[p.Ticker] = existing
			continue
		}

		currency := p.Currency
		var nativePrice float64
		switch {
		case domain.IsCashCurrency(p.Ticker):
			currency = strings.ToUpper(p.Ticker)
			nativePrice = 1
		case p.Price > 0:
			nativePrice = p.Price
		default:
			price, err := oracle.GetPrice(ctx, p.Ticker)
			if err != nil {
				return nil, asPriceUnavailable(p.Ticker, err)
			}
			nativePrice = price
		}

		referencePrice := nativePrice
		if !strings.EqualFold(currency, referenceCurrency) {
			converted, err := oracle.ConvertPrice(ctx, nativePrice, currency, referenceCurrency)
			if err != nil {
				return nil, asConversionUnavailable(currency, referenceCurrency, err)
			}
			referencePrice = converted
		}

		holdings[p.Ticker] = domain.Holding{
			Ticker:         p.Ticker,
			Quantity:       p.Quantity,
			NativeCurrency: currency,
			NativePrice:    nativePrice,
			ReferencePrice: referencePrice,
		}
	}

	return holdings, nil
}

// TotalValue returns the sum of quantity x reference price over all holdings.
// Zero holdings yield 0.
func TotalValue(holdings map[string]domain.Holding) float64 {
	tickers := allocation.SortedTickers(holdings)
	values := make([]float64, len(tickers))
	for i, ticker := range tickers {
		values[i] = holdings[ticker].ReferenceValue()
	}
	return floats.Sum(values)
}

func asPriceUnavailable(ticker string, err error) error {
	var target *domain.PriceUnavailableError
	if errors.As(err, &target) {
		return err
	}
	return &domain.PriceUnavailableError{Ticker: ticker, Err: err}
}

func asConversionUnavailable(from, to string, err error) error {
	var target *domain.ConversionUnavailableError
	if errors.As(err, &target) {
		return err
	}
	return &domain.ConversionUnavailableError{From: from, To: to, Err: err}
}
