// Package services provides the live price oracle and store setup operations.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/rebalancer/internal/clients/yahoo"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
)

// QuoteSource returns the latest quote of a symbol
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
}

// PriceService is the live domain.PriceOracle: quotes from a QuoteSource,
// conversions from a domain.RateSource. It also resolves quote currencies.
type PriceService struct {
	quotes QuoteSource
	rates  domain.RateSource
	log    zerolog.Logger
}

// NewPriceService creates a new price service
func NewPriceService(quotes QuoteSource, rates domain.RateSource, log zerolog.Logger) *PriceService {
	return &PriceService{
		quotes: quotes,
		rates:  rates,
		log:    log.With().Str("service", "price").Logger(),
	}
}

// GetPrice returns the unit price of ticker in its quote currency.
// Cash currencies are worth 1 of themselves.
func (s *PriceService) GetPrice(ctx context.Context, ticker string) (float64, error) {
	if domain.IsCashCurrency(ticker) {
		return 1, nil
	}

	quote, err := s.quotes.GetQuote(ctx, ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Price lookup failed")
		return 0, &domain.PriceUnavailableError{Ticker: ticker, Err: err}
	}

	return quote.Price, nil
}

// ConvertPrice converts price between currencies
func (s *PriceService) ConvertPrice(ctx context.Context, price float64, fromCurrency, toCurrency string) (float64, error) {
	if strings.EqualFold(fromCurrency, toCurrency) {
		return price, nil
	}

	rate, err := s.rates.GetRate(ctx, strings.ToUpper(fromCurrency), strings.ToUpper(toCurrency))
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("from", fromCurrency).
			Str("to", toCurrency).
			Msg("Currency conversion failed")
		return 0, &domain.ConversionUnavailableError{From: fromCurrency, To: toCurrency, Err: err}
	}

	return price * rate, nil
}

// ResolveQuote returns the native price and quote currency of ticker from a single quote
func (s *PriceService) ResolveQuote(ctx context.Context, ticker string) (float64, string, error) {
	if domain.IsCashCurrency(ticker) {
		return 1, strings.ToUpper(ticker), nil
	}

	quote, err := s.quotes.GetQuote(ctx, ticker)
	if err != nil {
		return 0, "", &domain.PriceUnavailableError{Ticker: ticker, Err: err}
	}
	if quote.Currency == "" {
		return 0, "", &domain.PriceUnavailableError{
			Ticker: ticker,
			Err:    fmt.Errorf("quote for %s has no currency", ticker),
		}
	}

	return quote.Price, strings.ToUpper(quote.Currency), nil
}
