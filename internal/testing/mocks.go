package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aristath/rebalancer/internal/domain"
)

// MockPriceOracle is an in-memory domain.PriceOracle for tests.
// Prices are keyed by ticker, rates by "FROM:TO". Cash currencies price at 1.
type MockPriceOracle struct {
	mu           sync.RWMutex
	prices       map[string]float64
	rates        map[string]float64
	currencies   map[string]string
	priceErrs    map[string]error
	priceCalls   map[string]int
	convertCalls int
}

// NewMockPriceOracle creates a new mock price oracle
func NewMockPriceOracle() *MockPriceOracle {
	return &MockPriceOracle{
		prices:     make(map[string]float64),
		rates:      make(map[string]float64),
		currencies: make(map[string]string),
		priceErrs:  make(map[string]error),
		priceCalls: make(map[string]int),
	}
}

// SetPrice sets the native price and quote currency of a ticker
func (m *MockPriceOracle) SetPrice(ticker string, price float64, currency string) *MockPriceOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[ticker] = price
	m.currencies[ticker] = currency
	return m
}

// SetRate sets the conversion rate from one currency to another
func (m *MockPriceOracle) SetRate(from, to string, rate float64) *MockPriceOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[from+":"+to] = rate
	return m
}

// SetPriceError makes GetPrice fail for ticker
func (m *MockPriceOracle) SetPriceError(ticker string, err error) *MockPriceOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceErrs[ticker] = err
	return m
}

// PriceCalls returns how many quote lookups reached the oracle for ticker
func (m *MockPriceOracle) PriceCalls(ticker string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.priceCalls[ticker]
}

// ConvertCalls returns how many non-identity conversions were requested
func (m *MockPriceOracle) ConvertCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.convertCalls
}

// GetPrice returns the configured price
func (m *MockPriceOracle) GetPrice(_ context.Context, ticker string) (float64, error) {
	if domain.IsCashCurrency(ticker) {
		return 1, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceCalls[ticker]++

	if err, ok := m.priceErrs[ticker]; ok {
		return 0, err
	}
	price, ok := m.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("no price data for %s", ticker)
	}
	return price, nil
}

// ConvertPrice converts using the configured rate
func (m *MockPriceOracle) ConvertPrice(_ context.Context, price float64, from, to string) (float64, error) {
	if strings.EqualFold(from, to) {
		return price, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.convertCalls++

	rate, ok := m.rates[from+":"+to]
	if !ok {
		return 0, fmt.Errorf("no rate for %s%s=X", from, to)
	}
	return price * rate, nil
}

// ResolveQuote returns the price and currency set with SetPrice.
// It counts as a price call for ticker.
func (m *MockPriceOracle) ResolveQuote(ctx context.Context, ticker string) (float64, string, error) {
	if domain.IsCashCurrency(ticker) {
		return 1, strings.ToUpper(ticker), nil
	}

	price, err := m.GetPrice(ctx, ticker)
	if err != nil {
		return 0, "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	currency, ok := m.currencies[ticker]
	if !ok {
		return 0, "", fmt.Errorf("unknown currency for %s", ticker)
	}
	return price, currency, nil
}
