package testing

import "github.com/aristath/rebalancer/internal/domain"

// NewAssetFixtures returns the sample holdings used across tests
func NewAssetFixtures() []domain.Asset {
	return []domain.Asset{
		{Name: "Apple", Ticker: "AAPL", Quantity: 10, Currency: "USD", Notes: "Sample Notes"},
		{Name: "Microsoft", Ticker: "MSFT", Quantity: 5, Currency: "USD", Notes: "Sample Notes"},
		{Name: "Tesla", Ticker: "TSLA", Quantity: 3, Currency: "USD", Notes: "Sample Notes"},
		{Name: "NVIDIA", Ticker: "NVDA", Quantity: 2, Currency: "USD", Notes: "Sample Notes"},
	}
}

// NewAllocationFixtures returns raw target weights for the asset fixtures (sums to 100)
func NewAllocationFixtures() []domain.Allocation {
	return []domain.Allocation{
		{Ticker: "AAPL", TargetWeight: 40},
		{Ticker: "MSFT", TargetWeight: 30},
		{Ticker: "TSLA", TargetWeight: 20},
		{Ticker: "NVDA", TargetWeight: 10},
	}
}

// NewFixtureOracle prices the asset fixtures in USD
func NewFixtureOracle() *MockPriceOracle {
	return NewMockPriceOracle().
		SetPrice("AAPL", 150, "USD").
		SetPrice("MSFT", 300, "USD").
		SetPrice("TSLA", 200, "USD").
		SetPrice("NVDA", 500, "USD").
		SetRate("USD", "TWD", 30)
}
