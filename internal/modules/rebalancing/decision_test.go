package rebalancing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holding builds a holding whose native currency is the reference currency
func holding(ticker string, quantity, price float64) domain.Holding {
	return domain.Holding{
		Ticker:         ticker,
		Quantity:       quantity,
		NativeCurrency: "USD",
		NativePrice:    price,
		ReferencePrice: price,
	}
}

func cash(currency string, amount float64) domain.Holding {
	return domain.Holding{
		Ticker:         currency,
		Quantity:       amount,
		NativeCurrency: currency,
		NativePrice:    1,
		ReferencePrice: 1,
	}
}

func holdingsOf(hs ...domain.Holding) map[string]domain.Holding {
	m := make(map[string]domain.Holding, len(hs))
	for _, h := range hs {
		m[h.Ticker] = h
	}
	return m
}

func TestDecide_SingleAssetFullConcentration(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(holding("AAPL", 10, 150)),
		map[string]float64{"AAPL": 1.0},
		0.02,
	)

	assert.Empty(t, actions)
	assert.Equal(t, map[string]float64{"AAPL": 1.0}, observed)
}

func TestDecide_RebalanceFromCash(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(cash("USD", 1000), holding("AAPL", 0, 100)),
		map[string]float64{"AAPL": 0.5, "USD": 0.5},
		0.02,
	)

	require.Len(t, actions, 1)
	assert.Equal(t, domain.Action{
		Ticker:       "AAPL",
		Direction:    domain.DirectionBuy,
		Currency:     "USD",
		Quantity:     5,
		CurrentValue: 0,
		TargetValue:  500,
		CurrentPrice: 100,
		Difference:   500,
	}, actions[0])

	assert.Equal(t, 0.0, observed["AAPL"])
	assert.Equal(t, 1.0, observed["USD"])
}

func TestDecide_ForcedExit(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(holding("TSLA", 4, 200)),
		map[string]float64{"TSLA": 0},
		0.02,
	)

	require.Len(t, actions, 1)
	assert.Equal(t, domain.DirectionSell, actions[0].Direction)
	assert.Equal(t, 4.0, actions[0].Quantity)
	assert.Equal(t, 0.0, actions[0].TargetValue)
	assert.Equal(t, 800.0, actions[0].CurrentValue)
	assert.Equal(t, -800.0, actions[0].Difference)
	assert.Equal(t, 1.0, observed["TSLA"])
}

func TestDecide_EmptyPortfolio(t *testing.T) {
	actions, observed := Decide(map[string]domain.Holding{}, map[string]float64{}, 0.02)

	assert.NotNil(t, actions)
	assert.Empty(t, actions)
	assert.Equal(t, map[string]float64{}, observed)
}

func TestDecide_ZeroTotalValue(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(holding("AAPL", 0, 150)),
		map[string]float64{"AAPL": 0.5, "MSFT": 0.5},
		0.02,
	)

	assert.Empty(t, actions)
	assert.Equal(t, map[string]float64{"AAPL": 0, "MSFT": 0}, observed)
}

func TestDecide_NoTradeBelowThreshold(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(holding("AAPL", 51, 10), holding("MSFT", 49, 10)),
		map[string]float64{"AAPL": 0.5, "MSFT": 0.5},
		0.02,
	)

	assert.Empty(t, actions)
	assert.InDelta(t, 0.51, observed["AAPL"], 1e-12)
	assert.InDelta(t, 0.49, observed["MSFT"], 1e-12)
}

func TestDecide_ForcedLiquidationOverridesThreshold(t *testing.T) {
	actions, _ := Decide(
		holdingsOf(holding("AAPL", 1, 1), holding("MSFT", 999, 1)),
		map[string]float64{"AAPL": 0, "MSFT": 1},
		0.02,
	)

	require.Len(t, actions, 1)
	assert.Equal(t, "AAPL", actions[0].Ticker)
	assert.Equal(t, domain.DirectionSell, actions[0].Direction)
	assert.Equal(t, 1.0, actions[0].Quantity)
	assert.Equal(t, 0.0, actions[0].TargetValue)
	assert.Equal(t, -1.0, actions[0].Difference)
}

func TestDecide_ZeroTargetWithoutValue(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(holding("TSLA", 0, 200), holding("AAPL", 10, 100)),
		map[string]float64{"TSLA": 0, "AAPL": 1},
		0.02,
	)

	assert.Empty(t, actions)
	assert.Equal(t, 0.0, observed["TSLA"])
}

func TestDecide_NegativeResultingQuantityLiquidates(t *testing.T) {
	actions, _ := Decide(
		holdingsOf(holding("AAPL", 2.6, 100), holding("MSFT", 1000, 1)),
		map[string]float64{"AAPL": 0.001, "MSFT": 0.999},
		0.02,
	)

	require.Len(t, actions, 2)
	sell := actions[0]
	assert.Equal(t, "AAPL", sell.Ticker)
	assert.Equal(t, domain.DirectionSell, sell.Direction)
	assert.Equal(t, 2.6, sell.Quantity)
	assert.Equal(t, 0.0, sell.TargetValue)
	// Difference of a liquidation is the reference-currency gap
	assert.InDelta(t, 1260*0.001-260, sell.Difference, 1e-9)

	assert.Equal(t, "MSFT", actions[1].Ticker)
	assert.Equal(t, domain.DirectionBuy, actions[1].Direction)
	assert.Equal(t, 259.0, actions[1].Quantity)
}

func TestDecide_ZeroQuantityChangeSuppressed(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(holding("AAPL", 1, 1000), cash("USD", 100)),
		map[string]float64{"AAPL": 0.95, "USD": 0.05},
		0.02,
	)

	// 4% under target, but 45 USD buys 0.045 shares which rounds to nothing
	assert.Empty(t, actions)
	assert.Greater(t, math.Abs(observed["AAPL"]-0.95), 0.02)
}

func TestDecide_ThresholdEqualityTrades(t *testing.T) {
	hs := holdingsOf(holding("AAPL", 1, 100), cash("USD", 300))
	targets := map[string]float64{"AAPL": 0.5, "USD": 0.5}

	actions, observed := Decide(hs, targets, 0.25)
	require.Equal(t, 0.25, observed["AAPL"])
	require.Len(t, actions, 1)
	assert.Equal(t, domain.DirectionBuy, actions[0].Direction)
	assert.Equal(t, 1.0, actions[0].Quantity)

	actions, _ = Decide(hs, targets, 0.26)
	assert.Empty(t, actions)
}

func TestDecide_ThresholdSell(t *testing.T) {
	actions, _ := Decide(
		holdingsOf(holding("AAPL", 60, 10), holding("MSFT", 40, 10)),
		map[string]float64{"AAPL": 0.5, "MSFT": 0.5},
		0.02,
	)

	require.Len(t, actions, 2)
	assert.Equal(t, domain.Action{
		Ticker: "AAPL", Direction: domain.DirectionSell, Currency: "USD",
		Quantity: 10, CurrentValue: 600, TargetValue: 500, CurrentPrice: 10, Difference: -100,
	}, actions[0])
	assert.Equal(t, domain.Action{
		Ticker: "MSFT", Direction: domain.DirectionBuy, Currency: "USD",
		Quantity: 10, CurrentValue: 400, TargetValue: 500, CurrentPrice: 10, Difference: 100,
	}, actions[1])
}

func TestDecide_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name        string
		holdings    map[string]domain.Holding
		targets     map[string]float64
		direction   domain.Direction
		quantity    float64
		targetValue float64
	}{
		{
			name:        "buy 0.5 unit tie",
			holdings:    holdingsOf(holding("AAPL", 0, 10), cash("USD", 1000)),
			targets:     map[string]float64{"AAPL": 0.025, "USD": 0.975},
			direction:   domain.DirectionBuy,
			quantity:    3, // 25 / 10 = 2.5
			targetValue: 30,
		},
		{
			name:        "buy 2.5 units",
			holdings:    holdingsOf(cash("USD", 1000), holding("AAPL", 0, 100)),
			targets:     map[string]float64{"AAPL": 0.25},
			direction:   domain.DirectionBuy,
			quantity:    3, // 250 / 100 = 2.5
			targetValue: 300,
		},
		{
			name:        "sell 2.5 units",
			holdings:    holdingsOf(cash("USD", 1000), holding("AAPL", 10, 100)),
			targets:     map[string]float64{"AAPL": 0.375},
			direction:   domain.DirectionSell,
			quantity:    3, // -250 / 100 = -2.5
			targetValue: 700,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, _ := Decide(tt.holdings, tt.targets, 0.02)

			require.Len(t, actions, 1)
			assert.Equal(t, "AAPL", actions[0].Ticker)
			assert.Equal(t, tt.direction, actions[0].Direction)
			assert.Equal(t, tt.quantity, actions[0].Quantity)
			assert.Equal(t, tt.targetValue, actions[0].TargetValue)
			assert.Equal(t, tt.targetValue-actions[0].CurrentValue, actions[0].Difference)
		})
	}
}

// Threshold and sizing are computed in the reference currency while TargetValue and
// Difference of a threshold trade are reported in the asset's native currency.
func TestDecide_CurrencyBasisAsymmetry(t *testing.T) {
	aapl := domain.Holding{
		Ticker:         "AAPL",
		Quantity:       10,
		NativeCurrency: "USD",
		NativePrice:    100,
		ReferencePrice: 3000,
	}
	twd := cash("TWD", 60000)

	actions, observed := Decide(
		holdingsOf(aapl, twd),
		map[string]float64{"AAPL": 0.5, "TWD": 0.5},
		0.02,
	)

	require.Len(t, actions, 1)
	a := actions[0]
	assert.Equal(t, domain.DirectionBuy, a.Direction)
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, 5.0, a.Quantity)
	assert.Equal(t, 1000.0, a.CurrentValue)
	assert.Equal(t, 1500.0, a.TargetValue)
	assert.Equal(t, 100.0, a.CurrentPrice)
	assert.Equal(t, 500.0, a.Difference) // native, not the 15000 TWD reference gap
	assert.InDelta(t, 1.0/3.0, observed["AAPL"], 1e-12)
}

func TestDecide_ZeroTargetCashIsLiquidated(t *testing.T) {
	actions, observed := Decide(
		holdingsOf(cash("USD", 1000), cash("EUR", 1000)),
		map[string]float64{"USD": 0, "EUR": 1},
		0.02,
	)

	// EUR has a positive target, so it only absorbs the proceeds
	require.Len(t, actions, 1)
	assert.Equal(t, domain.Action{
		Ticker: "USD", Direction: domain.DirectionSell, Currency: "USD",
		Quantity: 1000, CurrentValue: 1000, TargetValue: 0, CurrentPrice: 1, Difference: -1000,
	}, actions[0])
	assert.Equal(t, 0.5, observed["USD"])
}

func TestDecide_ForeignCashWithZeroTarget(t *testing.T) {
	eur := domain.Holding{Ticker: "EUR", Quantity: 500, NativeCurrency: "EUR", NativePrice: 1, ReferencePrice: 2}
	aapl := domain.Holding{Ticker: "AAPL", Quantity: 10, NativeCurrency: "TWD", NativePrice: 100, ReferencePrice: 100}

	actions, observed := Decide(
		holdingsOf(aapl, eur),
		map[string]float64{"AAPL": 1, "EUR": 0},
		0.02,
	)

	require.Len(t, actions, 2)
	assert.Equal(t, "AAPL", actions[0].Ticker)
	assert.Equal(t, domain.DirectionBuy, actions[0].Direction)
	assert.Equal(t, 10.0, actions[0].Quantity)

	sell := actions[1]
	assert.Equal(t, "EUR", sell.Ticker)
	assert.Equal(t, domain.DirectionSell, sell.Direction)
	assert.Equal(t, 500.0, sell.Quantity)
	assert.Equal(t, 0.0, sell.TargetValue)
	assert.Equal(t, -1000.0, sell.Difference) // reference currency
	assert.Equal(t, map[string]float64{"AAPL": 0.5, "EUR": 0.5}, observed)
}

func TestDecide_CashWithPositiveTargetIsNotTraded(t *testing.T) {
	actions, _ := Decide(
		holdingsOf(cash("USD", 1000), cash("EUR", 3000)),
		map[string]float64{"USD": 0.5, "EUR": 0.5},
		0.02,
	)

	assert.Empty(t, actions)
}

func TestDecide_Deterministic(t *testing.T) {
	hs := holdingsOf(
		holding("AAPL", 10, 150),
		holding("MSFT", 5, 300),
		holding("TSLA", 3, 200),
		holding("NVDA", 2, 500),
	)
	targets := map[string]float64{"AAPL": 0.1, "MSFT": 0.2, "TSLA": 0.3, "NVDA": 0.4}

	first, firstObserved := Decide(hs, targets, 0.02)
	for i := 0; i < 20; i++ {
		actions, observed := Decide(hs, targets, 0.02)
		assert.Equal(t, first, actions)
		assert.Equal(t, firstObserved, observed)
	}
}

func TestDecide_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tickers := []string{"AAPL", "MSFT", "TSLA", "NVDA", "AMZN", "USD"}

	for iter := 0; iter < 500; iter++ {
		hs := make(map[string]domain.Holding)
		targets := make(map[string]float64)
		for _, ticker := range tickers {
			if rng.Intn(4) == 0 {
				continue
			}
			if ticker == "USD" {
				hs[ticker] = cash("USD", float64(rng.Intn(5000)))
			} else {
				hs[ticker] = holding(ticker, float64(rng.Intn(50)), 1+float64(rng.Intn(500)))
			}
			if rng.Intn(5) == 0 {
				targets[ticker] = 0
			} else {
				targets[ticker] = rng.Float64()
			}
		}
		targets = normalizeForTest(targets)
		minTrade := rng.Float64() * 0.1

		actions, observed := Decide(hs, targets, minTrade)

		assert.Len(t, observed, len(targets))
		for _, a := range actions {
			assert.Greater(t, a.Quantity, 0.0)
			assert.True(t, a.Direction.Valid())
			if a.Ticker == "USD" {
				assert.Zero(t, targets["USD"], "cash traded toward a positive target")
			}

			h := hs[a.Ticker]
			liquidation := a.Direction == domain.DirectionSell && a.TargetValue == 0 && a.Quantity == h.Quantity
			if targets[a.Ticker] == 0 {
				assert.True(t, liquidation, "zero target must liquidate %s", a.Ticker)
				continue
			}
			if !liquidation {
				assert.GreaterOrEqual(t, math.Abs(observed[a.Ticker]-targets[a.Ticker]), minTrade)
			}
		}

		for ticker, weight := range targets {
			h := hs[ticker]
			if weight == 0 && h.ReferenceValue() > 0 {
				count := 0
				for _, a := range actions {
					if a.Ticker == ticker {
						count++
					}
				}
				assert.Equal(t, 1, count, "expected one liquidation for %s", ticker)
			}
		}
	}
}

func normalizeForTest(w map[string]float64) map[string]float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return w
	}
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v / sum
	}
	return out
}
