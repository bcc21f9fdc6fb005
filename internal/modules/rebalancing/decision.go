package rebalancing

import (
	"math"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
)

// Decide compares each target ticker's share of the portfolio with its target weight
// and returns the trades needed to close the gap, plus the observed share of every target ticker.
//
// Targets are visited in ascending ticker order. A ticker without a holding counts as zero
// quantity. Quantity changes are rounded half away from zero. For each ticker, first match wins:
//
//   - a change that rounds to zero whole units is never traded
//   - a zero target, or a change that would leave a negative quantity, sells the whole
//     position when it has any value, bypassing the threshold
//   - cash is never traded toward a positive target; it funds buys and receives sells
//   - otherwise the trade happens only when |current - target| >= minTradePercentage
//
// Holdings without a positive reference price are observed but never traded.
func Decide(holdings map[string]domain.Holding, targets map[string]float64, minTradePercentage float64) ([]domain.Action, map[string]float64) {
	actions := make([]domain.Action, 0)
	observed := make(map[string]float64, len(targets))

	total := TotalValue(holdings)

	for _, ticker := range allocation.SortedTickers(targets) {
		targetWeight := targets[ticker]

		h, ok := holdings[ticker]
		if !ok {
			h = domain.Holding{Ticker: ticker}
		}

		currentValue := h.NativeValue()
		currentValueRef := h.ReferenceValue()

		if total == 0 {
			observed[ticker] = 0
			continue
		}

		currentPercentage := currentValueRef / total
		observed[ticker] = currentPercentage

		if h.ReferencePrice <= 0 {
			continue
		}

		targetValueRef := total * targetWeight
		diffRef := targetValueRef - currentValueRef
		quantityChange := math.Round(diffRef / h.ReferencePrice)

		if quantityChange == 0 {
			continue
		}

		if targetWeight == 0 || quantityChange+h.Quantity < 0 {
			if currentValueRef > 0 {
				actions = append(actions, domain.Action{
					Ticker:       ticker,
					Direction:    domain.DirectionSell,
					Currency:     h.NativeCurrency,
					Quantity:     h.Quantity,
					CurrentValue: currentValue,
					TargetValue:  0,
					CurrentPrice: h.NativePrice,
					Difference:   diffRef,
				})
			}
			continue
		}

		if domain.IsCashCurrency(ticker) {
			continue
		}

		if math.Abs(currentPercentage-targetWeight) < minTradePercentage {
			continue
		}

		direction := domain.DirectionSell
		if quantityChange > 0 {
			direction = domain.DirectionBuy
		}

		targetValue := (quantityChange + h.Quantity) * h.NativePrice
		actions = append(actions, domain.Action{
			Ticker:       ticker,
			Direction:    direction,
			Currency:     h.NativeCurrency,
			Quantity:     math.Abs(quantityChange),
			CurrentValue: currentValue,
			TargetValue:  targetValue,
			CurrentPrice: h.NativePrice,
			Difference:   targetValue - currentValue,
		})
	}

	return actions, observed
}
