package allocation

import (
	"sort"

	"github.com/aristath/rebalancer/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// NormalizeWeights rescales raw target weights so they sum to 1.
// An all-zero (or empty) mapping is returned unchanged. The input is never mutated.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	result := make(map[string]float64, len(weights))
	for ticker, w := range weights {
		result[ticker] = w
	}

	total := SumWeights(weights)
	if total == 0 {
		return result
	}

	for ticker, w := range weights {
		result[ticker] = w / total
	}
	return result
}

// SumWeights sums weights in ascending ticker order so the result does not depend on map iteration
func SumWeights(weights map[string]float64) float64 {
	tickers := SortedTickers(weights)
	values := make([]float64, len(tickers))
	for i, ticker := range tickers {
		values[i] = weights[ticker]
	}
	return floats.Sum(values)
}

// SortedTickers returns the keys of m in ascending order
func SortedTickers[V any](m map[string]V) []string {
	tickers := make([]string, 0, len(m))
	for ticker := range m {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// EnsureCoverage appends a zero-weight allocation for every held ticker without one.
// Existing rows, including tickers no longer held, are kept as-is.
// Returns the covered list and the tickers that were added, in the order they were held.
func EnsureCoverage(heldTickers []string, allocations []domain.Allocation) ([]domain.Allocation, []string) {
	covered := make([]domain.Allocation, len(allocations), len(allocations)+len(heldTickers))
	copy(covered, allocations)

	present := make(map[string]bool, len(allocations))
	for _, a := range allocations {
		present[a.Ticker] = true
	}

	var added []string
	for _, ticker := range heldTickers {
		if present[ticker] {
			continue
		}
		present[ticker] = true
		covered = append(covered, domain.Allocation{Ticker: ticker})
		added = append(added, ticker)
	}

	return covered, added
}

// TargetWeights returns the ticker -> target weight mapping of allocations
func TargetWeights(allocations []domain.Allocation) map[string]float64 {
	weights := make(map[string]float64, len(allocations))
	for _, a := range allocations {
		weights[a.Ticker] = a.TargetWeight
	}
	return weights
}

// Normalize returns a copy of allocations with target weights rescaled to sum to 1
func Normalize(allocations []domain.Allocation) []domain.Allocation {
	normalized := NormalizeWeights(TargetWeights(allocations))

	result := make([]domain.Allocation, len(allocations))
	for i, a := range allocations {
		a.TargetWeight = normalized[a.Ticker]
		result[i] = a
	}
	return result
}
