// Package domain provides core domain models and types.
package domain

import "time"

// Direction is the side of a rebalancing action
type Direction string

const (
	// DirectionBuy increases a position
	DirectionBuy Direction = "Buy"
	// DirectionSell decreases a position
	DirectionSell Direction = "Sell"
)

// Valid reports whether d is one of the known directions
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Asset is a held position as recorded in the store.
// Ticker is the unique key.
type Asset struct {
	Name     string  `json:"name"`
	Ticker   string  `json:"ticker"`
	Quantity float64 `json:"quantity"`
	Currency string  `json:"currency"`
	Notes    string  `json:"notes"`
}

// Allocation is the target weight for a ticker.
// TargetWeight is user authored, CurrentWeight is written back after every run.
// Both are fractions of 1.0.
type Allocation struct {
	Ticker        string  `json:"ticker"`
	TargetWeight  float64 `json:"target_weight"`
	CurrentWeight float64 `json:"current_weight"`
}

// Holding is a priced position. It only lives for the duration of one rebalance run.
type Holding struct {
	Ticker         string  `json:"ticker"`
	Quantity       float64 `json:"quantity"`
	NativeCurrency string  `json:"native_currency"`
	NativePrice    float64 `json:"native_price"`
	ReferencePrice float64 `json:"reference_price"`
}

// ReferenceValue returns quantity x reference price
func (h Holding) ReferenceValue() float64 {
	return h.Quantity * h.ReferencePrice
}

// NativeValue returns quantity x native price
func (h Holding) NativeValue() float64 {
	return h.Quantity * h.NativePrice
}

// Action is a single trade suggested by a rebalance run.
// CurrentValue, TargetValue and CurrentPrice are in the asset's native currency.
// Difference is native for threshold trades and reference currency for forced liquidations.
type Action struct {
	Ticker       string    `json:"ticker"`
	Direction    Direction `json:"action"`
	Currency     string    `json:"currency"`
	Quantity     float64   `json:"quantity"`
	CurrentValue float64   `json:"current_value"`
	TargetValue  float64   `json:"target_value"`
	CurrentPrice float64   `json:"current_price"`
	Difference   float64   `json:"difference"`
}

// RunReport is what a completed rebalance run hands to notifiers
type RunReport struct {
	RunID               string             `json:"run_id"`
	StartedAt           time.Time          `json:"started_at"`
	ReferenceCurrency   string             `json:"reference_currency"`
	TotalValue          float64            `json:"total_value"`
	Actions             []Action           `json:"actions"`
	ObservedPercentages map[string]float64 `json:"observed_percentages"`
}
