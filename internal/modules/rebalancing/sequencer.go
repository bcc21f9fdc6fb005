package rebalancing

import "github.com/aristath/rebalancer/internal/domain"

// Order returns actions with every Sell ahead of every Buy.
// Relative order inside each direction is preserved.
func Order(actions []domain.Action) []domain.Action {
	ordered := make([]domain.Action, 0, len(actions))
	for _, a := range actions {
		if a.Direction == domain.DirectionSell {
			ordered = append(ordered, a)
		}
	}
	for _, a := range actions {
		if a.Direction != domain.DirectionSell {
			ordered = append(ordered, a)
		}
	}
	return ordered
}
