package t212

import (
	"time"

	"github.com/shopspring/decimal"
)

// zeroThreshold clamps tiny rounding artifacts from the upstream API
// (values like -0.01 on a flat position) to exactly zero.
var zeroThreshold = decimal.NewFromFloat(0.05)

// Position is one held instrument as reported by the positions endpoint.
type Position struct {
	Ticker       string   `json:"ticker"`
	Quantity     Quantity `json:"quantity"`
	AveragePrice Money    `json:"average_price"`
	CurrentPrice Money    `json:"current_price"`
	Value        Money    `json:"value"`
	UnrealizedPL Money    `json:"unrealized_pl"`
	TotalCost    Money    `json:"total_cost"`
	PortfolioPct float64  `json:"portfolio_pct"`
	// PLEstimated marks a position whose P/L was recomputed locally because
	// the upstream reported an implausible zero.
	PLEstimated bool `json:"pl_estimated,omitempty"`
}

// Snapshot is one fetched-at-a-time view of all current positions plus the
// free cash balance. A Snapshot is never mutated after construction: a
// refresh builds a new one and swaps it in whole.
type Snapshot struct {
	FetchedAt time.Time           `json:"fetched_at"`
	Cash      Money               `json:"cash"`
	Positions map[string]Position `json:"positions"`
}

// Age returns how old the snapshot is at the given instant.
func (s *Snapshot) Age(now time.Time) time.Duration { return now.Sub(s.FetchedAt) }

// MarketValue returns the summed current value of all positions.
func (s *Snapshot) MarketValue() Money {
	var total Money
	for _, p := range s.Positions {
		total = total.Add(p.Value)
	}
	return total
}

// TotalAssets returns market value plus free cash.
func (s *Snapshot) TotalAssets() Money { return s.MarketValue().Add(s.Cash) }

// TotalUnrealizedPL returns the summed unrealized profit and loss.
func (s *Snapshot) TotalUnrealizedPL() Money {
	var total Money
	for _, p := range s.Positions {
		total = total.Add(p.UnrealizedPL)
	}
	return total
}

// clampTiny zeroes monetary noise below the threshold and rounds the rest
// to the currency's minor unit.
func clampTiny(m Money) Money {
	if m.value.Abs().LessThan(zeroThreshold) {
		return M(decimal.Zero, m.cur)
	}
	return m.Round()
}

// finalize clamps noise and computes each position's share of the total
// market value. Called once, when a snapshot is built from a fetch.
func (s *Snapshot) finalize() {
	total := decimal.Zero
	for t, p := range s.Positions {
		p.Value = clampTiny(p.Value)
		p.UnrealizedPL = clampTiny(p.UnrealizedPL)
		p.TotalCost = p.TotalCost.Round()
		s.Positions[t] = p
		total = total.Add(p.Value.value)
	}
	if total.IsPositive() {
		for t, p := range s.Positions {
			pct, _ := p.Value.value.Div(total).Mul(decimal.NewFromInt(100)).Float64()
			p.PortfolioPct = pct
			s.Positions[t] = p
		}
	}
}
