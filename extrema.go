package t212

import (
	"github.com/shopspring/decimal"
)

// priceEpsilon is the smallest price move treated as real. Anything below it
// is upstream rounding noise.
var priceEpsilon = decimal.NewFromFloat(0.001)

// PriceRange tracks the observed price band of one instrument.
type PriceRange struct {
	Min  Money `json:"min"`
	Max  Money `json:"max"`
	Last Money `json:"last"`
}

// Extrema tracks the minimum and maximum price ever observed for each held
// instrument. Observations only ever widen a range: the minimum is
// non-increasing and the maximum non-decreasing for the life of the tracker.
type Extrema struct {
	Ranges map[string]PriceRange `json:"ranges"`
}

// NewExtrema creates an empty tracker.
func NewExtrema() *Extrema {
	return &Extrema{Ranges: make(map[string]PriceRange)}
}

// Observe records one price observation for the ticker. The first
// observation initializes the range to a single point; later ones widen it.
// Non-positive prices are ignored, they are artifacts of partial fills.
func (e *Extrema) Observe(ticker string, price Money) {
	if !price.IsPositive() {
		return
	}
	r, ok := e.Ranges[ticker]
	if !ok {
		e.Ranges[ticker] = PriceRange{Min: price, Max: price, Last: price}
		return
	}
	if price.LessThan(r.Min) {
		r.Min = price
	}
	if price.GreaterThan(r.Max) {
		r.Max = price
	}
	r.Last = price
	e.Ranges[ticker] = r
}

// ObserveSnapshot folds every position's current price into the tracker.
func (e *Extrema) ObserveSnapshot(snap *Snapshot) {
	for _, p := range snap.Positions {
		e.Observe(p.Ticker, p.CurrentPrice)
	}
}

// Range returns the observed band for a ticker, if any.
func (e *Extrema) Range(ticker string) (PriceRange, bool) {
	r, ok := e.Ranges[ticker]
	return r, ok
}

// FallbackStrategy estimates the unrealized P/L of a position when the
// upstream reports an implausible zero. Implementations return false when
// the reported value should stand.
type FallbackStrategy interface {
	EstimatePL(p Position) (Money, bool)
}

// lastPriceFallback recomputes P/L from the price spread. The upstream
// intermittently reports zero P/L on live positions; when the quantity is
// nonzero and price and average cost genuinely differ, (price-avg)*qty is a
// better answer than zero.
type lastPriceFallback struct{}

// DefaultFallback returns the standard price-spread estimator.
func DefaultFallback() FallbackStrategy { return lastPriceFallback{} }

func (lastPriceFallback) EstimatePL(p Position) (Money, bool) {
	if !p.UnrealizedPL.IsZero() || p.Quantity.IsZero() {
		return Money{}, false
	}
	spread := p.CurrentPrice.Sub(p.AveragePrice)
	if spread.value.Abs().LessThanOrEqual(priceEpsilon) {
		return Money{}, false
	}
	return spread.Mul(p.Quantity).Round(), true
}
