package t212

import (
	"slices"
	"time"
)

// maxNetGainPoints bounds the retained series. At one point per hour that is
// roughly three weeks of history; older points are evicted oldest-first.
const maxNetGainPoints = 500

// NetGainPoint is one sampled value of the portfolio's net gain.
type NetGainPoint struct {
	Time  time.Time `json:"time"`
	Value Money     `json:"value"`
}

// NetGainHistory is a bounded, append-only series of net-gain samples in
// recording order. When full, appending evicts the oldest point in the same
// operation, so the series is never observable above its bound.
type NetGainHistory struct {
	Points []NetGainPoint `json:"points"`
}

// NewNetGainHistory creates an empty series.
func NewNetGainHistory() *NetGainHistory {
	return &NetGainHistory{Points: make([]NetGainPoint, 0)}
}

// netGain is holdings plus cash plus everything taken out, minus everything
// put in: the account's lifetime profit in currency terms.
func netGain(l *Ledger, snap *Snapshot) Money {
	deposits, _ := l.Deposits()
	return snap.TotalAssets().Add(l.Withdrawals()).Sub(deposits).Round()
}

// Record samples the net gain from the ledger and snapshot and appends it.
// It reports false without appending when the ledger has no deposits or
// withdrawals: without cash flows the figure is not a gain, just the account
// balance, and recording it would poison the series.
func (h *NetGainHistory) Record(l *Ledger, snap *Snapshot, now time.Time) bool {
	if !l.HasCashFlows() {
		return false
	}
	h.append(NetGainPoint{Time: now, Value: netGain(l, snap)})
	return true
}

func (h *NetGainHistory) append(p NetGainPoint) {
	if len(h.Points) >= maxNetGainPoints {
		drop := len(h.Points) - maxNetGainPoints + 1
		h.Points = slices.Delete(h.Points, 0, drop)
	}
	h.Points = append(h.Points, p)
}

// Clone returns an independent copy, used to stage an append so a failed
// persist can discard it without touching the live series.
func (h *NetGainHistory) Clone() *NetGainHistory {
	return &NetGainHistory{Points: slices.Clone(h.Points)}
}

// Len returns the number of retained points.
func (h *NetGainHistory) Len() int { return len(h.Points) }

// Latest returns the most recent point, if any.
func (h *NetGainHistory) Latest() (NetGainPoint, bool) {
	if len(h.Points) == 0 {
		return NetGainPoint{}, false
	}
	return h.Points[len(h.Points)-1], true
}

// Since returns the points recorded at or after t, oldest first.
func (h *NetGainHistory) Since(t time.Time) []NetGainPoint {
	i, _ := slices.BinarySearchFunc(h.Points, t, func(p NetGainPoint, t time.Time) int {
		return p.Time.Compare(t)
	})
	return slices.Clone(h.Points[i:])
}
