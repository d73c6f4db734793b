package t212

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordComputesNetGain(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{
		deposit("2025-01-01", 1000, "d1"),
		{Date: MustParseDate("2025-02-01"), Type: TxWithdrawal, Amount: M(100, "GBP"), Reference: "w1"},
	})
	snap := &Snapshot{
		Cash: M(200, "GBP"),
		Positions: map[string]Position{
			"AAPL": {Ticker: "AAPL", Value: M(950, "GBP")},
		},
	}

	h := NewNetGainHistory()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, h.Record(l, snap, now))

	p, ok := h.Latest()
	require.True(t, ok)
	// 950 holdings + 200 cash + 100 withdrawn - 1000 deposited.
	assert.True(t, p.Value.Equal(M(250, "GBP")), "net gain %s", p.Value)
	assert.Equal(t, now, p.Time)
}

func TestHistoryRecordHandlesNegativeWithdrawalAmounts(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{
		deposit("2025-01-01", 1000, "d1"),
		{Date: MustParseDate("2025-02-01"), Type: TxWithdrawal, Amount: M(-100, "GBP"), Reference: "w1"},
	})
	snap := &Snapshot{Cash: M(200, "GBP"), Positions: map[string]Position{
		"AAPL": {Ticker: "AAPL", Value: M(950, "GBP")},
	}}

	h := NewNetGainHistory()
	require.True(t, h.Record(l, snap, time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)))
	p, _ := h.Latest()
	// The negatively recorded withdrawal still adds its magnitude back:
	// 950 + 200 + 100 - 1000.
	assert.True(t, p.Value.Equal(M(250, "GBP")), "net gain %s", p.Value)
}

func TestHistorySkipsLedgerWithoutCashFlows(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{buy("2025-01-02", "AAPL", 2, 100, 200)})
	snap := &Snapshot{Cash: M(50, "GBP")}

	h := NewNetGainHistory()
	assert.False(t, h.Record(l, snap, time.Now()))
	assert.Equal(t, 0, h.Len())
}

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{deposit("2025-01-01", 100, "d1")})

	h := NewNetGainHistory()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxNetGainPoints+1; i++ {
		snap := &Snapshot{Cash: M(i, "GBP")}
		require.True(t, h.Record(l, snap, start.Add(time.Duration(i)*time.Hour)))
	}

	assert.Equal(t, maxNetGainPoints, h.Len())
	// The very first sample is gone; the second is now the oldest, and the
	// newest is the last one recorded.
	assert.Equal(t, start.Add(time.Hour), h.Points[0].Time)
	assert.Equal(t, start.Add(time.Duration(maxNetGainPoints)*time.Hour), h.Points[h.Len()-1].Time)

	// Recording order is intact.
	for i := 1; i < h.Len(); i++ {
		require.True(t, h.Points[i-1].Time.Before(h.Points[i].Time), "out of order at %d", i)
	}
}

func TestHistoryCloneIsIndependent(t *testing.T) {
	h := NewNetGainHistory()
	h.append(NetGainPoint{Time: time.Now(), Value: M(1, "GBP")})

	clone := h.Clone()
	clone.append(NetGainPoint{Time: time.Now(), Value: M(2, "GBP")})

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestHistorySince(t *testing.T) {
	h := NewNetGainHistory()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		h.append(NetGainPoint{Time: start.Add(time.Duration(i) * time.Hour), Value: M(i, "GBP")})
	}
	got := h.Since(start.Add(7 * time.Hour))
	require.Len(t, got, 3)
	assert.Equal(t, start.Add(7*time.Hour), got[0].Time)
}
