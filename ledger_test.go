package t212

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deposit(date string, amount float64, ref string) TransactionRecord {
	return TransactionRecord{
		Date:      MustParseDate(date),
		Type:      TxDeposit,
		Amount:    M(amount, "GBP"),
		Reference: ref,
	}
}

func buy(date, ticker string, qty, price, total float64) TransactionRecord {
	return TransactionRecord{
		Date:     MustParseDate(date),
		Type:     TxBuy,
		Ticker:   ticker,
		Quantity: Q(qty),
		Price:    M(price, "GBP"),
		Amount:   M(total, "GBP"),
	}
}

func TestLedgerMergeDeduplicates(t *testing.T) {
	base := make([]TransactionRecord, 0, 100)
	for i := 0; i < 100; i++ {
		base = append(base, deposit("2025-01-01", float64(i+1), fmt.Sprintf("ref-%d", i)))
	}

	l := NewLedger()
	inserted, duplicates := l.Merge(base)
	require.Equal(t, 100, inserted)
	require.Equal(t, 0, duplicates)

	// A second batch overlapping the first by 20 records.
	overlap := make([]TransactionRecord, 0, 100)
	overlap = append(overlap, base[80:]...)
	for i := 0; i < 80; i++ {
		overlap = append(overlap, deposit("2025-02-01", float64(i+1), fmt.Sprintf("feb-%d", i)))
	}
	inserted, duplicates = l.Merge(overlap)
	assert.Equal(t, 80, inserted)
	assert.Equal(t, 20, duplicates)
	assert.Equal(t, 180, l.Len())
}

func TestLedgerMergeIsIdempotent(t *testing.T) {
	batch := []TransactionRecord{
		deposit("2025-03-01", 500, "d1"),
		buy("2025-03-02", "AAPL", 2, 150, 300),
	}
	l := NewLedger()
	l.Merge(batch)
	inserted, duplicates := l.Merge(batch)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 2, duplicates)
	assert.Equal(t, 2, l.Len())
}

func TestLedgerKeepsChronologicalOrder(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{
		buy("2025-03-10", "MSFT", 1, 400, 400),
		deposit("2025-01-05", 1000, "d1"),
		buy("2025-02-20", "AAPL", 1, 150, 150),
	})
	var dates []string
	for _, r := range l.Records() {
		dates = append(dates, r.Date.String())
	}
	assert.Equal(t, []string{"2025-01-05", "2025-02-20", "2025-03-10"}, dates)
	assert.Equal(t, "2025-01-05", l.OldestDate().String())
	assert.Equal(t, "2025-03-10", l.NewestDate().String())
}

func TestLedgerDistinguishesEqualDepositsByReference(t *testing.T) {
	// Two genuine deposits of the same amount on the same day carry
	// different broker references and must both survive.
	l := NewLedger()
	inserted, _ := l.Merge([]TransactionRecord{
		deposit("2025-04-01", 100, "ref-a"),
		deposit("2025-04-01", 100, "ref-b"),
	})
	assert.Equal(t, 2, inserted)
}

func TestLedgerCloneIsIndependent(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{deposit("2025-01-01", 100, "d1")})

	clone := l.Clone()
	clone.Merge([]TransactionRecord{deposit("2025-01-02", 200, "d2")})

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestLedgerCashFlowAggregates(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{
		deposit("2025-01-01", 1000, "d1"),
		deposit("2025-02-01", 500, "d2"),
		{Date: MustParseDate("2025-03-01"), Type: TxWithdrawal, Amount: M(200, "GBP"), Reference: "w1"},
		buy("2025-01-02", "AAPL", 2, 100, 200),
	})

	total, count := l.Deposits()
	assert.True(t, total.Equal(M(1500, "GBP")), "deposits %s", total)
	assert.Equal(t, 2, count)
	assert.True(t, l.Withdrawals().Equal(M(200, "GBP")))
	assert.True(t, l.HasCashFlows())
}

func TestLedgerWithdrawalsNormalizeExportSign(t *testing.T) {
	// Exports record withdrawal totals as negative cash movements; the
	// aggregate is their magnitude either way.
	l := NewLedger()
	l.Merge([]TransactionRecord{
		{Date: MustParseDate("2025-03-01"), Type: TxWithdrawal, Amount: M(-200, "GBP"), Reference: "w1"},
		{Date: MustParseDate("2025-04-01"), Type: TxWithdrawal, Amount: M(50, "GBP"), Reference: "w2"},
	})
	assert.True(t, l.Withdrawals().Equal(M(250, "GBP")), "withdrawals %s", l.Withdrawals())
}

func TestLedgerHasCashFlowsFalseForTradesOnly(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{buy("2025-01-02", "AAPL", 2, 100, 200)})
	assert.False(t, l.HasCashFlows())
}

func TestLedgerFeesSumColumnAndFeeRows(t *testing.T) {
	l := NewLedger()
	l.Merge([]TransactionRecord{
		{Date: MustParseDate("2025-01-01"), Type: TxBuy, Ticker: "AAPL", Amount: M(100, "GBP"), Fee: M(0.5, "GBP")},
		{Date: MustParseDate("2025-01-02"), Type: TxFee, Amount: M(1.2, "GBP"), Note: "custody"},
	})
	assert.True(t, l.Fees().Equal(M(1.7, "GBP")), "fees %s", l.Fees())
}

func TestLedgerTTMDividends(t *testing.T) {
	div := func(date string, amount float64) TransactionRecord {
		return TransactionRecord{
			Date:      MustParseDate(date),
			Type:      TxDividend,
			Ticker:    "AAPL",
			Result:    M(amount, "GBP"),
			Reference: "div-" + date,
		}
	}
	l := NewLedger()
	l.Merge([]TransactionRecord{
		div("2024-01-15", 10), // older than a year, excluded
		div("2025-03-15", 5),
		div("2025-06-15", 7),
	})
	got := l.TTMDividends(MustParseDate("2025-08-01"))
	assert.True(t, got.Equal(M(12, "GBP")), "ttm dividends %s", got)
}
