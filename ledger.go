package t212

import (
	"iter"
	"maps"
	"slices"
	"sort"
)

// Ledger is the canonical transaction history: deduplicated, strictly
// non-decreasing by date. It is mutated only by Merge.
type Ledger struct {
	records []TransactionRecord
	index   map[identity]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make([]TransactionRecord, 0),
		index:   make(map[identity]struct{}),
	}
}

// Merge folds new records into the ledger. Records whose identity tuple is
// already present are discarded as duplicates; survivors are appended and
// the ledger re-sorted by date (stable, so same-day records keep their
// relative order). Merging the same export twice inserts nothing the second
// time.
func (l *Ledger) Merge(records []TransactionRecord) (inserted, duplicates int) {
	for _, r := range records {
		id := r.identity()
		if _, exists := l.index[id]; exists {
			duplicates++
			continue
		}
		l.index[id] = struct{}{}
		l.records = append(l.records, r)
		inserted++
	}
	if inserted > 0 {
		l.stableSort()
	}
	return inserted, duplicates
}

// Clone returns an independent copy of the ledger. Merge-then-persist works
// on a clone so a failed write never leaves the live ledger half-updated.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		records: slices.Clone(l.records),
		index:   maps.Clone(l.index),
	}
}

// stableSort sorts the ledger by record date. Same-day records keep their
// original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.records, func(i, j int) bool {
		return l.records[i].Date.Before(l.records[j].Date)
	})
}

// Records returns an iterator over the ledger in chronological order.
func (l *Ledger) Records() iter.Seq2[int, TransactionRecord] {
	return func(yield func(int, TransactionRecord) bool) {
		for i, r := range l.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Len returns the number of records in the ledger.
func (l *Ledger) Len() int { return len(l.records) }

// OldestDate returns the date of the earliest record, or the zero Date for
// an empty ledger.
func (l *Ledger) OldestDate() Date {
	if len(l.records) == 0 {
		return Date{}
	}
	return l.records[0].Date
}

// NewestDate returns the date of the latest record, or the zero Date for an
// empty ledger.
func (l *Ledger) NewestDate() Date {
	if len(l.records) == 0 {
		return Date{}
	}
	return l.records[len(l.records)-1].Date
}

// HasCashFlows reports whether the ledger contains any deposit or
// withdrawal. Net gain is meaningless without them.
func (l *Ledger) HasCashFlows() bool {
	for _, r := range l.records {
		if r.Type.IsCashFlow() {
			return true
		}
	}
	return false
}

// Deposits returns the cumulative deposited amount and the deposit count.
func (l *Ledger) Deposits() (total Money, count int) {
	for _, r := range l.records {
		if r.Type == TxDeposit {
			total = total.Add(r.Amount)
			count++
		}
	}
	return total, count
}

// Withdrawals returns the cumulative withdrawn amount, always positive.
// Broker exports record withdrawal totals as negative cash movements, so the
// magnitude is summed regardless of the recorded sign.
func (l *Ledger) Withdrawals() Money {
	var total Money
	for _, r := range l.records {
		if r.Type == TxWithdrawal {
			total = total.Add(r.Amount.Abs())
		}
	}
	return total
}

// Fees returns the cumulative fees, taxes and duties across all records.
func (l *Ledger) Fees() Money {
	var total Money
	for _, r := range l.records {
		total = total.Add(r.Fee)
		if r.Type == TxFee {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// RealizedPL returns the sum of the broker-reported result column: realized
// gains and losses on closed positions plus cash dividends.
func (l *Ledger) RealizedPL() Money {
	var total Money
	for _, r := range l.records {
		total = total.Add(r.Result)
	}
	return total
}

// TTMDividends returns dividends received in the trailing twelve months
// before the given day.
func (l *Ledger) TTMDividends(on Date) Money {
	var total Money
	cutoff := on.Add(-365)
	for _, r := range l.records {
		if r.Date.After(on) {
			// The ledger is sorted by date, so it's safe to break.
			break
		}
		if r.Type == TxDividend && !r.Date.Before(cutoff) && r.Result.IsPositive() {
			total = total.Add(r.Result)
		}
	}
	return total
}
