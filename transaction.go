package t212

import "strings"

// TxType is the economic category of a ledger record.
type TxType string

const (
	TxDeposit    TxType = "Deposit"
	TxWithdrawal TxType = "Withdrawal"
	TxBuy        TxType = "Buy"
	TxSell       TxType = "Sell"
	TxDividend   TxType = "Dividend"
	TxFee        TxType = "Fee"
	TxOther      TxType = "Other"
)

// ParseTxType normalizes the broker's action strings ("Market buy",
// "Dividend (Ordinary)", "Withdrawal", ...) into a TxType. Unrecognized
// actions are kept as TxOther rather than rejected.
func ParseTxType(action string) TxType {
	s := strings.ToLower(strings.TrimSpace(action))
	switch {
	case strings.Contains(s, "buy"):
		return TxBuy
	case strings.Contains(s, "sell"):
		return TxSell
	case strings.Contains(s, "deposit"):
		return TxDeposit
	case strings.Contains(s, "withdraw"):
		return TxWithdrawal
	case strings.Contains(s, "dividend"):
		return TxDividend
	case strings.Contains(s, "fee"), strings.Contains(s, "tax"), strings.Contains(s, "stamp"):
		return TxFee
	default:
		return TxOther
	}
}

// IsCashFlow reports whether the type moves money in or out of the account.
func (t TxType) IsCashFlow() bool { return t == TxDeposit || t == TxWithdrawal }

// TransactionRecord is one normalized row of broker transaction history.
// Ticker is empty for pure cash movements; Quantity and Price are zero for
// anything that is not a trade.
type TransactionRecord struct {
	Date      Date     `json:"date"`
	Type      TxType   `json:"type"`
	Ticker    string   `json:"ticker,omitempty"`
	Quantity  Quantity `json:"quantity"`
	Price     Money    `json:"price"`
	Amount    Money    `json:"amount"`
	Fee       Money    `json:"fee"`
	Result    Money    `json:"result"`
	Note      string   `json:"note,omitempty"`
	Reference string   `json:"reference,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// identity is the deduplication key: two records with the same identity are
// the same economic event regardless of which export file they came from.
// The broker's reference id, when present, distinguishes otherwise identical
// rows (two equal deposits on the same day are both real).
type identity struct {
	date      Date
	typ       TxType
	ticker    string
	amount    string
	reference string
}

func (r TransactionRecord) identity() identity {
	return identity{
		date:      r.Date,
		typ:       r.Type,
		ticker:    r.Ticker,
		amount:    r.Amount.key(),
		reference: r.Reference,
	}
}
