package t212

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// This file parses the broker's CSV transaction exports. The export format
// is stable in spirit but not in letter: column order varies, headers get
// renamed between app versions ("No. of shares" vs "Shares"), and fee-like
// charges appear as one or several columns. Parsing is therefore tolerant:
// headers are matched by alias, unknown columns are ignored, and malformed
// rows are skipped and reported instead of failing the batch.

// columnAliases maps a logical field to lowercase header fragments that
// identify it in an export.
var columnAliases = map[string][]string{
	"date":      {"time", "date"},
	"type":      {"action", "type"},
	"ticker":    {"ticker"},
	"quantity":  {"no. of shares", "shares", "quantity"},
	"price":     {"price / share", "price"},
	"amount":    {"total"},
	"result":    {"result"},
	"currency":  {"currency (total)", "currency"},
	"note":      {"notes", "note"},
	"reference": {"id", "reference"},
}

// feeColumnFragments identify charge columns that are summed into one fee.
var feeColumnFragments = []string{"fee", "tax", "stamp", "conversion"}

// ParseTransactions reads one CSV export and returns the normalized records
// plus one ParseError per rejected row. The error return is reserved for
// unreadable input (no header, broken CSV framing); row-level problems never
// fail the batch. Source tags each record with its provenance.
func ParseTransactions(r io.Reader, source string) ([]TransactionRecord, []*ParseError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read header of %s: %w", source, err)
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.ToLower(strings.TrimSpace(h))
	}

	// Prefix matching keeps "Price / share" from being shadowed by
	// "Currency (Price / share)"; alias order is priority order.
	cols := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			for i, name := range names {
				if strings.HasPrefix(name, alias) {
					cols[field] = i
					break
				}
			}
			if _, ok := cols[field]; ok {
				break
			}
		}
	}

	var feeCols []int
	for i, name := range names {
		for _, frag := range feeColumnFragments {
			if strings.Contains(name, frag) {
				feeCols = append(feeCols, i)
				break
			}
		}
	}
	if _, ok := cols["date"]; !ok {
		return nil, nil, fmt.Errorf("%s: no date column in header %v", source, header)
	}

	var records []TransactionRecord
	var rejected []*ParseError
	line := 1
	for {
		line++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rejected = append(rejected, &ParseError{Source: source, Line: line, Err: err})
			continue
		}
		rec, err := parseRow(row, cols, feeCols, source)
		if err != nil {
			rejected = append(rejected, &ParseError{Source: source, Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}

func parseRow(row []string, cols map[string]int, feeCols []int, source string) (TransactionRecord, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	day, err := ParseDate(field("date"))
	if err != nil {
		return TransactionRecord{}, err
	}

	currency := field("currency")
	num := func(name string) (decimal.Decimal, error) {
		s := field(name)
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, s, err)
		}
		return d, nil
	}

	quantity, err := num("quantity")
	if err != nil {
		return TransactionRecord{}, err
	}
	price, err := num("price")
	if err != nil {
		return TransactionRecord{}, err
	}
	amount, err := num("amount")
	if err != nil {
		return TransactionRecord{}, err
	}
	result, err := num("result")
	if err != nil {
		return TransactionRecord{}, err
	}

	fee := decimal.Zero
	for _, i := range feeCols {
		if i >= len(row) {
			continue
		}
		s := strings.TrimSpace(row[i])
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			// Fee columns sometimes hold the fee currency instead of a
			// number; a non-numeric cell is not worth rejecting the row.
			continue
		}
		fee = fee.Add(d)
	}

	return TransactionRecord{
		Date:      day,
		Type:      ParseTxType(field("type")),
		Ticker:    strings.ToUpper(field("ticker")),
		Quantity:  Q(quantity),
		Price:     M(price, currency),
		Amount:    M(amount, currency),
		Fee:       M(fee, currency),
		Result:    M(result, currency),
		Note:      field("note"),
		Reference: field("reference"),
		Source:    source,
	}, nil
}
