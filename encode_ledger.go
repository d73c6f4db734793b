package t212

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// The ledger is persisted as JSON Lines: one transaction object per line,
// chronological order, no enclosing array. The format survives appends from
// other tools, diffs cleanly, and every line is independently parseable.

// EncodeLedger writes the ledger to w, one record per line.
func EncodeLedger(w io.Writer, l *Ledger) error {
	enc := json.NewEncoder(w)
	for _, r := range l.Records() {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLedger reads a JSON Lines ledger from r. Blank lines are skipped; a
// malformed line fails the whole decode, since a persisted ledger is always
// written by EncodeLedger and a broken line means a corrupt file.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	l := NewLedger()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var batch []TransactionRecord
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec TransactionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", line, err)
		}
		batch = append(batch, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	l.Merge(batch)
	return l, nil
}
