package t212

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	md "github.com/nao1215/markdown"
)

// Markdown renderers for the CLI. They produce plain markdown; terminal
// styling happens in the command layer.

// SummaryMarkdown renders the account overview.
func SummaryMarkdown(s *Summary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Account Summary on %s", s.GeneratedAt.Format("2006-01-02 15:04")))

	doc.Table(md.TableSet{
		Header: []string{"", "Value"},
		Rows: [][]string{
			{"Market value", s.MarketValue.String()},
			{"Free cash", fmt.Sprintf("%s (%.1f%%)", s.Cash, s.CashPct)},
			{"Total assets", s.TotalAssets.String()},
			{"Unrealized P/L", s.UnrealizedPL.SignedString()},
		},
	})

	doc.H2("Lifetime")
	netGain := s.NetGain.SignedString()
	if s.Reliable && s.Deposits.IsPositive() {
		netGain = fmt.Sprintf("%s (%+.1f%%)", s.NetGain.SignedString(), s.TotalReturnPct)
	}
	if !s.Reliable {
		netGain = "n/a (no deposit history)"
	}
	doc.Table(md.TableSet{
		Header: []string{"", "Value"},
		Rows: [][]string{
			{fmt.Sprintf("Deposits (%d)", s.DepositCount), s.Deposits.String()},
			{"Withdrawals", s.Withdrawals.String()},
			{"Fees and taxes", s.Fees.String()},
			{"Realized P/L", s.RealizedPL.SignedString()},
			{"Dividends (TTM)", s.TTMDividends.String()},
			{"Net gain", netGain},
		},
	})

	if len(s.Warnings) > 0 {
		doc.H2("Warnings")
		doc.BulletList(s.Warnings...)
	}
	return doc.String()
}

// PositionsMarkdown renders the snapshot's positions as a table, largest
// holding first.
func PositionsMarkdown(snap *Snapshot) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Positions as of %s", snap.FetchedAt.Format("2006-01-02 15:04")))

	positions := make([]Position, 0, len(snap.Positions))
	for _, p := range snap.Positions {
		positions = append(positions, p)
	}
	slices.SortFunc(positions, func(a, b Position) int {
		if a.Value.GreaterThan(b.Value) {
			return -1
		}
		if a.Value.LessThan(b.Value) {
			return 1
		}
		return 0
	})

	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		pl := p.UnrealizedPL.SignedString()
		if p.PLEstimated {
			pl += " *"
		}
		rows = append(rows, []string{
			p.Ticker,
			p.Quantity.String(),
			p.CurrentPrice.String(),
			p.Value.String(),
			pl,
			fmt.Sprintf("%.1f%%", p.PortfolioPct),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Ticker", "Shares", "Price", "Value", "P/L", "Weight"},
		Rows:   rows,
	})

	doc.PlainText(fmt.Sprintf("Free cash: %s", snap.Cash))
	for _, p := range positions {
		if p.PLEstimated {
			doc.PlainText("\\* P/L estimated from the price spread.")
			break
		}
	}
	return doc.String()
}

// HistoryMarkdown renders the net-gain series: the overall trend, then the
// most recent points.
func HistoryMarkdown(h *NetGainHistory, recent int) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Net Gain History")
	if h.Len() == 0 {
		doc.PlainText("No samples recorded yet.")
		return doc.String()
	}

	first := h.Points[0]
	last := h.Points[len(h.Points)-1]
	doc.PlainText(fmt.Sprintf("%d samples from %s to %s, change %s.",
		h.Len(),
		first.Time.Format("2006-01-02"),
		last.Time.Format("2006-01-02"),
		last.Value.Sub(first.Value).SignedString(),
	))

	points := h.Points
	if recent > 0 && len(points) > recent {
		points = points[len(points)-recent:]
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Time.Format(time.DateTime),
			p.Value.SignedString(),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Recorded", "Net gain"},
		Rows:   rows,
	})
	return doc.String()
}
