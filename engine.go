package t212

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Staleness and concentration thresholds for summary warnings.
const (
	staleAfter          = 10 * time.Minute
	concentrationLimitP = 25.0
)

// Engine is the single entry point of the package: it owns the ledger, the
// price extrema, the net-gain history, the positions cache and the durable
// store, and keeps them consistent with each other. Internal state only
// changes through its methods; callers drive it from a single goroutine, the
// way a command invocation or a serialized watch loop does.
type Engine struct {
	cfg      Config
	store    *Store
	cache    *PositionCache
	fallback FallbackStrategy
	log      zerolog.Logger
	now      func() time.Time

	ledger  *Ledger
	extrema *Extrema
	history *NetGainHistory
}

// NewEngine loads all persisted state from the config's data directory and
// wires the components together. A fresh directory yields an empty but fully
// working engine.
func NewEngine(cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := NewStore(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}
	ledger, err := store.LoadLedger()
	if err != nil {
		return nil, err
	}
	extrema, err := store.LoadExtrema()
	if err != nil {
		return nil, err
	}
	history, err := store.LoadHistory()
	if err != nil {
		return nil, err
	}
	cached, err := store.LoadSnapshot()
	if err != nil {
		// The snapshot cache only saves one upstream call; an unreadable
		// file must not keep the engine from starting.
		log.Warn().Err(err).Msg("ignoring unreadable snapshot cache")
		cached = nil
	}

	e := &Engine{
		cfg:      cfg,
		store:    store,
		fallback: DefaultFallback(),
		log:      log.With().Str("component", "engine").Logger(),
		now:      time.Now,
		ledger:   ledger,
		extrema:  extrema,
		history:  history,
	}
	client := NewClient(cfg, log)
	e.cache = NewPositionCache(client, cfg.CacheTTL, log, e.onFreshSnapshot)
	e.cache.Seed(cached)

	e.log.Info().
		Int("transactions", ledger.Len()).
		Int("instruments", len(extrema.Ranges)).
		Int("history_points", history.Len()).
		Bool("cached_snapshot", cached != nil).
		Msg("engine ready")
	return e, nil
}

// onFreshSnapshot runs on every successful fetch, before the snapshot is
// published. Price observation must happen here so the extrema never miss a
// snapshot a reader has seen; persistence of both is best effort, a failed
// disk write does not invalidate good live data.
func (e *Engine) onFreshSnapshot(snap *Snapshot) {
	e.extrema.ObserveSnapshot(snap)
	if err := e.store.SaveExtrema(e.extrema); err != nil {
		e.log.Warn().Err(err).Msg("cannot persist price extrema")
	}
	if err := e.store.SaveSnapshot(snap); err != nil {
		e.log.Warn().Err(err).Msg("cannot persist snapshot cache")
	}
}

// ImportReport summarizes one ImportTransactionFiles call.
type ImportReport struct {
	Inserted   int
	Duplicates int
	Rejected   []*ParseError
	Total      int // ledger size after the import
}

// ImportTransactionFiles parses the given CSV exports and merges their
// records into the ledger. Malformed rows are skipped and reported in the
// result; re-importing a file is harmless. The merge is atomic: either the
// enlarged ledger is persisted and becomes current, or the ledger is
// unchanged.
func (e *Engine) ImportTransactionFiles(paths ...string) (*ImportReport, error) {
	report := &ImportReport{}
	var batch []TransactionRecord
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", path, err)
		}
		records, rejected, err := ParseTransactions(f, filepath.Base(path))
		f.Close()
		if err != nil {
			return nil, err
		}
		batch = append(batch, records...)
		report.Rejected = append(report.Rejected, rejected...)
	}

	next := e.ledger.Clone()
	report.Inserted, report.Duplicates = next.Merge(batch)
	if report.Inserted > 0 {
		if err := e.store.SaveLedger(next); err != nil {
			return nil, err
		}
		e.ledger = next
	}
	report.Total = e.ledger.Len()
	e.log.Info().
		Int("inserted", report.Inserted).
		Int("duplicates", report.Duplicates).
		Int("rejected", len(report.Rejected)).
		Int("total", report.Total).
		Msg("transactions imported")
	return report, nil
}

// RequestPositions returns the current positions, served from cache when
// fresh. Positions whose reported P/L fails the plausibility check come back
// with a locally estimated P/L and PLEstimated set.
func (e *Engine) RequestPositions(ctx context.Context) (*Snapshot, error) {
	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.applyFallback(snap), nil
}

// applyFallback returns a copy of the snapshot with implausible zero P/L
// values replaced by the fallback estimate. The cached snapshot itself is
// never modified.
func (e *Engine) applyFallback(snap *Snapshot) *Snapshot {
	out := &Snapshot{
		FetchedAt: snap.FetchedAt,
		Cash:      snap.Cash,
		Positions: make(map[string]Position, len(snap.Positions)),
	}
	for t, p := range snap.Positions {
		if est, ok := e.fallback.EstimatePL(p); ok {
			e.log.Debug().Str("ticker", t).Stringer("estimate", est).Msg("using fallback P/L")
			p.UnrealizedPL = est
			p.PLEstimated = true
		}
		out.Positions[t] = p
	}
	return out
}

// RefreshStatus tells the caller what a net-gain update attempt did.
type RefreshStatus int

const (
	// RefreshOK means a fresh snapshot was fetched.
	RefreshOK RefreshStatus = iota
	// RefreshTryAgainLater means the call hit the rate limit and nothing was
	// fetched or recorded; retry after RetryIn.
	RefreshTryAgainLater
)

// RefreshResult is the outcome of RequestNetGainUpdate.
type RefreshResult struct {
	Status   RefreshStatus
	RetryIn  time.Duration
	Appended bool
	Snapshot *Snapshot
}

// RequestNetGainUpdate forces a refresh and records a net-gain sample from
// the result. Hitting the rate limit is an expected outcome, not an error:
// it comes back as RefreshTryAgainLater with the remaining wait. The sample
// is appended and persisted atomically; on a failed persist the in-memory
// series keeps its previous value.
func (e *Engine) RequestNetGainUpdate(ctx context.Context) (*RefreshResult, error) {
	snap, err := e.cache.Refresh(ctx)
	if err != nil {
		var rl *RateLimitedError
		if errors.As(err, &rl) {
			e.log.Info().Dur("retry_in", rl.Remaining).Msg("refresh rate limited")
			return &RefreshResult{Status: RefreshTryAgainLater, RetryIn: rl.Remaining}, nil
		}
		return nil, err
	}

	res := &RefreshResult{Status: RefreshOK, Snapshot: e.applyFallback(snap)}
	next := e.history.Clone()
	if !next.Record(e.ledger, snap, e.now()) {
		e.log.Warn().Msg("no deposits or withdrawals in ledger, net gain not recorded")
		return res, nil
	}
	if err := e.store.SaveHistory(next); err != nil {
		return nil, err
	}
	e.history = next
	res.Appended = true
	if p, ok := next.Latest(); ok {
		e.log.Info().Stringer("net_gain", p.Value).Int("points", next.Len()).Msg("net gain recorded")
	}
	return res, nil
}

// History returns a copy of the recorded net-gain series.
func (e *Engine) History() *NetGainHistory { return e.history.Clone() }

// Ledger returns the live ledger. Callers must treat it as read-only.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// PriceRange returns the observed price band for a ticker.
func (e *Engine) PriceRange(ticker string) (PriceRange, bool) { return e.extrema.Range(ticker) }

// Summary is a full account overview derived from the ledger and the latest
// snapshot.
type Summary struct {
	GeneratedAt time.Time
	Snapshot    *Snapshot

	MarketValue  Money
	Cash         Money
	CashPct      float64
	TotalAssets  Money
	UnrealizedPL Money

	Deposits     Money
	DepositCount int
	Withdrawals  Money
	Fees         Money
	RealizedPL   Money
	TTMDividends Money

	// NetGain is zero with Reliable false when the ledger lacks the cash
	// flows needed to compute it. TotalReturnPct is net gain over
	// deposits, only meaningful when Reliable.
	NetGain        Money
	TotalReturnPct float64
	Reliable       bool

	Warnings []string
}

// Summarize builds the account overview. It reads positions through the
// cache, so it may serve slightly stale data; when it does, a warning says
// so.
func (e *Engine) Summarize(ctx context.Context) (*Summary, error) {
	snap, err := e.RequestPositions(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	s := &Summary{
		GeneratedAt:  now,
		Snapshot:     snap,
		MarketValue:  snap.MarketValue().Round(),
		Cash:         snap.Cash,
		TotalAssets:  snap.TotalAssets().Round(),
		UnrealizedPL: snap.TotalUnrealizedPL().Round(),
		Withdrawals:  e.ledger.Withdrawals(),
		Fees:         e.ledger.Fees().Round(),
		RealizedPL:   e.ledger.RealizedPL().Round(),
		TTMDividends: e.ledger.TTMDividends(Today()),
	}
	s.Deposits, s.DepositCount = e.ledger.Deposits()

	if s.TotalAssets.IsPositive() {
		s.CashPct = s.Cash.AsFloat() / s.TotalAssets.AsFloat() * 100
	}
	if e.ledger.HasCashFlows() {
		s.NetGain = netGain(e.ledger, snap)
		s.Reliable = true
		if s.Deposits.IsPositive() {
			s.TotalReturnPct = s.NetGain.AsFloat() / s.Deposits.AsFloat() * 100
		}
	}

	if age := snap.Age(now); age > staleAfter {
		s.Warnings = append(s.Warnings, fmt.Sprintf("position data is %s old", age.Round(time.Minute)))
	}
	for _, p := range snap.Positions {
		if p.PortfolioPct > concentrationLimitP {
			s.Warnings = append(s.Warnings, fmt.Sprintf("%s is %.1f%% of the portfolio", p.Ticker, p.PortfolioPct))
		}
	}
	return s, nil
}
