package t212

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
)

// Client talks to the Trading 212 public API. It performs exactly one
// logical operation, "get current positions for this account", and wraps it
// in the process-wide rate gate. It never retries: retry policy belongs to
// the caller.
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	gate    *rateGate
	log     zerolog.Logger

	positionsTimeout time.Duration
	cashTimeout      time.Duration
	currency         string
	now              func() time.Time
}

// NewClient builds a client from the configuration. The gate is owned by
// the client but shared by every caller of FetchPositions.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		key:              cfg.APIKey,
		secret:           cfg.APISecret,
		http:             &http.Client{},
		gate:             newRateGate(cfg.MinRefreshGap),
		log:              log.With().Str("component", "client").Logger(),
		positionsTimeout: cfg.PositionsTimeout,
		cashTimeout:      cfg.CashTimeout,
		currency:         cfg.Currency,
		now:              time.Now,
	}
}

// positionPayload mirrors the documented shape of /equity/positions.
type positionPayload struct {
	Instrument struct {
		Ticker string `json:"ticker"`
	} `json:"instrument"`
	Quantity         float64 `json:"quantity"`
	AveragePricePaid float64 `json:"averagePricePaid"`
	CurrentPrice     float64 `json:"currentPrice"`
	WalletImpact     struct {
		CurrentValue         float64 `json:"currentValue"`
		UnrealizedProfitLoss float64 `json:"unrealizedProfitLoss"`
		TotalCost            float64 `json:"totalCost"`
	} `json:"walletImpact"`
}

// FetchPositions returns a full snapshot of all held instruments and the
// free cash balance in one round trip pair. It fails fast with
// RateLimitedError when called before the minimum interval has elapsed.
func (c *Client) FetchPositions(ctx context.Context) (*Snapshot, error) {
	if err := c.gate.take(); err != nil {
		return nil, err
	}

	var items []positionPayload
	if err := c.getJSON(ctx, "/equity/positions", c.positionsTimeout, &items); err != nil {
		return nil, err
	}
	c.log.Debug().Int("positions", len(items)).Msg("fetched positions")

	cash, err := c.fetchCash(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		FetchedAt: c.now(),
		Cash:      cash,
		Positions: make(map[string]Position, len(items)),
	}
	for _, item := range items {
		ticker := normalizeTicker(item.Instrument.Ticker)
		if ticker == "" {
			c.log.Warn().Str("raw", item.Instrument.Ticker).Msg("skipping position without ticker")
			continue
		}
		snap.Positions[ticker] = Position{
			Ticker:       ticker,
			Quantity:     Q(item.Quantity),
			AveragePrice: M(item.AveragePricePaid, c.currency),
			CurrentPrice: M(item.CurrentPrice, c.currency),
			Value:        M(item.WalletImpact.CurrentValue, c.currency),
			UnrealizedPL: M(item.WalletImpact.UnrealizedProfitLoss, c.currency),
			TotalCost:    M(item.WalletImpact.TotalCost, c.currency),
		}
	}
	snap.finalize()
	return snap, nil
}

// fetchCash reads the free cash balance. The cash payload is loosely
// documented and has carried the balance under several keys over time, so
// the known candidates are probed in order.
func (c *Client) fetchCash(ctx context.Context) (Money, error) {
	var payload any
	if err := c.getJSON(ctx, "/equity/account/cash", c.cashTimeout, &payload); err != nil {
		return Money{}, err
	}
	for _, key := range []string{"free", "freeCash", "cash", "available"} {
		jval, err := jsonpath.Get("$."+key, payload)
		if err != nil {
			continue
		}
		if val, ok := jval.(float64); ok {
			return M(val, c.currency).Round(), nil
		}
	}
	c.log.Warn().Msg("no recognized cash key in payload, defaulting to zero")
	return M(0, c.currency), nil
}

// getJSON performs one authenticated GET and decodes the JSON body,
// classifying every failure mode into the upstream error taxonomy.
func (c *Client) getJSON(ctx context.Context, path string, timeout time.Duration, into any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &UpstreamError{Kind: UpstreamProtocol, Err: err}
	}
	req.SetBasicAuth(c.key, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport failures look the same from here.
		return &UpstreamError{Kind: UpstreamNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &UpstreamError{Kind: UpstreamAuth, Err: fmt.Errorf("GET %s: %s", path, resp.Status)}
	case resp.StatusCode == http.StatusTooManyRequests:
		retry := c.retryAfter(resp)
		c.gate.backoff(retry)
		return &RateLimitedError{Remaining: retry}
	default:
		return &UpstreamError{Kind: UpstreamProtocol, Err: fmt.Errorf("GET %s: %s", path, resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Kind: UpstreamNetwork, Err: err}
	}
	if err := json.Unmarshal(body, into); err != nil {
		return &UpstreamError{Kind: UpstreamProtocol, Err: fmt.Errorf("GET %s: %w", path, err)}
	}
	return nil
}

func (c *Client) retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.gate.min
}

// normalizeTicker maps the API's instrument codes ("TSLl_US_EQ") to plain
// tickers: everything after the first underscore is the venue suffix, and
// some instruments carry a lowercase 'l' marker on the symbol itself.
func normalizeTicker(raw string) string {
	t, _, _ := strings.Cut(raw, "_")
	t = strings.TrimSuffix(t, "l")
	return strings.ToUpper(t)
}
