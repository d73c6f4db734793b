package t212

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTicker(t *testing.T) {
	tests := map[string]string{
		"AAPL_US_EQ": "AAPL",
		"VUSAl_EQ":   "VUSA",
		"TSLA_US_EQ": "TSLA",
		"BARC_GB_EQ": "BARC",
		"msft":       "MSFT",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeTicker(in), "input %q", in)
	}
}

func newTestClient(url string) *Client {
	cfg := DefaultConfig("")
	cfg.BaseURL = url
	cfg.APIKey, cfg.APISecret = "key", "secret"
	return NewClient(cfg, zerolog.Nop())
}

func TestClientMapsUpstreamRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchPositions(context.Background())
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 2*time.Minute, rl.Remaining)

	// The upstream's Retry-After also pushes out the local gate.
	err = c.gate.take()
	require.ErrorAs(t, err, &rl)
	assert.Greater(t, rl.Remaining, time.Minute)
}

func TestClientMapsProtocolErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPositions(context.Background())
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, UpstreamProtocol, up.Kind)
}

func TestClientMapsNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv.URL).FetchPositions(context.Background())
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, UpstreamNetwork, up.Kind)
}

func TestClientMapsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPositions(context.Background())
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, UpstreamProtocol, up.Kind)
}

func TestClientProbesCashKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/equity/positions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	mux.HandleFunc("/equity/account/cash", func(w http.ResponseWriter, r *http.Request) {
		// An older payload shape without the "free" key.
		w.Write([]byte(`{"freeCash": 42.5, "blocked": 0}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snap, err := newTestClient(srv.URL).FetchPositions(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Cash.Equal(M(42.5, "GBP")), "cash %s", snap.Cash)
}
