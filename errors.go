package t212

import (
	"fmt"
	"time"
)

// UpstreamKind classifies a failed call to the brokerage API.
type UpstreamKind int

const (
	// UpstreamAuth covers rejected credentials (HTTP 401/403).
	UpstreamAuth UpstreamKind = iota
	// UpstreamNetwork covers transport failures and timeouts.
	UpstreamNetwork
	// UpstreamProtocol covers unexpected status codes and unparseable payloads.
	UpstreamProtocol
)

func (k UpstreamKind) String() string {
	switch k {
	case UpstreamAuth:
		return "auth"
	case UpstreamNetwork:
		return "network"
	case UpstreamProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// UpstreamError is a failed brokerage API call. The engine never retries
// these on its own; retry policy belongs to the caller.
type UpstreamError struct {
	Kind UpstreamKind
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s error: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RateLimitedError reports that a call arrived before the minimum interval
// between API requests had elapsed. The caller must wait Remaining before
// trying again; the call was not queued.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.Remaining.Round(time.Second))
}

// PersistenceError reports that a durable write failed. In-memory state has
// been rolled back to the last good value.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cannot persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ParseError reports a single malformed row in an imported file. It never
// fails the batch; the row is skipped and the error reported.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
