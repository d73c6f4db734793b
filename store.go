package t212

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// File names inside the data directory. Everything the engine remembers
// between runs lives in these four files.
const (
	ledgerFile   = "transactions.jsonl"
	extremaFile  = "extrema.json"
	historyFile  = "netgain.json"
	cacheFile    = "positions_cache.json"
	settingsFile = "settings.json"
)

// Store owns the data directory. Every write is atomic: content goes to a
// temp file in the same directory and is renamed over the target, so a crash
// mid-write leaves the previous version intact.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates the data directory if needed and returns a store over it.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PersistenceError{Path: dir, Err: err}
	}
	return &Store{dir: dir, log: log.With().Str("component", "store").Logger()}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// writeAtomic replaces the named file with content in one rename.
func (s *Store) writeAtomic(name string, content []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return &PersistenceError{Path: s.path(name), Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return &PersistenceError{Path: s.path(name), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Path: s.path(name), Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return &PersistenceError{Path: s.path(name), Err: err}
	}
	s.log.Debug().Str("file", name).Int("bytes", len(content)).Msg("persisted")
	return nil
}

// loadJSON reads the named file into v. A missing file is not an error: v is
// left untouched and ok is false, so callers start from empty state.
func (s *Store) loadJSON(name string, v any) (ok bool, err error) {
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Path: s.path(name), Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, &PersistenceError{Path: s.path(name), Err: err}
	}
	return true, nil
}

func (s *Store) saveJSON(name string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistenceError{Path: s.path(name), Err: err}
	}
	return s.writeAtomic(name, append(content, '\n'))
}

// LoadLedger reads the persisted transaction history, or returns an empty
// ledger when none exists yet.
func (s *Store) LoadLedger() (*Ledger, error) {
	raw, err := os.ReadFile(s.path(ledgerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, &PersistenceError{Path: s.path(ledgerFile), Err: err}
	}
	l, err := DecodeLedger(bytes.NewReader(raw))
	if err != nil {
		return nil, &PersistenceError{Path: s.path(ledgerFile), Err: err}
	}
	return l, nil
}

// SaveLedger persists the whole transaction history atomically.
func (s *Store) SaveLedger(l *Ledger) error {
	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		return &PersistenceError{Path: s.path(ledgerFile), Err: err}
	}
	return s.writeAtomic(ledgerFile, buf.Bytes())
}

// LoadExtrema reads the persisted per-instrument price ranges, or returns an
// empty tracker when none exists yet.
func (s *Store) LoadExtrema() (*Extrema, error) {
	e := NewExtrema()
	if _, err := s.loadJSON(extremaFile, e); err != nil {
		return nil, err
	}
	return e, nil
}

// SaveExtrema persists the per-instrument price ranges.
func (s *Store) SaveExtrema(e *Extrema) error { return s.saveJSON(extremaFile, e) }

// LoadHistory reads the persisted net-gain series, or returns an empty one.
func (s *Store) LoadHistory() (*NetGainHistory, error) {
	h := NewNetGainHistory()
	if _, err := s.loadJSON(historyFile, h); err != nil {
		return nil, err
	}
	return h, nil
}

// SaveHistory persists the net-gain series.
func (s *Store) SaveHistory(h *NetGainHistory) error { return s.saveJSON(historyFile, h) }

// LoadSnapshot reads the cached positions snapshot. Returns (nil, nil) when
// no cache file exists: a missing cache is normal on first run.
func (s *Store) LoadSnapshot() (*Snapshot, error) {
	var snap Snapshot
	ok, err := s.loadJSON(cacheFile, &snap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// SaveSnapshot persists the positions snapshot for reuse across runs.
func (s *Store) SaveSnapshot(snap *Snapshot) error { return s.saveJSON(cacheFile, snap) }
