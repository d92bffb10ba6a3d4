package store

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/nuistin/nuistind/internal/atomicfile"
)

// Preferences is the singleton process-wide configuration record. It is
// loaded once at startup, mutated in memory through [Store.SetPreferences],
// and flushed to disk exactly once at orderly shutdown.
type Preferences struct {
	// RecentAccountID is the last account that authenticated successfully,
	// used as the default identity for unattended logins.
	RecentAccountID string `json:"recentAccountId"`
	// TrayNoticeShown records the one-shot "still running in tray" notice.
	// Persisted for the UI shell; the core never reads it.
	TrayNoticeShown bool `json:"trayNoticeShown"`
	// IntervalIndex selects an entry from the configured re-login interval
	// list. Always resolves to a valid entry; out-of-range values reset to 0.
	IntervalIndex int `json:"intervalIndex"`
}

// defaultPreferences is the documented startup state when no valid
// preferences file exists.
func defaultPreferences() Preferences {
	return Preferences{}
}

// ///////////////////////////////////////////////
// Preferences
// ///////////////////////////////////////////////

// Preferences returns a copy of the in-memory preferences, loading them
// from disk on first call. A missing file yields defaults. A file that
// exists but cannot be parsed is deleted and replaced by defaults, so
// corruption never prevents startup and never gets re-read.
func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPrefsLocked()
	return *s.prefs
}

// SetPreferences replaces the in-memory preferences with p. The change is
// not durable until [Store.FlushPreferences] runs at shutdown. IntervalIndex
// is normalized into the configured interval range.
func (s *Store) SetPreferences(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPrefsLocked()
	p.IntervalIndex = s.clampIntervalIndex(p.IntervalIndex)
	*s.prefs = p
}

// FlushPreferences writes the in-memory preferences to durable storage,
// creating the containing directory if needed. Called exactly once, at
// orderly shutdown.
func (s *Store) FlushPreferences() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPrefsLocked()

	data, err := json.Marshal(s.prefs)
	if err != nil {
		return err
	}
	return atomicfile.Write(s.dirs.Preferences(), data, 0o600)
}

// loadPrefsLocked reads the preferences file on first use. Caller must
// hold s.mu.
func (s *Store) loadPrefsLocked() {
	if s.prefs != nil {
		return
	}

	p := defaultPreferences()
	s.prefs = &p

	path := s.dirs.Preferences()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("preferences unreadable, using defaults", "error", err)
		}
		return
	}

	var loaded Preferences
	if err := json.Unmarshal(data, &loaded); err != nil {
		// Corrupt preferences are unrecoverable; remove the file so the
		// next load sees a clean absence instead of the same bad bytes.
		slog.Warn("corrupt preferences file, resetting to defaults", "error", err)
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("failed to remove corrupt preferences", "error", rmErr)
		}
		return
	}

	loaded.IntervalIndex = s.clampIntervalIndex(loaded.IntervalIndex)
	*s.prefs = loaded
}

// clampIntervalIndex resets an out-of-range interval index to the default.
func (s *Store) clampIntervalIndex(i int) int {
	if i < 0 || i >= s.intervalCount {
		return 0
	}
	return i
}
