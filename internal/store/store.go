// Package store owns the on-disk representation of accounts and
// preferences for the nuistind daemon.
//
// Layout under the data directory:
//
//	accounts/<id>.json  one file per account, keyed by gateway username
//	preferences.json    single process-wide preferences record
//
// Accounts are loaded once per process lifetime and cached; every mutation
// goes through [Store.Save] so the cache and disk never diverge. A corrupt
// account file costs only that one record, and a corrupt preferences file
// is deleted and replaced with defaults — store failures must never stop
// the daemon from starting.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/nuistin/nuistind/internal/atomicfile"
	"github.com/nuistin/nuistind/internal/paths"
)

// Store is the durable credential and preferences store. All methods are
// safe for concurrent use by the daemon and a UI shell.
type Store struct {
	dirs paths.DataDir
	// intervalCount bounds the preferences intervalIndex; values outside
	// [0, intervalCount) reset to 0 on load and on write.
	intervalCount int

	mu       sync.Mutex
	accounts map[string]Account
	loaded   bool
	prefs    *Preferences
}

// Open creates a Store rooted at dataDir. intervalCount is the length of
// the configured re-login interval list, used to validate the preferences
// intervalIndex. No I/O happens until the first read or write.
func Open(dataDir string, intervalCount int) *Store {
	return &Store{
		dirs:          paths.DataDir{Root: dataDir},
		intervalCount: intervalCount,
	}
}

// ///////////////////////////////////////////////
// Accounts
// ///////////////////////////////////////////////

// Accounts returns every valid account record, sorted by ID. The account
// directory is scanned once per process lifetime; later calls serve the
// cache.
func (s *Store) Accounts() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	out := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Find returns the cached account with the given ID. The second return is
// false when no such account exists; lookup never fails with an error.
func (s *Store) Find(id string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	a, ok := s.accounts[id]
	return a, ok
}

// Save upserts the account into the cache and persists it to its own file,
// creating the accounts directory on first use. When RememberPassword is
// false the password is blanked first — plaintext credentials only reach
// disk when the user opted in.
func (s *Store) Save(a Account) error {
	if !a.valid() {
		return fmt.Errorf("invalid account record %q", a.ID)
	}
	if !a.RememberPassword {
		a.Password = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(s.dirs.Account(a.ID), data, 0o600); err != nil {
		return err
	}
	s.accounts[a.ID] = a
	return nil
}

// loadLocked populates the account cache from disk on first use. Malformed
// or unreadable individual records are logged and skipped so one corrupt
// file cannot block the others. Caller must hold s.mu.
func (s *Store) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.accounts = make(map[string]Account)

	entries, err := os.ReadDir(s.dirs.Accounts())
	if err != nil {
		// Directory may not exist yet; it is created on first Save.
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, paths.AccountExt) {
			continue
		}
		data, err := os.ReadFile(s.dirs.Account(strings.TrimSuffix(name, paths.AccountExt)))
		if err != nil {
			slog.Warn("skipping unreadable account record", "file", name, "error", err)
			continue
		}
		var a Account
		if err := json.Unmarshal(data, &a); err != nil {
			slog.Warn("skipping malformed account record", "file", name, "error", err)
			continue
		}
		if !a.valid() {
			slog.Warn("skipping invalid account record", "file", name)
			continue
		}
		s.accounts[a.ID] = a
	}
}
