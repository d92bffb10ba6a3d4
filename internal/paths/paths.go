// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile         = "daemon.pid"
	ConfigFile      = "config.toml"
	LogFile         = "daemon.log"
	PreferencesFile = "preferences.json"
	AccountsDir     = "accounts"
	AccountExt      = ".json"

	// DataDirRel is the default data directory, relative to $HOME.
	DataDirRel = ".nuistin"
)

// AccountFile returns the file name for an account record.
// For example, AccountFile("201783920111") returns "201783920111.json".
func AccountFile(id string) string {
	return id + AccountExt
}

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Preferences returns the full path to the preferences file.
func (d DataDir) Preferences() string { return filepath.Join(d.Root, PreferencesFile) }

// Accounts returns the full path to the account records directory.
func (d DataDir) Accounts() string { return filepath.Join(d.Root, AccountsDir) }

// Account returns the full path to a single account record file.
func (d DataDir) Account(id string) string {
	return filepath.Join(d.Accounts(), AccountFile(id))
}
