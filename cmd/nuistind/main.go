// Package main implements the nuistind daemon, which keeps a campus
// captive-portal network session authenticated across gateway expiry and
// system sleep.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	rootpkg "github.com/nuistin/nuistind"
	"github.com/nuistin/nuistind/internal/config"
	"github.com/nuistin/nuistind/internal/daemon"
	"github.com/nuistin/nuistind/internal/gateway"
	"github.com/nuistin/nuistind/internal/idle"
	"github.com/nuistin/nuistind/internal/logger"
	"github.com/nuistin/nuistind/internal/notify"
	"github.com/nuistin/nuistind/internal/paths"
	"github.com/nuistin/nuistind/internal/store"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags (-X main.version=...). When
// ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically, so dev builds get a useful version string
// without needing git at runtime.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise VCS revision and dirty
// state embedded by the Go toolchain are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// PID Management
// ///////////////////////////////////////////////

// pidToken generates a random 16-character hex token used to prove ownership
// of the PID file, so [removePID] only deletes the file if this instance wrote it.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// writePID creates or opens the PID file at [DataPaths.PID], acquires an
// advisory file lock, and writes "PID:TOKEN" content. The returned file handle
// must be kept open for the lifetime of the daemon to hold the lock; pass it to
// [removePID] on shutdown.
func writePID(paths DataPaths, token string) (*os.File, error) {
	f, err := os.OpenFile(paths.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock PID file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	content := fmt.Sprintf("%d:%s", os.Getpid(), token)
	if _, err := f.WriteString(content); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return f, nil
}

// removePID releases the advisory lock, closes the file handle, and removes the
// PID file only if the stored token matches, preventing accidental removal of a
// file owned by a different daemon instance.
func removePID(paths DataPaths, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(paths.PID())
	if err != nil {
		return
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) == 2 && parts[1] == token {
		os.Remove(paths.PID())
	}
}

// checkStalePID checks whether another daemon instance is running. It attempts
// to acquire the advisory lock on the PID file; if the lock fails, another
// instance holds it. If the lock succeeds, any previous instance is dead and
// the stale file is cleaned up.
func checkStalePID(paths DataPaths) (alive bool, pid int) {
	f, err := os.OpenFile(paths.PID(), os.O_RDWR, 0o600)
	if err != nil {
		return false, 0
	}

	if lockErr := lockFile(f); lockErr != nil {
		data, _ := os.ReadFile(paths.PID())
		f.Close()
		parts := strings.SplitN(string(data), ":", 2)
		if len(parts) >= 1 {
			if p, convErr := strconv.Atoi(parts[0]); convErr == nil {
				return true, p
			}
		}
		return true, 0
	}

	// Lock acquired -- previous instance is dead. Clean up stale file.
	_ = unlockFile(f)
	f.Close()
	os.Remove(paths.PID())
	return false, 0
}

// ///////////////////////////////////////////////
// Wiring
// ///////////////////////////////////////////////

// buildNotifier selects the notification sink from config: the desktop sink
// when notifications are enabled, otherwise the log-only sink.
func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Notify.Enabled {
		return notify.Desktop{AppName: cfg.Notify.AppName}
	}
	return notify.Log{}
}

// currentInterval resolves the active re-login interval: the config's
// interval list indexed by the persisted preference. The store clamps the
// index against the startup interval list, but a hot-reload can shorten
// the list underneath a persisted index, so the index is re-clamped here
// against whatever list cfg holds now. Out of range falls back to the
// first entry, never to a crash.
func currentInterval(cfg *config.Config, st *store.Store) time.Duration {
	intervals := cfg.Intervals()
	idx := st.Preferences().IntervalIndex
	if idx < 0 || idx >= len(intervals) {
		idx = 0
	}
	return intervals[idx]
}

// ///////////////////////////////////////////////
// Default Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns the platform default directory for daemon data,
// typically ~/.nuistin. Falls back to ./.nuistin if the home directory
// cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	dataDir := flag.String("data-dir", defaultDataDir(), "Data directory for config, accounts, and logs")
	once := flag.Bool("once", false, "Log in the most recent account once and exit")
	flag.Parse()

	paths := DataPaths{Root: *dataDir}

	if err := os.MkdirAll(paths.Root, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: create data dir: %v\n", err)
		os.Exit(1)
	}

	if _, err := os.Stat(paths.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(paths.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(paths.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := logger.ParseLevel(cfg.Log.Level)
	log, logCloser, err := logger.NewLogger(paths.Log(), logLevel, cfg.Log.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	st := store.Open(paths.Root, len(cfg.Schedule.IntervalsMinutes))
	client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Timeout())

	d := daemon.New(daemon.Options{
		Store:            st,
		Client:           client,
		Detector:         idle.NewWithTolerance(cfg.IdlePollInterval(), cfg.IdleTolerance()),
		Notifier:         buildNotifier(cfg),
		RetryBudget:      cfg.Schedule.RetryBudget,
		WakeRetryBudget:  cfg.Schedule.WakeRetryBudget,
		RetryDelay:       cfg.RetryDelay(),
		IdlePollInterval: cfg.IdlePollInterval(),
	})

	if *once {
		os.Exit(runOnce(d, st, cfg))
	}

	if alive, pid := checkStalePID(paths); alive {
		fmt.Fprintf(os.Stderr, "daemon already running (pid %d)\n", pid)
		os.Exit(1)
	}

	slog.Info("nuistind starting", "version", resolveVersion(), "data_dir", paths.Root)

	token := pidToken()
	pidFile, err := writePID(paths, token)
	if err != nil {
		slog.Error("failed to write PID file", "error", err)
		os.Exit(1)
	}
	defer removePID(paths, token, pidFile)

	watcher, err := config.NewWatcher(paths.Root)
	if err != nil {
		slog.Error("failed to watch config", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()
	if watcher.Polling() {
		slog.Info("using polling mode for config watching")
	}

	d.Start()
	d.ScheduleInterval(currentInterval(cfg, st))
	defer d.Close()

	run(d, st, cfg, watcher, paths)

	if err := st.FlushPreferences(); err != nil {
		slog.Warn("failed to flush preferences", "error", err)
	}
	slog.Info("nuistind stopped")
}

// runOnce performs a single synchronous login for the most recent account
// and returns the process exit code. Used by the -once flag for scripted
// and cron-driven invocations.
func runOnce(d *daemon.Daemon, st *store.Store, cfg *config.Config) int {
	defer d.Close()
	res := d.LoginRecent(cfg.Schedule.RetryBudget, "")
	if err := st.FlushPreferences(); err != nil {
		slog.Warn("failed to flush preferences", "error", err)
	}
	if !res.Succeeded() {
		fmt.Fprintf(os.Stderr, "login failed: %s\n", res.Outcome.Message())
		return 1
	}
	return 0
}

// ///////////////////////////////////////////////
// Event Loop
// ///////////////////////////////////////////////

// run blocks until an interrupt or terminate signal arrives, reloading the
// config and re-arming the re-login timer whenever the config file changes
// on disk.
func run(d *daemon.Daemon, st *store.Store, cfg *config.Config, watcher *config.Watcher, dataPaths DataPaths) {
	sigCh := signalChannel()

	for {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			return

		case <-watcher.Events():
			newCfg, err := config.Load(dataPaths.Root)
			if err != nil {
				slog.Warn("config reload failed, keeping previous config", "error", err)
				continue
			}
			// Schedule changes apply live; gateway, idle, notify, and log
			// settings are wired at startup and need a restart.
			if newCfg.Gateway != cfg.Gateway {
				slog.Info("gateway settings changed, restart to apply")
			}
			*cfg = *newCfg
			d.ScheduleInterval(currentInterval(cfg, st))
			slog.Info("config reloaded", "interval", currentInterval(cfg, st))
		}
	}
}
