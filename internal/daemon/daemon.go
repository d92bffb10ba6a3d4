// Package daemon keeps an authenticated campus-network session alive without
// user interaction.
//
// The package owns all background timing for the process:
//
//   - Scheduled re-login: a single periodic timer, re-armed through
//     [Daemon.ScheduleInterval], that refreshes the session before the
//     gateway expires it.
//   - Wake recovery: a poll loop backed by [idle.Detector] that spots the
//     wall-clock gap left by system sleep and re-establishes the session
//     with a deeper retry budget, since the network stack may still be
//     coming back up.
//   - Start-up login: one immediate attempt when the most recent account
//     opted in to automatic login.
//
// Login attempts run on their own goroutines so gateway latency never
// stalls the timing loops. Concurrent attempts are harmless: the gateway
// treats a login for an already-authenticated client as a success.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nuistin/nuistind/internal/gateway"
	"github.com/nuistin/nuistind/internal/idle"
	"github.com/nuistin/nuistind/internal/notify"
	"github.com/nuistin/nuistind/internal/store"
)

// resumeNotice is the success notification body for a re-login triggered by
// wake-from-sleep detection. Scheduled re-logins stay silent on success.
const resumeNotice = "Campus network session restored after system resume."

// Gateway is the login surface the daemon drives. Satisfied by
// [gateway.Client].
type Gateway interface {
	Login(ctx context.Context, account store.Account) gateway.Result
}

// Options configures a [Daemon]. All fields are required unless noted.
type Options struct {
	// Store provides account records and preferences.
	Store *store.Store
	// Client performs the two-step gateway login.
	Client Gateway
	// Detector reports wall-clock gaps caused by system sleep.
	Detector *idle.Detector
	// Notifier receives exactly one notification per finished login run
	// that has something to report.
	Notifier notify.Notifier
	// RetryBudget is the number of extra attempts after the first failure
	// for scheduled and start-up logins.
	RetryBudget int
	// WakeRetryBudget is the retry budget for wake-triggered logins, deeper
	// than [Options.RetryBudget] because the link is often still down when
	// the first attempt runs.
	WakeRetryBudget int
	// RetryDelay is the pause between consecutive attempts of one run.
	RetryDelay time.Duration
	// IdlePollInterval is how often the wake detector is polled.
	IdlePollInterval time.Duration
}

// Daemon coordinates scheduled, wake-triggered, and start-up logins for the
// most recently used account. Create with [New], start the loops with
// [Daemon.Start], and stop them with [Daemon.Close].
type Daemon struct {
	store    *store.Store
	client   Gateway
	detector *idle.Detector
	notifier notify.Notifier

	retryBudget     int
	wakeRetryBudget int
	retryDelay      time.Duration
	idlePoll        time.Duration

	// rearm carries interval changes to the schedule loop. Buffered with
	// capacity 1; stale pending intervals are dropped on re-arm.
	rearm chan time.Duration

	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a stopped [Daemon]. Call [Daemon.Start] to begin the loops.
func New(opts Options) *Daemon {
	return &Daemon{
		store:           opts.Store,
		client:          opts.Client,
		detector:        opts.Detector,
		notifier:        opts.Notifier,
		retryBudget:     opts.RetryBudget,
		wakeRetryBudget: opts.WakeRetryBudget,
		retryDelay:      opts.RetryDelay,
		idlePoll:        opts.IdlePollInterval,
		rearm:           make(chan time.Duration, 1),
		closed:          make(chan struct{}),
	}
}

// Start launches the schedule and wake loops, then fires the start-up login
// if the most recent account opted in with both RememberPassword and
// AutoLoginOnStart. The periodic timer stays unarmed until the first
// [Daemon.ScheduleInterval] call.
func (d *Daemon) Start() {
	go d.scheduleLoop()
	go d.wakeLoop()

	prefs := d.store.Preferences()
	account, ok := d.store.Find(prefs.RecentAccountID)
	if !ok || !account.RememberPassword || !account.AutoLoginOnStart {
		return
	}
	slog.Info("auto-login on start", "account", account.ID)
	go d.LoginRecent(d.retryBudget, "")
}

// ScheduleInterval cancels any armed periodic timer and re-arms it with the
// given interval. The first fire happens one full interval from now; there
// is no immediate fire. A non-positive interval disarms the timer.
func (d *Daemon) ScheduleInterval(interval time.Duration) {
	for {
		select {
		case d.rearm <- interval:
			return
		case <-d.closed:
			return
		default:
		}
		// Drop the stale pending interval and retry.
		select {
		case <-d.rearm:
		default:
		}
	}
}

// Close stops the schedule and wake loops. In-flight login attempts run to
// completion best-effort. Safe to call more than once.
func (d *Daemon) Close() {
	d.closeOnce.Do(func() {
		close(d.closed)
	})
}

// ///////////////////////////////////////////////
// Loops
// ///////////////////////////////////////////////

// scheduleLoop owns the periodic re-login ticker. It is the only goroutine
// that touches the ticker; [Daemon.ScheduleInterval] communicates through
// the rearm channel.
func (d *Daemon) scheduleLoop() {
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-d.closed:
			return

		case interval := <-d.rearm:
			if ticker != nil {
				ticker.Stop()
				ticker, tick = nil, nil
			}
			if interval <= 0 {
				slog.Info("periodic re-login disarmed")
				continue
			}
			ticker = time.NewTicker(interval)
			tick = ticker.C
			slog.Info("periodic re-login armed", "interval", interval)

		case <-tick:
			slog.Debug("scheduled re-login fired")
			go d.LoginRecent(d.retryBudget, "")
		}
	}
}

// wakeLoop polls the idle detector. The detector is not safe for concurrent
// use; this loop is its only caller.
func (d *Daemon) wakeLoop() {
	ticker := time.NewTicker(d.idlePoll)
	defer ticker.Stop()

	for {
		select {
		case <-d.closed:
			return
		case <-ticker.C:
			if !d.detector.Poll() {
				continue
			}
			d.detector.Reset()
			slog.Info("system resume detected, re-establishing session")
			go d.LoginRecent(d.wakeRetryBudget, resumeNotice)
		}
	}
}

// ///////////////////////////////////////////////
// Login
// ///////////////////////////////////////////////

// LoginRecent runs one login sequence for the most recently used account:
// an initial attempt plus up to budget retries, pausing the configured
// delay between attempts. No-op when no recent account is recorded or the
// record is gone from the store.
//
// On success the account is re-recorded as most recent and, when wakeNotice
// is non-empty, a success notification carrying it is emitted. On
// exhaustion exactly one failure notification is emitted with the outcome's
// human-readable description. Returns the result of the final attempt, or
// an [gateway.Unattempted] result when no attempt ran.
func (d *Daemon) LoginRecent(budget int, wakeNotice string) gateway.Result {
	prefs := d.store.Preferences()
	if prefs.RecentAccountID == "" {
		slog.Debug("no recent account recorded, skipping login")
		return gateway.Result{}
	}
	account, ok := d.store.Find(prefs.RecentAccountID)
	if !ok {
		slog.Warn("recent account missing from store", "account", prefs.RecentAccountID)
		return gateway.Result{}
	}

	res := d.loginWithRetry(account, budget)

	select {
	case <-d.closed:
		// Shutting down; suppress notifications for an aborted run.
		return res
	default:
	}

	if res.Succeeded() {
		prefs = d.store.Preferences()
		prefs.RecentAccountID = account.ID
		d.store.SetPreferences(prefs)
		slog.Info("login succeeded", "account", account.ID)
		if wakeNotice != "" {
			d.notifier.Notify("Connected", wakeNotice, notify.SeveritySuccess)
		}
		return res
	}

	slog.Error("login failed after all attempts",
		"account", account.ID, "attempts", budget+1, "outcome", res.Outcome)
	d.notifier.Notify("Login failed", res.Outcome.Message(), notify.SeverityError)
	return res
}

// loginWithRetry performs up to budget+1 attempts, sleeping the retry delay
// between them. Returns early on the first success or when the daemon
// closes mid-pause.
func (d *Daemon) loginWithRetry(account store.Account, budget int) gateway.Result {
	var res gateway.Result
	for attempt := 0; attempt <= budget; attempt++ {
		if attempt > 0 {
			select {
			case <-d.closed:
				return res
			case <-time.After(d.retryDelay):
			}
		}
		res = d.client.Login(context.Background(), account)
		if res.Succeeded() {
			return res
		}
		slog.Warn("login attempt failed",
			"account", account.ID, "attempt", attempt+1, "outcome", res.Outcome, "error", res.Err)
	}
	return res
}
