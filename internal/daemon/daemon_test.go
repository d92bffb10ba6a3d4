package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nuistin/nuistind/internal/gateway"
	"github.com/nuistin/nuistind/internal/idle"
	"github.com/nuistin/nuistind/internal/notify"
	"github.com/nuistin/nuistind/internal/store"
)

// ///////////////////////////////////////////////
// Fakes
// ///////////////////////////////////////////////

// fakeGateway records attempt times and replays a scripted outcome sequence;
// the last outcome repeats once the script is exhausted.
type fakeGateway struct {
	mu     sync.Mutex
	times  []time.Time
	script []gateway.Outcome
}

func (f *fakeGateway) Login(_ context.Context, _ store.Account) gateway.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.times = append(f.times, time.Now())
	i := len(f.times) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	out := f.script[i]
	if out == gateway.Succeeded {
		return gateway.Result{Outcome: out}
	}
	return gateway.Result{Outcome: out, Err: errors.New("scripted failure")}
}

func (f *fakeGateway) attempts() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.times...)
}

type notification struct {
	title    string
	body     string
	severity notify.Severity
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) Notify(title, body string, severity notify.Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{title, body, severity})
}

func (f *fakeNotifier) notifications() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.sent...)
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

const testAccountID = "20230001"

// newTestStore returns a store seeded with one remembered account recorded
// as most recent.
func newTestStore(t *testing.T, autoLogin bool) *store.Store {
	t.Helper()
	s := store.Open(t.TempDir(), 4)
	acct := store.Account{
		ID:               testAccountID,
		Password:         "secret",
		Carrier:          store.CarrierTelecom,
		RememberPassword: true,
		AutoLoginOnStart: autoLogin,
	}
	if err := s.Save(acct); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	prefs := s.Preferences()
	prefs.RecentAccountID = testAccountID
	s.SetPreferences(prefs)
	return s
}

func newTestDaemon(s *store.Store, gw Gateway, n notify.Notifier, budget, wakeBudget int) *Daemon {
	return New(Options{
		Store:            s,
		Client:           gw,
		Detector:         idle.New(time.Hour),
		Notifier:         n,
		RetryBudget:      budget,
		WakeRetryBudget:  wakeBudget,
		RetryDelay:       20 * time.Millisecond,
		IdlePollInterval: 10 * time.Millisecond,
	})
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// ///////////////////////////////////////////////
// LoginRecent
// ///////////////////////////////////////////////

func TestLoginRecentNoRecentAccount(t *testing.T) {
	s := store.Open(t.TempDir(), 4)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	n := &fakeNotifier{}
	d := newTestDaemon(s, gw, n, 0, 0)
	defer d.Close()

	res := d.LoginRecent(3, resumeNotice)

	if len(gw.attempts()) != 0 {
		t.Errorf("attempts = %d, want 0", len(gw.attempts()))
	}
	if len(n.notifications()) != 0 {
		t.Errorf("notifications = %d, want 0", len(n.notifications()))
	}
	if res.Outcome != gateway.Unattempted {
		t.Errorf("outcome = %v, want Unattempted", res.Outcome)
	}
	if res.Succeeded() {
		t.Error("no-op login reports success")
	}
}

func TestLoginRecentExhaustsBudget(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.GatewayRejected}}
	n := &fakeNotifier{}
	d := newTestDaemon(s, gw, n, 0, 0)
	defer d.Close()

	res := d.LoginRecent(2, "")

	if res.Outcome != gateway.GatewayRejected {
		t.Errorf("outcome = %v, want GatewayRejected", res.Outcome)
	}
	times := gw.attempts()
	if len(times) != 3 {
		t.Fatalf("attempts = %d, want 3", len(times))
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < 20*time.Millisecond {
			t.Errorf("gap between attempt %d and %d = %v, want >= 20ms", i, i+1, gap)
		}
	}
	sent := n.notifications()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	if sent[0].severity != notify.SeverityError {
		t.Errorf("severity = %v, want error", sent[0].severity)
	}
	if sent[0].body != gateway.GatewayRejected.Message() {
		t.Errorf("body = %q, want %q", sent[0].body, gateway.GatewayRejected.Message())
	}
}

func TestLoginRecentSucceedsAfterRetry(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.TimedOut, gateway.Succeeded}}
	n := &fakeNotifier{}
	d := newTestDaemon(s, gw, n, 0, 0)
	defer d.Close()

	res := d.LoginRecent(5, "")

	if !res.Succeeded() {
		t.Fatalf("result = %+v, want success", res)
	}
	if got := len(gw.attempts()); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	// Silent success: no wake notice was given.
	if got := len(n.notifications()); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}
	if got := s.Preferences().RecentAccountID; got != testAccountID {
		t.Errorf("recent account = %q, want %q", got, testAccountID)
	}
}

func TestLoginRecentWakeNotice(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	n := &fakeNotifier{}
	d := newTestDaemon(s, gw, n, 0, 0)
	defer d.Close()

	d.LoginRecent(0, resumeNotice)

	sent := n.notifications()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	if sent[0].severity != notify.SeveritySuccess {
		t.Errorf("severity = %v, want success", sent[0].severity)
	}
	if sent[0].body != resumeNotice {
		t.Errorf("body = %q, want %q", sent[0].body, resumeNotice)
	}
}

// ///////////////////////////////////////////////
// Schedule Loop
// ///////////////////////////////////////////////

func TestScheduleIntervalFiresPeriodically(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	n := &fakeNotifier{}
	d := newTestDaemon(s, gw, n, 0, 0)
	defer d.Close()
	d.Start()

	armed := time.Now()
	d.ScheduleInterval(30 * time.Millisecond)

	if !waitFor(t, 2*time.Second, func() bool { return len(gw.attempts()) >= 2 }) {
		t.Fatalf("attempts = %d, want >= 2", len(gw.attempts()))
	}
	// No immediate fire: the first attempt waits a full interval.
	if first := gw.attempts()[0]; first.Sub(armed) < 25*time.Millisecond {
		t.Errorf("first fire after %v, want >= ~30ms", first.Sub(armed))
	}
}

func TestScheduleIntervalDisarm(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	d := newTestDaemon(s, gw, &fakeNotifier{}, 0, 0)
	defer d.Close()
	d.Start()

	d.ScheduleInterval(20 * time.Millisecond)
	waitFor(t, 2*time.Second, func() bool { return len(gw.attempts()) >= 1 })
	d.ScheduleInterval(0)

	// Let any in-flight fire drain, then verify the count stays put.
	time.Sleep(60 * time.Millisecond)
	before := len(gw.attempts())
	time.Sleep(100 * time.Millisecond)
	if after := len(gw.attempts()); after != before {
		t.Errorf("attempts grew from %d to %d after disarm", before, after)
	}
}

// ///////////////////////////////////////////////
// Wake Loop
// ///////////////////////////////////////////////

func TestWakeTriggersLogin(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	n := &fakeNotifier{}
	// A detector window far smaller than the poll interval makes every
	// poll after the first look like a resume.
	d := New(Options{
		Store:            s,
		Client:           gw,
		Detector:         idle.NewWithTolerance(time.Millisecond, 0),
		Notifier:         n,
		RetryBudget:      0,
		WakeRetryBudget:  2,
		RetryDelay:       10 * time.Millisecond,
		IdlePollInterval: 10 * time.Millisecond,
	})
	defer d.Close()
	d.Start()

	if !waitFor(t, 2*time.Second, func() bool { return len(n.notifications()) >= 1 }) {
		t.Fatal("no wake notification")
	}
	sent := n.notifications()
	if sent[0].body != resumeNotice {
		t.Errorf("body = %q, want %q", sent[0].body, resumeNotice)
	}
	if sent[0].severity != notify.SeveritySuccess {
		t.Errorf("severity = %v, want success", sent[0].severity)
	}
	if len(gw.attempts()) < 1 {
		t.Error("wake produced no login attempt")
	}
}

// ///////////////////////////////////////////////
// Start / Close
// ///////////////////////////////////////////////

func TestAutoLoginOnStart(t *testing.T) {
	s := newTestStore(t, true)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	d := newTestDaemon(s, gw, &fakeNotifier{}, 0, 0)
	defer d.Close()
	d.Start()

	if !waitFor(t, 2*time.Second, func() bool { return len(gw.attempts()) >= 1 }) {
		t.Error("auto-login produced no attempt")
	}
}

func TestNoAutoLoginWithoutOptIn(t *testing.T) {
	s := newTestStore(t, false)
	gw := &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}
	d := newTestDaemon(s, gw, &fakeNotifier{}, 0, 0)
	defer d.Close()
	d.Start()

	time.Sleep(100 * time.Millisecond)
	if got := len(gw.attempts()); got != 0 {
		t.Errorf("attempts = %d, want 0", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := newTestStore(t, false)
	d := newTestDaemon(s, &fakeGateway{script: []gateway.Outcome{gateway.Succeeded}}, &fakeNotifier{}, 0, 0)
	d.Start()
	d.Close()
	d.Close()

	// ScheduleInterval after close must not block.
	done := make(chan struct{})
	go func() {
		d.ScheduleInterval(time.Minute)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ScheduleInterval blocked after Close")
	}
}
