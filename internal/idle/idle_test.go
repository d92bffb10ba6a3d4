// Tests for the idle package covering baseline establishment, gap
// detection at the tolerance boundary, baseline freezing until [Detector.Reset],
// and re-arming after reset.

package idle

import (
	"testing"
	"time"
)

// fakeClock drives a Detector through simulated time.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// newTestDetector returns a detector with a 10s interval, 500ms tolerance,
// and a controllable clock.
func newTestDetector() (*Detector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	d := NewWithTolerance(10*time.Second, 500*time.Millisecond)
	d.now = func() time.Time { return clock.t }
	return d, clock
}

func TestFirstPollReturnsFalse(t *testing.T) {
	d, _ := newTestDetector()
	if d.Poll() {
		t.Error("first Poll = true, want false (no baseline yet)")
	}
}

func TestPollWithinToleranceReturnsFalse(t *testing.T) {
	d, clock := newTestDetector()
	d.Poll()

	// Exactly interval + tolerance is still considered normal delay.
	clock.advance(10*time.Second + 500*time.Millisecond)
	if d.Poll() {
		t.Error("Poll at interval+tolerance = true, want false")
	}
}

func TestPollBeyondToleranceReturnsTrue(t *testing.T) {
	d, clock := newTestDetector()
	d.Poll()

	clock.advance(10*time.Second + 501*time.Millisecond)
	if !d.Poll() {
		t.Error("Poll beyond interval+tolerance = false, want true")
	}
}

func TestGapDoesNotAdvanceBaselineUntilReset(t *testing.T) {
	d, clock := newTestDetector()
	d.Poll()

	// Simulate a long suspend.
	clock.advance(time.Hour)
	if !d.Poll() {
		t.Fatal("expected gap detection after suspend")
	}

	// Without Reset, the signal stays raised even for prompt re-polls.
	clock.advance(time.Second)
	if !d.Poll() {
		t.Error("Poll after unhandled gap = false, want true (baseline frozen)")
	}

	// Reset returns to post-construction behavior.
	d.Reset()
	if d.Poll() {
		t.Error("first Poll after Reset = true, want false")
	}
	clock.advance(5 * time.Second)
	if d.Poll() {
		t.Error("normal-cadence Poll after Reset = true, want false")
	}
}

func TestNormalCadenceNeverFires(t *testing.T) {
	d, clock := newTestDetector()
	for i := 0; i < 100; i++ {
		if d.Poll() {
			t.Fatal("Poll fired during normal cadence")
		}
		clock.advance(10 * time.Second)
	}
}

func TestDefaultTolerance(t *testing.T) {
	if DefaultTolerance != 500*time.Millisecond {
		t.Errorf("DefaultTolerance = %v, want 500ms", DefaultTolerance)
	}
}
