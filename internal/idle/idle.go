// Package idle infers system sleep/suspend from gaps between clock samples.
//
// The daemon cannot observe suspend directly, but a process that was not
// scheduled for much longer than its polling interval almost certainly
// slept through it. On resume the network state is unknown, so the daemon
// treats a detected gap as "re-authenticate now".
package idle

import "time"

// DefaultTolerance absorbs scheduler jitter: a gap only counts as a
// sleep/resume when it exceeds the poll interval by more than this margin.
const DefaultTolerance = 500 * time.Millisecond

// Detector detects abnormally large gaps between successive [Detector.Poll]
// calls. Not safe for concurrent use; the daemon polls it from a single
// loop.
type Detector struct {
	interval  time.Duration
	tolerance time.Duration
	// last is the previous sample; zero means no baseline yet.
	last time.Time
	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a Detector for the given poll interval with
// [DefaultTolerance].
func New(interval time.Duration) *Detector {
	return NewWithTolerance(interval, DefaultTolerance)
}

// NewWithTolerance creates a Detector with an explicit jitter margin.
func NewWithTolerance(interval, tolerance time.Duration) *Detector {
	return &Detector{
		interval:  interval,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Poll samples the clock and reports whether a sleep/resume gap occurred
// since the previous sample.
//
// The first call after construction or [Detector.Reset] only records a
// baseline and returns false. When a gap is detected the baseline is NOT
// advanced: every subsequent Poll keeps returning true until the caller
// handles the wake event and calls Reset, so one long sleep produces one
// signal rather than one per poll.
func (d *Detector) Poll() bool {
	present := d.now()
	if d.last.IsZero() {
		d.last = present
		return false
	}
	if present.Sub(d.last) > d.interval+d.tolerance {
		return true
	}
	d.last = present
	return false
}

// Reset clears the baseline, returning the detector to its
// post-construction state.
func (d *Detector) Reset() {
	d.last = time.Time{}
}
