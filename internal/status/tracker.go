// internal/status/tracker.go
package status

import (
	"math"
	"time"
)

// Tracker folds session events into a Snapshot.
// Not safe for concurrent use; the owner serialises calls.
type Tracker struct {
	snap       Snapshot
	errorSince time.Time
}

// NewTracker starts idle with unknown health.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{State: StateIdle, Health: HealthUnknown}}
}

// Starting resets the session counters.
func (t *Tracker) Starting() {
	t.snap = Snapshot{State: StateStarting, Health: HealthUnknown}
	t.errorSince = time.Time{}
}

// Running records the constructed device kind.
func (t *Tracker) Running(deviceName string) {
	t.snap.State = StateRunning
	t.snap.Device = deviceName
}

// StartFailed returns to idle and keeps the construction error visible.
func (t *Tracker) StartFailed(err error) {
	t.snap.State = StateIdle
	t.snap.Device = ""
	t.snap.Health = HealthError
	t.snap.LastErrorCode = Code(err)
	t.snap.LastError = err.Error()
	t.snap.SecondsInError = 0
	t.errorSince = time.Time{}
}

// Stopped returns to idle. Counters and the last error stay readable.
func (t *Tracker) Stopped() {
	t.snap.State = StateIdle
	t.snap.Health = HealthDisabled
	t.snap.SecondsInError = 0
	t.errorSince = time.Time{}
}

// Success records a published reading.
func (t *Tracker) Success(at time.Time) {
	t.snap.Ticks++
	t.snap.Health = HealthOK
	t.snap.SecondsInError = 0
	t.snap.LastReadingAt = at
	t.errorSince = time.Time{}
}

// Failure records a skipped tick.
func (t *Tracker) Failure(err error, at time.Time) {
	t.snap.Ticks++
	t.snap.Failures++
	t.snap.Health = HealthError
	t.snap.LastErrorCode = Code(err)
	t.snap.LastError = err.Error()

	if t.errorSince.IsZero() {
		t.errorSince = at
	}
	t.snap.SecondsInError = secondsSince(t.errorSince, at)
}

// Snapshot returns the current view.
func (t *Tracker) Snapshot() Snapshot {
	return t.snap
}

func secondsSince(from, to time.Time) uint16 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	s := math.Floor(d.Seconds())
	if s > SecondsInErrorMax {
		return SecondsInErrorMax
	}
	return uint16(s)
}
