// Package tracker is the live session engine: a two-state machine that
// eats raw location fixes one at a time and accumulates the running
// distance, pace, and calorie state of one run/walk session.
//
// A fix passes the accuracy gate before the movement gate, so a single
// high-accuracy-but-stationary reading still signals liveness without
// corrupting distance. The two thresholds are tuned independently, which
// keeps emulator traces (low accuracy, zero speed) usable in testing.
package tracker

import (
	"errors"
	"sync"
	"time"

	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/types/fix"
)

var ErrNotActive = errors.New("tracker: no active session")
var ErrActive = errors.New("tracker: session already active")

// State is the mutable accumulator of one session. It is owned exclusively
// by the Tracker between Start and session end, and is discarded once the
// trace is handed off for finalization.
type State struct {
	// Accepted is the append-only trace of fixes that passed both gates.
	Accepted fix.Fixes `json:"accepted"`

	// Distance is cumulative meters over consecutive accepted fixes.
	Distance float64 `json:"distance"`

	// Calories is the running kcal estimate.
	Calories float64 `json:"calories"`

	// Pace is the transient min/km figure, recomputed per fix and zero
	// when the mover is near-stationary.
	Pace float64 `json:"pace"`

	// LastAcceptedAt is the capture time (epoch ms) of the last accepted
	// fix; the timeout clock measures from here.
	LastAcceptedAt int64 `json:"lastAcceptedAt"`

	lastSnapshot events.Snapshot
}

func (s *State) sessionStart() int64 {
	if len(s.Accepted) == 0 {
		return 0
	}
	return s.Accepted[0].CaptureTime
}

// Tracker is the Idle/Active state machine. Delivery is serialized with a
// mutex, so fixes may arrive from any goroutine; each OnFix runs to
// completion before the next is admitted.
type Tracker struct {
	Config *params.TrackerConfig

	mu     sync.Mutex
	active bool
	state  *State

	// now is swapped in tests; the timeout compare is against wall clock.
	now func() time.Time
}

func NewTracker(config *params.TrackerConfig) *Tracker {
	if config == nil {
		config = params.DefaultTrackerConfig
	}
	return &Tracker{
		Config: config,
		now:    time.Now,
	}
}

// Active reports whether a session is in progress.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Start transitions Idle -> Active with fresh state.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return ErrActive
	}
	t.state = &State{Accepted: fix.Fixes{}}
	t.active = true
	return nil
}

// OnFix is the sole Active-state transition. It filters the fix, updates
// the accumulator, emits a snapshot (on every call, accepted or not), and
// lazily checks the inactivity timeout. Session end by timeout is observed
// on the SessionEndFeed; there is no background timer, so a timed-out
// session is only noticed when the next fix arrives or Stop is called.
func (t *Tracker) OnFix(f *fix.Fix) (events.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return events.Snapshot{}, ErrNotActive
	}
	s := t.state

	// Inaccurate fixes are dropped before they can touch state, but the
	// unchanged snapshot still goes out: the service-alive signal must
	// fire even for filtered input. Rejection is the normal path here,
	// not a failure.
	if float64(f.Accuracy) >= t.Config.MinAccuracy {
		events.SnapshotFeed.Send(s.lastSnapshot)
		return s.lastSnapshot, nil
	}

	if len(s.Accepted) == 0 {
		// Seed fix: accepted unconditionally, contributes no distance.
		s.Accepted = append(s.Accepted, f)
		s.LastAcceptedAt = f.CaptureTime
	} else if d := f.DistanceTo(s.Accepted[len(s.Accepted)-1]); d >= t.Config.MinSumDistance {
		s.Distance += d
		s.Accepted = append(s.Accepted, f)
		s.LastAcceptedAt = f.CaptureTime
	}

	// Pace in minutes-per-km, undefined (zero) at near-stationary speeds
	// to keep 1000/speed from blowing up.
	s.Pace = 0
	if float64(f.Speed) > t.Config.PaceSpeedThreshold {
		s.Pace = (1000 / float64(f.Speed)) / 60
	}

	if s.Distance > 0 {
		s.Calories = params.KcalPerMeterPerKg * s.Distance * float64(t.Config.UserWeightKg)
	}

	snap := events.Snapshot{
		Distance:     s.Distance,
		Pace:         s.Pace,
		Calories:     s.Calories,
		Latitude:     f.Lat,
		Longitude:    f.Lon,
		Accuracy:     f.Accuracy,
		Speed:        f.Speed,
		SessionStart: s.sessionStart(),
	}
	s.lastSnapshot = snap
	events.SnapshotFeed.Send(snap)

	if t.now().UnixMilli()-s.LastAcceptedAt >= t.Config.SessionTimeout.Milliseconds() {
		t.endLocked(events.EndReasonTimeout)
	}
	return snap, nil
}

// Stop is the explicit user-initiated Active -> Idle transition. The full
// accepted trace rides out on the SessionEndFeed and the return value,
// regardless of timeout state.
func (t *Tracker) Stop() (fix.Fixes, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil, ErrNotActive
	}
	trace := t.state.Accepted
	t.endLocked(events.EndReasonUser)
	return trace, nil
}

func (t *Tracker) endLocked(reason events.EndReason) {
	events.SessionEndFeed.Send(events.SessionEnd{
		Reason: reason,
		Trace:  t.state.Accepted,
	})
	t.active = false
	t.state = nil
}
