package tracker

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/types/fix"
)

func testConfig() *params.TrackerConfig {
	c := *params.DefaultTrackerConfig
	return &c
}

// fixAt builds a fix offset north of a base point; 0.0001 deg of latitude
// is roughly 11 meters.
func fixAt(latOffset float64, accuracy, speed float32, captureTime int64) *fix.Fix {
	return &fix.Fix{
		Provider:    "gps",
		Lat:         46.8721 + latOffset,
		Lon:         -113.9940,
		Accuracy:    accuracy,
		Speed:       speed,
		CaptureTime: captureTime,
	}
}

func startedTracker(t *testing.T, config *params.TrackerConfig) *Tracker {
	t.Helper()
	trk := NewTracker(config)
	if err := trk.Start(); err != nil {
		t.Fatal(err)
	}
	return trk
}

func TestOnFixIdle(t *testing.T) {
	trk := NewTracker(testConfig())
	if _, err := trk.OnFix(fixAt(0, 5, 2, 1000)); !errors.Is(err, ErrNotActive) {
		t.Errorf("have %v want ErrNotActive", err)
	}
	if _, err := trk.Stop(); !errors.Is(err, ErrNotActive) {
		t.Errorf("have %v want ErrNotActive", err)
	}
}

func TestStartTwice(t *testing.T) {
	trk := startedTracker(t, testConfig())
	if err := trk.Start(); !errors.Is(err, ErrActive) {
		t.Errorf("have %v want ErrActive", err)
	}
}

func TestSeedFixAlwaysAccepted(t *testing.T) {
	trk := startedTracker(t, testConfig())
	snap, err := trk.OnFix(fixAt(0, 5, 0, 1000))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Distance != 0 {
		t.Errorf("seed distance: have %f want 0", snap.Distance)
	}
	if snap.SessionStart != 1000 {
		t.Errorf("session start: have %d want 1000", snap.SessionStart)
	}
	trace, err := trk.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 1 {
		t.Errorf("have %d accepted want 1", len(trace))
	}
}

func TestAccuracyFilter(t *testing.T) {
	trk := startedTracker(t, testConfig())
	good, err := trk.OnFix(fixAt(0, 5, 2, 1000))
	if err != nil {
		t.Fatal(err)
	}

	// Accuracy at the threshold is rejected; the snapshot comes back
	// unchanged, still carrying the previous position.
	snap, err := trk.OnFix(fixAt(0.01, 20, 3, 2000))
	if err != nil {
		t.Fatal(err)
	}
	if snap != good {
		t.Errorf("have %+v want unchanged %+v", snap, good)
	}

	trace, err := trk.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 1 {
		t.Errorf("have %d accepted want 1", len(trace))
	}
}

func TestMovementFilter(t *testing.T) {
	trk := startedTracker(t, testConfig())
	if _, err := trk.OnFix(fixAt(0, 5, 0, 1000)); err != nil {
		t.Fatal(err)
	}

	// ~5.5 m from the seed: under the movement threshold, accurate, but
	// still not counted.
	snap, err := trk.OnFix(fixAt(0.00005, 5, 0, 2000))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Distance != 0 {
		t.Errorf("have %f want 0", snap.Distance)
	}

	// ~22 m from the seed: counted.
	snap, err = trk.OnFix(fixAt(0.0002, 5, 0, 3000))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Distance < 15 || snap.Distance > 30 {
		t.Errorf("have %f want ~22", snap.Distance)
	}

	trace, err := trk.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 2 {
		t.Errorf("have %d accepted want 2", len(trace))
	}
}

func TestPace(t *testing.T) {
	trk := startedTracker(t, testConfig())

	// 2.5 m/s is a 6:40 min/km pace.
	snap, err := trk.OnFix(fixAt(0, 5, 2.5, 1000))
	if err != nil {
		t.Fatal(err)
	}
	want := (1000.0 / 2.5) / 60.0
	if math.Abs(snap.Pace-want) > 1e-9 {
		t.Errorf("have %f want %f", snap.Pace, want)
	}

	// At or under the speed floor, pace is zero rather than absurd.
	snap, err = trk.OnFix(fixAt(0.001, 5, 0.5, 2000))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Pace != 0 {
		t.Errorf("have %f want 0", snap.Pace)
	}
}

func TestCalories(t *testing.T) {
	config := testConfig()
	config.UserWeightKg = 80
	trk := startedTracker(t, config)

	if _, err := trk.OnFix(fixAt(0, 5, 2, 1000)); err != nil {
		t.Fatal(err)
	}
	snap, err := trk.OnFix(fixAt(0.001, 5, 2, 2000))
	if err != nil {
		t.Fatal(err)
	}
	want := params.KcalPerMeterPerKg * snap.Distance * 80
	if math.Abs(snap.Calories-want) > 1e-9 {
		t.Errorf("have %f want %f", snap.Calories, want)
	}
}

func TestLazyTimeout(t *testing.T) {
	config := testConfig()
	config.SessionTimeout = 10 * time.Minute
	trk := startedTracker(t, config)

	ends := make(chan events.SessionEnd, 1)
	sub := events.SessionEndFeed.Subscribe(ends)
	defer sub.Unsubscribe()

	base := time.Now()
	trk.now = func() time.Time { return base }
	if _, err := trk.OnFix(fixAt(0, 5, 2, base.UnixMilli())); err != nil {
		t.Fatal(err)
	}
	if !trk.Active() {
		t.Fatal("session should survive a fresh fix")
	}

	// Nothing accepted for 10 minutes; the next delivery, even a filtered
	// one that moves nowhere, notices and ends the session.
	trk.now = func() time.Time { return base.Add(10 * time.Minute) }
	if _, err := trk.OnFix(fixAt(0.00001, 5, 0, base.Add(10*time.Minute).UnixMilli())); err != nil {
		t.Fatal(err)
	}
	if trk.Active() {
		t.Error("session should have timed out")
	}

	select {
	case end := <-ends:
		if end.Reason != events.EndReasonTimeout {
			t.Errorf("have %q want %q", end.Reason, events.EndReasonTimeout)
		}
		if len(end.Trace) != 1 {
			t.Errorf("have %d accepted want 1", len(end.Trace))
		}
	case <-time.After(time.Second):
		t.Error("no session end event")
	}
}

func TestStopReason(t *testing.T) {
	trk := startedTracker(t, testConfig())

	ends := make(chan events.SessionEnd, 1)
	sub := events.SessionEndFeed.Subscribe(ends)
	defer sub.Unsubscribe()

	if _, err := trk.OnFix(fixAt(0, 5, 2, 1000)); err != nil {
		t.Fatal(err)
	}
	trace, err := trk.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 1 {
		t.Errorf("have %d accepted want 1", len(trace))
	}

	select {
	case end := <-ends:
		if end.Reason != events.EndReasonUser {
			t.Errorf("have %q want %q", end.Reason, events.EndReasonUser)
		}
	case <-time.After(time.Second):
		t.Error("no session end event")
	}
}

func TestStopOnEmptySessionEmitsEmptyTrace(t *testing.T) {
	trk := startedTracker(t, testConfig())
	trace, err := trk.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 0 {
		t.Errorf("have %d accepted want 0", len(trace))
	}
}

func TestSnapshotResume(t *testing.T) {
	trk := startedTracker(t, testConfig())
	if _, err := trk.OnFix(fixAt(0, 5, 2, 1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := trk.OnFix(fixAt(0.001, 5, 2, 2000)); err != nil {
		t.Fatal(err)
	}
	snapshot, err := trk.StateSnapshot()
	if err != nil {
		t.Fatal(err)
	}

	resumed, err := Resume(testConfig(), snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if !resumed.Active() {
		t.Fatal("resumed tracker should be active")
	}
	trace, err := resumed.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 2 {
		t.Errorf("have %d accepted want 2", len(trace))
	}
}

func TestStateSnapshotIdle(t *testing.T) {
	trk := NewTracker(testConfig())
	if _, err := trk.StateSnapshot(); !errors.Is(err, ErrNotActive) {
		t.Errorf("have %v want ErrNotActive", err)
	}
}
