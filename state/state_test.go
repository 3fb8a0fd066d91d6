package state

import (
	"testing"

	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/types/session"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestInsertSessionAssignsSequentialIDs(t *testing.T) {
	s := testStore(t)

	a := &session.Session{StartTime: 1000, EndTime: 2000, ActivityType: "walking"}
	b := &session.Session{StartTime: 3000, EndTime: 4000, ActivityType: "running"}
	if err := s.InsertSession(a); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertSession(b); err != nil {
		t.Fatal(err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("have ids %d,%d want 1,2", a.ID, b.ID)
	}

	got, err := s.Session(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.StartTime != a.StartTime || got.ActivityType != "walking" {
		t.Errorf("have %+v want %+v", got, a)
	}
}

func TestSessionAbsent(t *testing.T) {
	s := testStore(t)
	got, err := s.Session(42)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("have %+v want nil", got)
	}
}

func TestSessionsBetweenInclusive(t *testing.T) {
	s := testStore(t)
	for _, start := range []int64{1000, 2000, 3000, 4000} {
		if err := s.InsertSession(&session.Session{StartTime: start}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SessionsBetween(2000, 3000)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("have %d want 2", len(got))
	}
	// Both bounds are inclusive; sessions landing exactly on them count.
	if got[0].StartTime != 2000 || got[1].StartTime != 3000 {
		t.Errorf("have %d,%d want 2000,3000", got[0].StartTime, got[1].StartTime)
	}

	none, err := s.SessionsBetween(5000, 6000)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("have %d want 0", len(none))
	}
}

func TestCorrectActivityType(t *testing.T) {
	s := testStore(t)
	sess := &session.Session{StartTime: 1000, ActivityType: "running", Distance: 5000}
	if err := s.InsertSession(sess); err != nil {
		t.Fatal(err)
	}
	if err := s.CorrectActivityType(sess.ID, "walking"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Session(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ActivityType != "walking" {
		t.Errorf("have %q want walking", got.ActivityType)
	}
	// Everything else stays put.
	if got.Distance != 5000 || got.StartTime != 1000 {
		t.Errorf("have %+v, non-activity fields must not change", got)
	}

	if err := s.CorrectActivityType(999, "walking"); err == nil {
		t.Error("correcting a missing session should error")
	}
}

func TestTrackerStateRoundTrip(t *testing.T) {
	s := testStore(t)

	if got, err := s.TrackerState(); err != nil || got != nil {
		t.Fatalf("have %v,%v want nil,nil on fresh store", got, err)
	}

	snapshot := []byte(`{"distance":123.4}`)
	if err := s.StoreTrackerState(snapshot); err != nil {
		t.Fatal(err)
	}
	got, err := s.TrackerState()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(snapshot) {
		t.Errorf("have %s want %s", got, snapshot)
	}

	if err := s.ClearTrackerState(); err != nil {
		t.Fatal(err)
	}
	if got, err := s.TrackerState(); err != nil || got != nil {
		t.Errorf("have %v,%v want nil,nil after clear", got, err)
	}
}

func TestLastKnown(t *testing.T) {
	s := testStore(t)

	if _, ok := s.LastKnown(); ok {
		t.Error("fresh store should have no last known snapshot")
	}
	snap := events.Snapshot{Distance: 42, Latitude: 46.87, Longitude: -113.99}
	s.SetLastKnown(snap)
	got, ok := s.LastKnown()
	if !ok {
		t.Fatal("snapshot should be cached")
	}
	if got != snap {
		t.Errorf("have %+v want %+v", got, snap)
	}
}
