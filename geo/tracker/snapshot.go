package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/params"
)

// StateSnapshot serializes the live accumulator so a session can survive a
// process restart. It is a plain data marshal, decoupled from any hosting
// lifecycle; pair with Resume. Returns ErrNotActive when Idle.
func (t *Tracker) StateSnapshot() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil, ErrNotActive
	}
	return json.Marshal(t.state)
}

// Resume reconstructs an Active tracker from a StateSnapshot payload.
// The returned tracker continues the interrupted session: same trace, same
// running totals, same timeout clock (measured from the last accepted
// fix's capture time, so a long downtime will end the session on the next
// fix, which is the correct outcome).
func Resume(config *params.TrackerConfig, snapshot []byte) (*Tracker, error) {
	s := &State{}
	if err := json.Unmarshal(snapshot, s); err != nil {
		return nil, fmt.Errorf("tracker: resume: %w", err)
	}
	t := NewTracker(config)
	t.state = s
	t.active = true
	// Rebuild the liveness snapshot from the last accepted fix, so a
	// filtered fix arriving right after resume re-emits something sane.
	if n := len(s.Accepted); n > 0 {
		last := s.Accepted[n-1]
		s.lastSnapshot = events.Snapshot{
			Distance:     s.Distance,
			Pace:         s.Pace,
			Calories:     s.Calories,
			Latitude:     last.Lat,
			Longitude:    last.Lon,
			Accuracy:     last.Accuracy,
			Speed:        last.Speed,
			SessionStart: s.sessionStart(),
		}
	}
	return t, nil
}
