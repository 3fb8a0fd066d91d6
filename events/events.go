package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/rund/types/fix"
	"github.com/rotblauer/rund/types/session"
)

// EndReason tags how a session ended. Downstream consumers present a
// timeout differently than a deliberate stop, so the distinction rides on
// the event itself.
type EndReason string

const (
	EndReasonUser    EndReason = "user"
	EndReasonTimeout EndReason = "timeout"
)

// Snapshot is the live per-fix emission of the tracker: the running
// derivation plus the latest raw position. It is emitted on every
// delivered fix, accepted or filtered, because liveness must be signalled
// either way.
type Snapshot struct {
	Distance  float64 `json:"distance"` // cumulative meters
	Pace      float64 `json:"pace"`     // min/km, 0 when near-stationary
	Calories  float64 `json:"calories"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float32 `json:"accuracy"`
	Speed     float32 `json:"speed"`
	// SessionStart is the capture time of the first accepted fix,
	// epoch ms; zero until a fix has been accepted.
	SessionStart int64 `json:"sessionStartEpochMs"`
}

// SessionEnd carries the full accepted trace out of the tracker when a
// session terminates, by user stop or by timeout.
type SessionEnd struct {
	Reason EndReason `json:"reason"`
	Trace  fix.Fixes `json:"trace"`
}

// SnapshotFeed is emitted for every fix delivered to an active tracker.
var SnapshotFeed = event.FeedOf[Snapshot]{}

// SessionEndFeed is emitted exactly once per terminated session.
var SessionEndFeed = event.FeedOf[SessionEnd]{}

// SessionFinalizedFeed is emitted after a finalized session record has been
// persisted. Consumers that need the stored record wait on this feed; the
// finalizer runs on a background worker, so "session ended" becoming
// visible does not order against "record persisted".
var SessionFinalizedFeed = event.FeedOf[*session.Session]{}
