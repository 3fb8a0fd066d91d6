package session

import "time"

// Session is the persisted summary record of one completed tracking
// session. It is written once by the finalizer and immutable after insert,
// except that the activity type may be corrected by the user.
type Session struct {
	// ID is assigned by the store on insert, never by callers.
	ID uint64 `json:"id"`

	// StartTime is the Unix epoch ms of the first accepted fix.
	StartTime int64 `json:"startTime"`

	// EndTime is the Unix epoch ms of the last accepted fix.
	EndTime int64 `json:"endTime"`

	// Duration is EndTime - StartTime, in ms.
	Duration int64 `json:"duration"`

	// Distance is the total meters traveled: the sum of distances between
	// each consecutive pair of accepted fixes (usually ~10m apart), NOT
	// the straight-line distance from first to last.
	Distance float64 `json:"distance"`

	// AverageSpeed is the mean of the per-fix speed values, in m/s.
	// NOTE: Speed is not reported by virtualized location providers
	// (emulators); it is only meaningful on physical-GPS data.
	AverageSpeed float64 `json:"averageSpeed"`

	// MaxSpeed is the highest per-fix speed in the session, in m/s.
	// Same physical-GPS caveat as AverageSpeed.
	MaxSpeed float64 `json:"maxSpeed"`

	// ActivityType is the Walking/Running classification, derived from
	// the session's overall distance and duration.
	ActivityType string `json:"activityType"`

	// Kcal burned over the session, from distance and user weight.
	Kcal int `json:"kcal"`
}

// Started returns the wall-clock start time.
func (s *Session) Started() time.Time {
	return time.UnixMilli(s.StartTime)
}

// Ended returns the wall-clock end time.
func (s *Session) Ended() time.Time {
	return time.UnixMilli(s.EndTime)
}