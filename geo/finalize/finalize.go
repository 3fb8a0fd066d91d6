// Package finalize turns a completed session's accepted-fix trace into its
// persisted summary record. It is pure: no clocks, no storage, no shared
// state, safe to run on any background worker.
package finalize

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/rotblauer/rund/common"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/types/activity"
	"github.com/rotblauer/rund/types/fix"
	"github.com/rotblauer/rund/types/session"
)

// ErrEmptyTrace means a session produced zero accepted fixes. Such a
// session is discarded; it must never be persisted as a zero-filled
// placeholder record.
var ErrEmptyTrace = errors.New("finalize: empty trace")

// Finalize computes the summary statistics of an ordered trace.
//
// Distance is the sum over consecutive pairs, not first-to-last as the
// crow flies. AverageSpeed is the mean of the per-fix speed readings;
// the Walking/Running classification instead uses the speed derived from
// distance and duration. The two are different quantities computed from
// different inputs, and both are kept; see DerivedSpeed.
func Finalize(trace fix.Fixes, weightKg int) (*session.Session, error) {
	if len(trace) == 0 {
		return nil, ErrEmptyTrace
	}

	speeds := make([]float64, len(trace))
	for i, f := range trace {
		speeds[i] = float64(f.Speed)
	}
	avgSpeed, _ := stats.Mean(speeds)
	maxSpeed, _ := stats.Max(speeds)

	first, last := trace[0], trace[len(trace)-1]
	duration := last.CaptureTime - first.CaptureTime

	var distance float64
	for i := 0; i < len(trace)-1; i++ {
		distance += trace[i].DistanceTo(trace[i+1])
	}

	calories := 0
	if distance > 0 {
		calories = int(math.Floor(params.KcalPerMeterPerKg * distance * float64(weightKg)))
	}

	return &session.Session{
		StartTime:    first.CaptureTime,
		EndTime:      last.CaptureTime,
		Duration:     duration,
		Distance:     distance,
		AverageSpeed: avgSpeed,
		MaxSpeed:     maxSpeed,
		ActivityType: Classify(distance, duration).String(),
		Kcal:         calories,
	}, nil
}

// StraightLineDistance is the great-circle distance from the first fix to
// the last, ignoring everything in between. It lower-bounds the session
// Distance (triangle inequality) and exists for sanity checks, not for
// reporting.
func StraightLineDistance(trace fix.Fixes) float64 {
	if len(trace) < 2 {
		return 0
	}
	first, last := trace[0], trace[len(trace)-1]
	return common.DistanceHaversine(first.Lat, first.Lon, last.Lat, last.Lon)
}

// DerivedSpeed is (distance/durationMs)*1000, the quantity the activity
// classification runs on. Zero when duration is zero.
func DerivedSpeed(distance float64, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return (distance / float64(durationMs)) * 1000
}

// Classify maps overall distance and duration to Walking or Running.
func Classify(distance float64, durationMs int64) activity.Activity {
	if DerivedSpeed(distance, durationMs) > params.RunningSpeedThreshold {
		return activity.Running
	}
	return activity.Walking
}
