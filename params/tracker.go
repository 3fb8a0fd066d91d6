package params

import (
	"time"

	"github.com/rotblauer/rund/common"
)

// KcalPerMeterPerKg converts meters traveled and body weight to kilocalories.
const KcalPerMeterPerKg = 0.001

type TrackerConfig struct {
	// MinAccuracy is the horizontal accuracy threshold, in meters.
	// Fixes reporting an accuracy at or above it are dropped before
	// they can touch session state.
	MinAccuracy float64

	// MinSumDistance is the minimum distance, in meters, a fix must put
	// between itself and the last accepted fix before it counts toward
	// the session distance.
	MinSumDistance float64

	// PaceSpeedThreshold is the speed floor, in m/s, under which pace is
	// reported as zero rather than blowing up toward infinity.
	PaceSpeedThreshold float64

	// SessionTimeout ends the session when this much wall-clock time has
	// passed since the last accepted fix was captured. The check is lazy:
	// it only runs when another fix arrives.
	SessionTimeout time.Duration

	// UserWeightKg feeds the calorie estimate.
	UserWeightKg int
}

var DefaultTrackerConfig = &TrackerConfig{
	MinAccuracy:        20,
	MinSumDistance:     10,
	PaceSpeedThreshold: common.SpeedOfWalkingSlow,
	SessionTimeout:     10 * time.Minute,
	UserWeightKg:       70,
}
