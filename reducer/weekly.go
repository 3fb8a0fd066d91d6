// Package reducer folds finalized sessions into per-day-of-week buckets
// for the weekly charts. Pure; callers hand it sessions already known to
// fall within one week.
package reducer

import (
	"github.com/rotblauer/rund/daterange"
	"github.com/rotblauer/rund/types/session"
)

// Metric selects which session quantity gets bucketed.
type Metric int

const (
	MetricDistance Metric = iota // kilometers
	MetricCalories               // kcal
	MetricDuration               // minutes
)

func (m Metric) String() string {
	switch m {
	case MetricDistance:
		return "distance"
	case MetricCalories:
		return "calories"
	case MetricDuration:
		return "duration"
	}
	return "unknown"
}

// ParseMetric maps the wire names back to metrics; unrecognized input
// falls back to distance.
func ParseMetric(s string) Metric {
	switch s {
	case "calories":
		return MetricCalories
	case "duration":
		return MetricDuration
	}
	return MetricDistance
}

// DayBuckets is always seven slots, 0=Monday..6=Sunday; days with no
// sessions stay zero.
type DayBuckets [7]float64

// Reduce folds each session's metric value into the bucket of the weekday
// its StartTime falls on, in the calculator's time zone.
func Reduce(calc *daterange.Calculator, sessions []*session.Session, metric Metric) DayBuckets {
	buckets := DayBuckets{}
	for _, s := range sessions {
		i := calc.DayOfWeekIndex(s.StartTime)
		switch metric {
		case MetricCalories:
			buckets[i] += float64(s.Kcal)
		case MetricDuration:
			buckets[i] += float64(s.Duration) / (1000.0 * 60.0)
		default:
			buckets[i] += s.Distance / 1000
		}
	}
	return buckets
}
