package daterange

import "time"

// DayLabelLayout renders a day as dd/MM, the label format of the weekly
// charts.
const DayLabelLayout = "02/01"

// DateSequence is a lazy, finite, restartable walk over the calendar days
// from from to to inclusive, yielding one formatted label per day.
// The zero cursor starts at from; the sequence ends once the cursor passes
// to.
type DateSequence struct {
	loc      *time.Location
	from, to int64
	cursor   time.Time
}

// DateSequence starts a day-label sequence over [from, to].
func (c *Calculator) DateSequence(from, to int64) *DateSequence {
	s := &DateSequence{loc: c.loc, from: from, to: to}
	s.Reset()
	return s
}

// Next yields the next day label, or ok=false when the sequence is done.
func (s *DateSequence) Next() (label string, ok bool) {
	if s.cursor.UnixMilli() > s.to {
		return "", false
	}
	label = s.cursor.Format(DayLabelLayout)
	s.cursor = s.cursor.AddDate(0, 0, 1)
	return label, true
}

// Reset rewinds the cursor to from. The sequence can be walked again.
func (s *DateSequence) Reset() {
	s.cursor = time.UnixMilli(s.from).In(s.loc)
}

// Collect drains the rest of the sequence into a slice.
func (s *DateSequence) Collect() []string {
	out := []string{}
	for {
		label, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, label)
	}
}
