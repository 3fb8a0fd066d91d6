package activity

import "regexp"

// Activity classifies what a session's mover was doing.
type Activity int

const (
	Walking Activity = iota
	Running
	Unknown Activity = -1
)

var (
	activityWalking = regexp.MustCompile(`(?i)walk`)
	activityRunning = regexp.MustCompile(`(?i)run`)
)

// String implements the Stringer interface.
func (a Activity) String() string {
	switch a {
	case Walking:
		return "Walking"
	case Running:
		return "Running"
	}
	return "Unknown"
}

// Emoji returns a single emoji representation of the activity.
func (a Activity) Emoji() string {
	switch a {
	case Walking:
		return "🚶"
	case Running:
		return "🏃"
	}
	return "❓"
}

// IsKnown returns true if the activity is not Unknown.
func (a Activity) IsKnown() bool {
	return a != Unknown
}

// FromString parses free-form activity names.
func FromString(s string) Activity {
	switch {
	case activityRunning.MatchString(s):
		return Running
	case activityWalking.MatchString(s):
		return Walking
	}
	return Unknown
}
