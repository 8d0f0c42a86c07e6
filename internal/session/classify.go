// Package session contains response classification, session
// aggregation, and the adaptive difficulty rule.
package session

// Outcome is one of the four signal-detection categories.
type Outcome int

// Signal-detection outcomes.
const (
	Hit Outcome = iota
	Miss
	FalseAlarm
	CorrectRejection
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case FalseAlarm:
		return "false alarm"
	case CorrectRejection:
		return "correct rejection"
	}
	return "unknown"
}

// Correct reports whether the outcome counts toward accuracy.
func (o Outcome) Correct() bool {
	return o == Hit || o == CorrectRejection
}

// Classify assigns the signal-detection category for one
// expected-vs-observed match decision.
func Classify(expected, observed bool) Outcome {
	switch {
	case expected && observed:
		return Hit
	case expected && !observed:
		return Miss
	case !expected && observed:
		return FalseAlarm
	default:
		return CorrectRejection
	}
}
