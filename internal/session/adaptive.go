package session

import "github.com/verte-zerg/tuiback/internal/model"

// Adaptive difficulty thresholds.
const (
	raiseAccuracy = 80.0
	lowerAccuracy = 60.0
)

// LevelChange is the advisory result of the adaptive difficulty rule.
type LevelChange struct {
	NewN    int
	Message string
}

// NextLevel proposes the next session's N-level from the completed
// session's overall accuracy. The caller decides whether to apply it.
func NextLevel(currentN int, overallAccuracy float64) LevelChange {
	switch {
	case overallAccuracy >= raiseAccuracy && currentN < model.MaxLevel:
		return LevelChange{NewN: currentN + 1, Message: "Great run! Moving up to the next level."}
	case overallAccuracy >= raiseAccuracy:
		return LevelChange{NewN: currentN, Message: "Great run! You are already at the highest level."}
	case overallAccuracy < lowerAccuracy && currentN > model.MinLevel:
		return LevelChange{NewN: currentN - 1, Message: "Tough one. Stepping down a level."}
	case overallAccuracy < lowerAccuracy:
		return LevelChange{NewN: currentN, Message: "Tough one. Staying at the lowest level."}
	default:
		return LevelChange{NewN: currentN, Message: "Solid run. Staying at the current level."}
	}
}
