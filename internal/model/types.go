// Package model defines shared data structures.
package model

import "time"

// Modality identifies a stimulus channel.
type Modality string

// Stimulus channels.
const (
	Visual Modality = "visual"
	Audio  Modality = "audio"
)

// GameMode selects which modalities are active during a game.
type GameMode string

// Game modes.
const (
	ModeVisual GameMode = "visual"
	ModeAudio  GameMode = "audio"
	ModeDual   GameMode = "dual"
)

// Modalities returns the active modalities for the mode, visual first.
func (m GameMode) Modalities() []Modality {
	switch m {
	case ModeVisual:
		return []Modality{Visual}
	case ModeAudio:
		return []Modality{Audio}
	default:
		return []Modality{Visual, Audio}
	}
}

// Active reports whether the modality participates in the mode.
func (m GameMode) Active(mod Modality) bool {
	for _, a := range m.Modalities() {
		if a == mod {
			return true
		}
	}
	return false
}

// Valid reports whether the mode is one of the three known values.
func (m GameMode) Valid() bool {
	switch m {
	case ModeVisual, ModeAudio, ModeDual:
		return true
	}
	return false
}

// Bounds for clamped configuration values.
const (
	MinLevel      = 1
	MaxLevel      = 8
	MinStimulusMs = 2000
	MaxStimulusMs = 4000

	DefaultStimulusMs = 3000
	DefaultTrials     = 20
	PracticeTrials    = 7

	GridPositions = 9
)

// Letters is the audio stimulus alphabet.
var Letters = []string{"B", "C", "D", "G", "H", "K", "L", "P", "Q", "R", "T", "W"}

// Stimulus is one generated visual/audio pair with frozen match flags.
type Stimulus struct {
	VisualPos   int
	AudioLetter string
	VisualMatch bool
	AudioMatch  bool
}

// Match returns the frozen match flag for the modality.
func (s Stimulus) Match(m Modality) bool {
	if m == Visual {
		return s.VisualMatch
	}
	return s.AudioMatch
}

// TrialOutcome records one modality's result for one trial.
type TrialOutcome struct {
	Trial     int
	Modality  Modality
	Expected  bool
	Observed  bool
	LatencyMs int64
}

// ModalityStats aggregates signal-detection counts for one modality.
type ModalityStats struct {
	Matches           int
	Hits              int
	Misses            int
	FalseAlarms       int
	CorrectRejections int
	Accuracy          float64
}

// SessionSummary is the immutable aggregate of a completed session.
type SessionSummary struct {
	StartedAt       time.Time
	EndedAt         time.Time
	Mode            GameMode
	NLevel          int
	Trials          int
	StimulusMs      int
	Visual          ModalityStats
	Audio           ModalityStats
	OverallAccuracy float64
	AvgLatencyMs    float64
	DurationMs      int64
}

// Stats returns the modality's aggregate from the summary.
func (s SessionSummary) Stats(m Modality) ModalityStats {
	if m == Visual {
		return s.Visual
	}
	return s.Audio
}

// SessionRecord is a persisted summary with its store identity.
type SessionRecord struct {
	ID int64
	SessionSummary
}

// GameConfig defines one game's settings.
type GameConfig struct {
	Mode       GameMode
	NLevel     int
	Trials     int
	StimulusMs int
	Adaptive   bool
	Practice   bool
}

// Normalize clamps out-of-range values to their valid bounds.
func (c GameConfig) Normalize() GameConfig {
	if !c.Mode.Valid() {
		c.Mode = ModeDual
	}
	c.NLevel = clampInt(c.NLevel, MinLevel, MaxLevel)
	c.StimulusMs = clampInt(c.StimulusMs, MinStimulusMs, MaxStimulusMs)
	if c.Practice {
		c.Trials = PracticeTrials
	} else if c.Trials < 1 {
		c.Trials = 1
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        GameMode
	Since       *time.Time
	Last        int
	CurveWindow int
}
