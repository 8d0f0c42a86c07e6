// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/tuiback/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Overview summarizes all stored sessions.
type Overview struct {
	Sessions     int
	BestLevel    int
	AvgAccuracy  float64
	BestAccuracy float64
	AvgLatencyMs float64
}

// BuildOverview aggregates stored sessions into headline numbers.
// An empty history yields zeros.
func BuildOverview(records []model.SessionRecord) Overview {
	o := Overview{Sessions: len(records)}
	if len(records) == 0 {
		return o
	}
	var accSum, latSum float64
	for _, r := range records {
		accSum += r.OverallAccuracy
		latSum += r.AvgLatencyMs
		if r.OverallAccuracy > o.BestAccuracy {
			o.BestAccuracy = r.OverallAccuracy
		}
		if r.NLevel > o.BestLevel {
			o.BestLevel = r.NLevel
		}
	}
	count := float64(len(records))
	o.AvgAccuracy = accSum / count
	o.AvgLatencyMs = latSum / count
	return o
}

// AccuracySeries extracts per-session overall accuracy, oldest first.
func AccuracySeries(records []model.SessionRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.OverallAccuracy
	}
	return out
}

// LevelSeries extracts per-session N-level, oldest first.
func LevelSeries(records []model.SessionRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = float64(r.NLevel)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Tail keeps at most n trailing values.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
