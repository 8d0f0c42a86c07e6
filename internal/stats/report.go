package stats

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/tuiback/internal/model"
)

const fallbackWidth = 80

// TerminalWidth returns the current terminal width or a fixed fallback.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}

// RenderReport prints a plain-text report for the sessions: overview,
// accuracy and level curves, and the most recent sessions.
func RenderReport(w io.Writer, records []model.SessionRecord, window, width int) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if width <= 0 {
		width = fallbackWidth
	}

	o := BuildOverview(records)
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", o.Sessions); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best level: %d-back\n", o.BestLevel); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg accuracy: %.1f%%  (best %.1f%%)\n", o.AvgAccuracy, o.BestAccuracy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg latency: %.0f ms\n\n", o.AvgLatencyMs); err != nil {
		return err
	}

	curveWidth := width - 12
	if curveWidth < 10 {
		curveWidth = 10
	}
	acc := Tail(MovingAverage(AccuracySeries(records), window), curveWidth)
	lvl := Tail(MovingAverage(LevelSeries(records), window), curveWidth)
	if _, err := fmt.Fprintf(w, "Accuracy  %s\n", Sparkline(acc)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Level     %s\n\n", Sparkline(lvl)); err != nil {
		return err
	}

	recent := records
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	if _, err := fmt.Fprintln(w, "Recent sessions:"); err != nil {
		return err
	}
	for _, r := range recent {
		if _, err := fmt.Fprintf(w, "  %s  %-6s  %d-back  %2d trials  %5.1f%%  %4.0f ms\n",
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Mode, r.NLevel, r.Trials, r.OverallAccuracy, r.AvgLatencyMs); err != nil {
			return err
		}
	}
	return nil
}
