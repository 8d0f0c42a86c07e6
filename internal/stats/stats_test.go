package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuiback/internal/model"
)

func record(n int, accuracy float64) model.SessionRecord {
	end := time.Unix(0, 0).Add(time.Duration(n) * time.Hour)
	return model.SessionRecord{
		ID: int64(n + 1),
		SessionSummary: model.SessionSummary{
			StartedAt:       end.Add(-time.Minute),
			EndedAt:         end,
			Mode:            model.ModeDual,
			NLevel:          n + 1,
			Trials:          20,
			OverallAccuracy: accuracy,
			AvgLatencyMs:    1000,
		},
	}
}

func TestBuildOverview(t *testing.T) {
	records := []model.SessionRecord{record(0, 50), record(1, 90), record(2, 70)}
	o := BuildOverview(records)
	if o.Sessions != 3 {
		t.Fatalf("sessions = %d, want 3", o.Sessions)
	}
	if o.BestLevel != 3 {
		t.Fatalf("best level = %d, want 3", o.BestLevel)
	}
	if o.AvgAccuracy != 70 {
		t.Fatalf("avg accuracy = %v, want 70", o.AvgAccuracy)
	}
	if o.BestAccuracy != 90 {
		t.Fatalf("best accuracy = %v, want 90", o.BestAccuracy)
	}
}

func TestBuildOverviewEmpty(t *testing.T) {
	o := BuildOverview(nil)
	if o.Sessions != 0 || o.AvgAccuracy != 0 || o.AvgLatencyMs != 0 {
		t.Fatalf("empty overview must be zero: %+v", o)
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	got := MovingAverage(values, 2)
	want := []float64{1, 1.5, 2.5, 3.5, 4.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moving average[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	same := MovingAverage(values, 1)
	for i := range values {
		if same[i] != values[i] {
			t.Fatalf("window 1 must copy input")
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("empty input must render empty, got %q", got)
	}
	flat := Sparkline([]float64{5, 5, 5})
	if len(flat) != 3 || flat[0] != flat[1] || flat[1] != flat[2] {
		t.Fatalf("flat series must render uniformly: %q", flat)
	}
	ramp := Sparkline([]float64{0, 100})
	if ramp[0] != ' ' || ramp[len(ramp)-1] != '@' {
		t.Fatalf("ramp must span the character scale: %q", ramp)
	}
}

func TestTail(t *testing.T) {
	values := []float64{1, 2, 3}
	if got := Tail(values, 2); len(got) != 2 || got[0] != 2 {
		t.Fatalf("tail = %v", got)
	}
	if got := Tail(values, 5); len(got) != 3 {
		t.Fatalf("tail larger than input must keep all values: %v", got)
	}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, nil, 5, 80); err != nil {
		t.Fatalf("render empty report: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("empty report output: %q", buf.String())
	}

	buf.Reset()
	records := []model.SessionRecord{record(0, 60), record(1, 80)}
	if err := RenderReport(&buf, records, 5, 80); err != nil {
		t.Fatalf("render report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Best level: 2-back", "Accuracy", "Recent sessions:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}
