package session

import (
	"github.com/verte-zerg/tuiback/internal/model"
)

// Summarize builds the immutable session aggregate from the trial log.
// Accuracy is equality-based: a trial counts as correct for a modality
// when observed equals expected, which is the same as counting hits
// plus correct rejections. Zero-trial sessions yield zeros, never NaN.
func Summarize(mode model.GameMode, nLevel int, outcomes []model.TrialOutcome) model.SessionSummary {
	summary := model.SessionSummary{
		Mode:   mode,
		NLevel: nLevel,
	}

	trials := map[model.Modality]int{}
	correct := map[model.Modality]int{}
	stats := map[model.Modality]*model.ModalityStats{
		model.Visual: {},
		model.Audio:  {},
	}
	var latencySum int64
	var latencyCount int64

	for _, o := range outcomes {
		st := stats[o.Modality]
		if st == nil {
			continue
		}
		trials[o.Modality]++
		if o.Expected {
			st.Matches++
		}
		switch Classify(o.Expected, o.Observed) {
		case Hit:
			st.Hits++
		case Miss:
			st.Misses++
		case FalseAlarm:
			st.FalseAlarms++
		case CorrectRejection:
			st.CorrectRejections++
		}
		if o.Observed == o.Expected {
			correct[o.Modality]++
		}
		latencySum += o.LatencyMs
		latencyCount++
	}

	active := mode.Modalities()
	var accSum float64
	for _, m := range active {
		st := stats[m]
		if trials[m] > 0 {
			st.Accuracy = float64(correct[m]) / float64(trials[m]) * 100
		}
		accSum += st.Accuracy
	}
	summary.Visual = *stats[model.Visual]
	summary.Audio = *stats[model.Audio]
	if len(active) > 0 {
		summary.OverallAccuracy = accSum / float64(len(active))
	}
	if latencyCount > 0 {
		summary.AvgLatencyMs = float64(latencySum) / float64(latencyCount)
	}
	summary.Trials = trials[active[0]]
	return summary
}
