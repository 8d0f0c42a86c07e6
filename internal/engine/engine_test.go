package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/tuiback/internal/model"
)

type scriptedSource struct {
	stimuli []model.Stimulus
	next    int
	resets  int
}

func (s *scriptedSource) Next(int) model.Stimulus {
	st := s.stimuli[s.next%len(s.stimuli)]
	s.next++
	return st
}

func (s *scriptedSource) Reset() {
	s.next = 0
	s.resets++
}

type countingRecorder struct {
	appends int
	err     error
	last    model.SessionSummary
}

func (r *countingRecorder) AppendSession(summary model.SessionSummary) error {
	r.appends++
	r.last = summary
	return r.err
}

type capturingNotifier struct {
	kinds []NotifyKind
}

func (n *capturingNotifier) Notify(kind NotifyKind, _ string) {
	n.kinds = append(n.kinds, kind)
}

func noMatchStimuli(n int) []model.Stimulus {
	out := make([]model.Stimulus, n)
	for i := range out {
		out[i] = model.Stimulus{VisualPos: i % model.GridPositions, AudioLetter: "B"}
	}
	return out
}

func testConfig(mode model.GameMode, trials int) model.GameConfig {
	return model.GameConfig{
		Mode:       mode,
		NLevel:     2,
		Trials:     trials,
		StimulusMs: model.DefaultStimulusMs,
	}
}

func requireTimer(t *testing.T, step Step, kind TimerKind) Timer {
	t.Helper()
	if len(step.Timers) != 1 {
		t.Fatalf("expected exactly one timer, got %d", len(step.Timers))
	}
	if step.Timers[0].Kind != kind {
		t.Fatalf("timer kind = %v, want %v", step.Timers[0].Kind, kind)
	}
	return step.Timers[0]
}

func TestSingleModeResponseClosesTrial(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	g := New(testConfig(model.ModeVisual, 2), src, nil, nil, nil)
	now := time.Unix(0, 0)

	step := g.Start(now)
	if step.Presented == nil {
		t.Fatalf("Start must present a stimulus")
	}
	requireTimer(t, step, TimerStimulus)
	if src.resets != 1 {
		t.Fatalf("Start must reset the stimulus source")
	}

	step = g.Respond(model.Visual, now.Add(400*time.Millisecond))
	if !step.TrialClosed {
		t.Fatalf("single-modality response must close the trial immediately")
	}
	requireTimer(t, step, TimerInterTrial)
	if g.Current() != nil {
		t.Fatalf("stimulus must be cleared after the trial closes")
	}
	if got := g.outcomes[0].LatencyMs; got != 400 {
		t.Fatalf("latency = %d, want 400", got)
	}
}

func TestDualModeClosesOnlyAfterBothResponses(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	g := New(testConfig(model.ModeDual, 2), src, nil, nil, nil)
	now := time.Unix(0, 0)
	g.Start(now)

	step := g.Respond(model.Visual, now.Add(300*time.Millisecond))
	if step.TrialClosed || len(step.Timers) != 0 {
		t.Fatalf("first dual response must neither close nor reschedule: %+v", step)
	}
	step = g.Respond(model.Audio, now.Add(600*time.Millisecond))
	if step.TrialClosed {
		t.Fatalf("dual trial must wait out the grace delay before closing")
	}
	grace := requireTimer(t, step, TimerGrace)
	if grace.After != GraceDelay {
		t.Fatalf("grace delay = %v, want %v", grace.After, GraceDelay)
	}

	step = g.HandleTimer(grace, now.Add(600*time.Millisecond).Add(GraceDelay))
	if !step.TrialClosed {
		t.Fatalf("grace timer must close the trial")
	}
}

func TestDuplicateResponseIgnored(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	g := New(testConfig(model.ModeDual, 2), src, nil, nil, nil)
	now := time.Unix(0, 0)
	g.Start(now)

	g.Respond(model.Visual, now.Add(200*time.Millisecond))
	g.Respond(model.Visual, now.Add(900*time.Millisecond))
	if got := g.latencies[model.Visual]; got != 200 {
		t.Fatalf("duplicate response overwrote latency: %d", got)
	}
}

func TestTimeoutScoresMissingResponses(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	g := New(testConfig(model.ModeDual, 1), src, nil, nil, nil)
	now := time.Unix(0, 0)

	step := g.Start(now)
	stim := requireTimer(t, step, TimerStimulus)
	g.Respond(model.Visual, now.Add(500*time.Millisecond))

	step = g.HandleTimer(stim, now.Add(3*time.Second))
	if !step.TrialClosed {
		t.Fatalf("timeout must close the trial")
	}
	for _, o := range g.outcomes {
		switch o.Modality {
		case model.Visual:
			if !o.Observed || o.LatencyMs != 500 {
				t.Fatalf("visual outcome corrupted by timeout: %+v", o)
			}
		case model.Audio:
			if o.Observed || o.LatencyMs != int64(model.DefaultStimulusMs) {
				t.Fatalf("audio no-response must score full duration: %+v", o)
			}
		}
	}
}

func TestStaleTimerIgnored(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	g := New(testConfig(model.ModeVisual, 2), src, nil, nil, nil)
	now := time.Unix(0, 0)

	step := g.Start(now)
	stim := requireTimer(t, step, TimerStimulus)
	g.Respond(model.Visual, now.Add(100*time.Millisecond))

	trialsBefore := g.Trial()
	step = g.HandleTimer(stim, now.Add(3*time.Second))
	if step.TrialClosed || g.Trial() != trialsBefore {
		t.Fatalf("stale stimulus timer closed a trial")
	}
}

func TestResetCancelsPendingTimers(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	g := New(testConfig(model.ModeVisual, 3), src, nil, nil, nil)
	now := time.Unix(0, 0)

	step := g.Start(now)
	stim := requireTimer(t, step, TimerStimulus)
	g.Reset()

	if g.State() != StateSetup || g.Current() != nil {
		t.Fatalf("reset must return to setup and clear the stimulus")
	}
	step = g.HandleTimer(stim, now.Add(3*time.Second))
	if step.TrialClosed || len(g.outcomes) != 0 {
		t.Fatalf("timer from a reset game mutated state")
	}
	if got := g.Config().Trials; got != 3 {
		t.Fatalf("reset must preserve configuration, trials = %d", got)
	}
}

func TestEndSessionAppendsExactlyOnce(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	rec := &countingRecorder{}
	g := New(testConfig(model.ModeVisual, 1), src, rec, nil, nil)
	now := time.Unix(0, 0)

	step := g.Start(now)
	stim := requireTimer(t, step, TimerStimulus)
	step = g.Respond(model.Visual, now.Add(time.Second))
	if step.Summary == nil || g.State() != StateResults {
		t.Fatalf("final trial close must complete the session")
	}

	// The racing timeout for the final trial arrives late.
	step = g.HandleTimer(stim, now.Add(3*time.Second))
	if step.Summary != nil {
		t.Fatalf("second completion path produced a summary")
	}
	if rec.appends != 1 {
		t.Fatalf("recorder appends = %d, want 1", rec.appends)
	}
}

func TestRecorderFailureDoesNotAbortSession(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	rec := &countingRecorder{err: errors.New("disk full")}
	g := New(testConfig(model.ModeAudio, 1), src, rec, nil, nil)
	now := time.Unix(0, 0)

	g.Start(now)
	step := g.Respond(model.Audio, now.Add(time.Second))
	if step.Summary == nil {
		t.Fatalf("summary must be returned even when persistence fails")
	}
	if g.State() != StateResults {
		t.Fatalf("state = %v, want Results", g.State())
	}
}

func TestAdaptiveLevelProposedOnlyWhenEnabled(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(4)}
	cfg := testConfig(model.ModeVisual, 1)
	cfg.Adaptive = true
	g := New(cfg, src, nil, nil, nil)
	now := time.Unix(0, 0)

	g.Start(now)
	step := g.HandleTimer(Timer{Kind: TimerStimulus, Seq: g.seq}, now.Add(3*time.Second))
	if step.Level == nil {
		t.Fatalf("adaptive run must propose a level")
	}
	// All trials were correct rejections, so accuracy is 100.
	if step.Level.NewN != cfg.NLevel+1 {
		t.Fatalf("proposed level = %d, want %d", step.Level.NewN, cfg.NLevel+1)
	}

	cfg.Adaptive = false
	g = New(cfg, src, nil, nil, nil)
	g.Start(now)
	step = g.HandleTimer(Timer{Kind: TimerStimulus, Seq: g.seq}, now.Add(3*time.Second))
	if step.Level != nil {
		t.Fatalf("level proposed with adaptive difficulty disabled")
	}
}

func TestPracticeModeFlow(t *testing.T) {
	src := &scriptedSource{stimuli: noMatchStimuli(9)}
	rec := &countingRecorder{}
	not := &capturingNotifier{}
	cfg := testConfig(model.ModeVisual, 30)
	cfg.Practice = true
	cfg.Adaptive = true
	g := New(cfg, src, rec, nil, not)

	if got := g.Config().Trials; got != model.PracticeTrials {
		t.Fatalf("practice trials = %d, want %d", got, model.PracticeTrials)
	}

	now := time.Unix(0, 0)
	step := g.Start(now)
	var last Step
	for i := 0; i < model.PracticeTrials; i++ {
		stim := requireTimer(t, step, TimerStimulus)
		now = now.Add(3 * time.Second)
		last = g.HandleTimer(stim, now)
		if last.Summary != nil {
			break
		}
		iti := requireTimer(t, last, TimerInterTrial)
		now = now.Add(iti.After)
		step = g.HandleTimer(iti, now)
	}

	if !last.PracticeDone || last.Summary == nil {
		t.Fatalf("practice run must finish with a summary and the practice-done signal")
	}
	if last.Level != nil {
		t.Fatalf("practice mode must skip the adaptive controller")
	}
	if g.State() != StateSetup {
		t.Fatalf("practice mode must return to setup, got %v", g.State())
	}
	if rec.appends != 0 {
		t.Fatalf("practice session was persisted")
	}
	if len(not.kinds) == 0 {
		t.Fatalf("practice mode must emit trial feedback")
	}
}

func TestForcedVisualSequence(t *testing.T) {
	// 1-back over positions [4, 4, 0]: only the second trial matches.
	src := &scriptedSource{stimuli: []model.Stimulus{
		{VisualPos: 4},
		{VisualPos: 4, VisualMatch: true},
		{VisualPos: 0},
	}}
	cfg := model.GameConfig{Mode: model.ModeVisual, NLevel: 1, Trials: 3, StimulusMs: model.DefaultStimulusMs}
	g := New(cfg, src, nil, nil, nil)

	now := time.Unix(0, 0)
	step := g.Start(now)
	responses := []bool{false, true, false}
	var final Step
	for i := 0; i < 3; i++ {
		stim := requireTimer(t, step, TimerStimulus)
		if responses[i] {
			now = now.Add(800 * time.Millisecond)
			final = g.Respond(model.Visual, now)
		} else {
			now = now.Add(3 * time.Second)
			final = g.HandleTimer(stim, now)
		}
		if final.Summary != nil {
			break
		}
		iti := requireTimer(t, final, TimerInterTrial)
		now = now.Add(iti.After)
		step = g.HandleTimer(iti, now)
	}

	if final.Summary == nil {
		t.Fatalf("session did not complete")
	}
	v := final.Summary.Visual
	if v.Hits != 1 || v.CorrectRejections != 2 || v.Misses != 0 || v.FalseAlarms != 0 {
		t.Fatalf("unexpected classification: %+v", v)
	}
	if v.Accuracy != 100 || final.Summary.OverallAccuracy != 100 {
		t.Fatalf("accuracy = %v / %v, want 100", v.Accuracy, final.Summary.OverallAccuracy)
	}
}
