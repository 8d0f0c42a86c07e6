// Package engine implements the trial state machine and game lifecycle.
//
// The engine is timer-driven but owns no clock: every mutating call
// returns a Step listing the timers the caller must schedule, and timer
// expiry is reported back through HandleTimer. Each scheduled timer
// carries the generation it was issued under; bumping the generation
// cancels every outstanding timer at once, so a stale callback can
// never mutate a session that has been reset or completed.
package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/verte-zerg/tuiback/internal/model"
	"github.com/verte-zerg/tuiback/internal/session"
)

// Fixed delays of the trial loop.
const (
	GraceDelay      = 750 * time.Millisecond
	InterTrialDelay = 1000 * time.Millisecond
)

// State is the game lifecycle state.
type State int

// Game lifecycle states.
const (
	StateSetup State = iota
	StatePlaying
	StateResults
)

type phase int

const (
	phaseIdle phase = iota
	phaseAwaiting
	phaseGrace
	phaseInterTrial
)

// TimerKind identifies which delay a timer represents.
type TimerKind int

// Timer kinds.
const (
	TimerStimulus TimerKind = iota
	TimerGrace
	TimerInterTrial
)

// Timer is a scheduling request issued by the engine. Seq is the
// generation the timer belongs to; the engine ignores expired timers
// from older generations.
type Timer struct {
	Kind  TimerKind
	Seq   uint64
	After time.Duration
}

// Source produces stimulus pairs with frozen match flags.
type Source interface {
	Next(nLevel int) model.Stimulus
	Reset()
}

// Recorder persists completed session summaries.
type Recorder interface {
	AppendSession(summary model.SessionSummary) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(summary model.SessionSummary) error

// AppendSession implements Recorder.
func (f RecorderFunc) AppendSession(summary model.SessionSummary) error {
	return f(summary)
}

// Announcer speaks the audio symbol for a trial, fire-and-forget.
type Announcer interface {
	Announce(symbol string)
}

// NotifyKind classifies practice-mode feedback.
type NotifyKind string

// Notification kinds.
const (
	NotifySuccess NotifyKind = "success"
	NotifyWarning NotifyKind = "warning"
	NotifyError   NotifyKind = "error"
	NotifyInfo    NotifyKind = "info"
)

// Notifier delivers practice-mode feedback.
type Notifier interface {
	Notify(kind NotifyKind, message string)
}

// Step is the observable result of one engine transition.
type Step struct {
	Timers       []Timer
	Presented    *model.Stimulus
	TrialClosed  bool
	Summary      *model.SessionSummary
	Level        *session.LevelChange
	PracticeDone bool
}

// Game owns one session's trial loop: Setup -> Playing -> Results,
// with a reset edge from Playing back to Setup.
type Game struct {
	cfg      model.GameConfig
	src      Source
	recorder Recorder
	announce Announcer
	notify   Notifier

	state       State
	phase       phase
	seq         uint64
	trial       int
	current     *model.Stimulus
	presentedAt time.Time
	startedAt   time.Time
	responded   map[model.Modality]bool
	latencies   map[model.Modality]int64
	outcomes    []model.TrialOutcome
	summary     *model.SessionSummary
}

// New constructs a game. Recorder, announcer, and notifier may be nil.
func New(cfg model.GameConfig, src Source, recorder Recorder, announcer Announcer, notifier Notifier) *Game {
	return &Game{
		cfg:      cfg.Normalize(),
		src:      src,
		recorder: recorder,
		announce: announcer,
		notify:   notifier,
	}
}

// Config returns the normalized game configuration.
func (g *Game) Config() model.GameConfig { return g.cfg }

// State returns the lifecycle state.
func (g *Game) State() State { return g.state }

// Trial returns the number of closed trials.
func (g *Game) Trial() int { return g.trial }

// Current returns the displayed stimulus, nil between trials.
func (g *Game) Current() *model.Stimulus { return g.current }

// Responded reports whether the modality answered this trial.
func (g *Game) Responded(m model.Modality) bool { return g.responded[m] }

// Summary returns the last completed session summary, nil before one exists.
func (g *Game) Summary() *model.SessionSummary { return g.summary }

// SetLevel changes the N-level for the next game. Ignored while playing.
func (g *Game) SetLevel(n int) {
	if g.state == StatePlaying {
		return
	}
	g.cfg.NLevel = n
	g.cfg = g.cfg.Normalize()
}

// Start begins a new session: clears histories and the trial log,
// transitions to Playing, and presents the first trial.
func (g *Game) Start(now time.Time) Step {
	if g.state == StatePlaying {
		return Step{}
	}
	g.src.Reset()
	g.outcomes = nil
	g.summary = nil
	g.trial = 0
	g.startedAt = now
	g.state = StatePlaying
	return g.beginTrial(now)
}

// Reset cancels all pending timers, clears the in-flight stimulus, and
// returns to Setup. Configuration is preserved; the trial log is discarded.
func (g *Game) Reset() Step {
	g.seq++
	g.phase = phaseIdle
	g.current = nil
	g.outcomes = nil
	g.trial = 0
	g.state = StateSetup
	return Step{}
}

// Respond records a user response for the modality. Valid only while a
// stimulus is awaiting responses; duplicate responses for one modality
// within a trial are ignored.
func (g *Game) Respond(m model.Modality, now time.Time) Step {
	if g.state != StatePlaying || g.phase != phaseAwaiting || g.current == nil {
		return Step{}
	}
	if !g.cfg.Mode.Active(m) || g.responded[m] {
		return Step{}
	}
	g.responded[m] = true
	lat := now.Sub(g.presentedAt).Milliseconds()
	if lat < 0 {
		lat = 0
	}
	g.latencies[m] = lat
	g.notifyResponse(m)

	if !g.allResponded() {
		return Step{}
	}
	if len(g.cfg.Mode.Modalities()) == 1 {
		return g.closeTrial(now)
	}
	// Both modalities answered; hold the trial open briefly so the
	// subject sees the second judgment land.
	g.phase = phaseGrace
	return Step{Timers: []Timer{g.schedule(TimerGrace, GraceDelay)}}
}

// HandleTimer applies an expired timer. Timers from an older generation
// are stale and ignored.
func (g *Game) HandleTimer(t Timer, now time.Time) Step {
	if g.state != StatePlaying || t.Seq != g.seq {
		return Step{}
	}
	switch t.Kind {
	case TimerStimulus:
		if g.phase != phaseAwaiting {
			return Step{}
		}
		for _, m := range g.cfg.Mode.Modalities() {
			if !g.responded[m] {
				g.latencies[m] = int64(g.cfg.StimulusMs)
			}
		}
		g.notifyTimeout()
		return g.closeTrial(now)
	case TimerGrace:
		if g.phase != phaseGrace {
			return Step{}
		}
		return g.closeTrial(now)
	case TimerInterTrial:
		if g.phase != phaseInterTrial {
			return Step{}
		}
		return g.beginTrial(now)
	}
	return Step{}
}

func (g *Game) schedule(kind TimerKind, after time.Duration) Timer {
	g.seq++
	return Timer{Kind: kind, Seq: g.seq, After: after}
}

func (g *Game) beginTrial(now time.Time) Step {
	s := g.src.Next(g.cfg.NLevel)
	g.current = &s
	g.presentedAt = now
	g.responded = map[model.Modality]bool{}
	g.latencies = map[model.Modality]int64{}
	g.phase = phaseAwaiting
	if g.announce != nil && g.cfg.Mode.Active(model.Audio) {
		g.announce.Announce(s.AudioLetter)
	}
	return Step{
		Presented: g.current,
		Timers:    []Timer{g.schedule(TimerStimulus, time.Duration(g.cfg.StimulusMs)*time.Millisecond)},
	}
}

func (g *Game) closeTrial(now time.Time) Step {
	for _, m := range g.cfg.Mode.Modalities() {
		g.outcomes = append(g.outcomes, model.TrialOutcome{
			Trial:     g.trial,
			Modality:  m,
			Expected:  g.current.Match(m),
			Observed:  g.responded[m],
			LatencyMs: g.latencies[m],
		})
	}
	g.current = nil
	g.trial++
	step := Step{TrialClosed: true}
	if g.trial < g.cfg.Trials {
		g.phase = phaseInterTrial
		step.Timers = []Timer{g.schedule(TimerInterTrial, InterTrialDelay)}
		return step
	}
	return g.endSession(now, step)
}

// endSession may only fire on the Playing edge; a second completion
// path for the final trial finds the state already advanced and no-ops.
func (g *Game) endSession(now time.Time, step Step) Step {
	if g.state != StatePlaying {
		return step
	}
	g.seq++
	g.phase = phaseIdle

	summary := session.Summarize(g.cfg.Mode, g.cfg.NLevel, g.outcomes)
	summary.StartedAt = g.startedAt
	summary.EndedAt = now
	summary.StimulusMs = g.cfg.StimulusMs
	summary.DurationMs = now.Sub(g.startedAt).Milliseconds()
	g.summary = &summary
	step.Summary = &summary

	if g.cfg.Adaptive && !g.cfg.Practice {
		lc := session.NextLevel(g.cfg.NLevel, summary.OverallAccuracy)
		step.Level = &lc
	}

	if g.cfg.Practice {
		g.state = StateSetup
		step.PracticeDone = true
		return step
	}
	g.state = StateResults
	if g.recorder != nil {
		if err := g.recorder.AppendSession(summary); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	}
	return step
}

func (g *Game) allResponded() bool {
	for _, m := range g.cfg.Mode.Modalities() {
		if !g.responded[m] {
			return false
		}
	}
	return true
}

func (g *Game) notifyResponse(m model.Modality) {
	if g.notify == nil || !g.cfg.Practice || g.current == nil {
		return
	}
	if g.current.Match(m) {
		g.notify.Notify(NotifySuccess, fmt.Sprintf("Hit! The %s stimulus was a match.", m))
		return
	}
	g.notify.Notify(NotifyError, fmt.Sprintf("False alarm: the %s stimulus was not a match.", m))
}

func (g *Game) notifyTimeout() {
	if g.notify == nil || !g.cfg.Practice || g.current == nil {
		return
	}
	missed := 0
	for _, m := range g.cfg.Mode.Modalities() {
		if g.current.Match(m) && !g.responded[m] {
			missed++
		}
	}
	if missed > 0 {
		g.notify.Notify(NotifyWarning, "Missed a match that trial.")
		return
	}
	g.notify.Notify(NotifyInfo, "No match there. Good pass.")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
