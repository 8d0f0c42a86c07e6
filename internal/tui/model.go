package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiback/internal/announce"
	"github.com/verte-zerg/tuiback/internal/engine"
	"github.com/verte-zerg/tuiback/internal/generator"
	"github.com/verte-zerg/tuiback/internal/model"
	"github.com/verte-zerg/tuiback/internal/session"
	"github.com/verte-zerg/tuiback/internal/store"
)

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	letterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	cellStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	activeCellStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A")).Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	respondedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	infoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

type timerMsg struct {
	timer engine.Timer
}

func scheduleTimers(step engine.Step) tea.Cmd {
	if len(step.Timers) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(step.Timers))
	for _, t := range step.Timers {
		timer := t
		cmds = append(cmds, tea.Tick(timer.After, func(time.Time) tea.Msg {
			return timerMsg{timer: timer}
		}))
	}
	return tea.Batch(cmds...)
}

// Model implements the Bubble Tea game UI.
type Model struct {
	game     *engine.Game
	store    *store.Store
	progress progress.Model

	width  int
	height int

	noteKind engine.NotifyKind
	note     string

	level *session.LevelChange

	lastAcc  float64
	hasLast  bool
	allAcc   float64
	allCount int
}

// NewModel constructs the game UI and its engine.
func NewModel(cfg model.GameConfig, st *store.Store, gen *generator.Generator) *Model {
	m := &Model{
		store:    st,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	var recorder engine.Recorder
	if st != nil {
		recorder = engine.RecorderFunc(func(summary model.SessionSummary) error {
			_, err := st.InsertSession(context.Background(), summary)
			return err
		})
	}
	m.game = engine.New(cfg, gen, recorder, announce.Bell{W: os.Stderr}, m)
	m.loadFooterStats()
	return m
}

// Notify implements engine.Notifier with a transient feedback line.
func (m *Model) Notify(kind engine.NotifyKind, message string) {
	m.noteKind = kind
	m.note = message
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.game.Config().Practice {
		return m.start()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 20
		if w > 40 {
			w = 40
		}
		if w < 10 {
			w = 10
		}
		m.progress.Width = w
		return m, nil
	case timerMsg:
		return m, m.apply(m.game.HandleTimer(msg.timer, time.Now()))
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.game.State() {
	case engine.StateSetup:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter", " ":
			return m, m.start()
		case "left":
			m.game.SetLevel(m.game.Config().NLevel - 1)
		case "right":
			m.game.SetLevel(m.game.Config().NLevel + 1)
		}
	case engine.StatePlaying:
		switch msg.String() {
		case "f":
			return m, m.apply(m.game.Respond(model.Visual, time.Now()))
		case "j":
			return m, m.apply(m.game.Respond(model.Audio, time.Now()))
		case "esc":
			m.note = ""
			return m, m.apply(m.game.Reset())
		}
	case engine.StateResults:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter", " ":
			if m.level != nil {
				m.game.SetLevel(m.level.NewN)
			}
			return m, m.start()
		case "esc":
			return m, m.apply(m.game.Reset())
		}
	}
	return m, nil
}

func (m *Model) start() tea.Cmd {
	m.note = ""
	m.level = nil
	return m.apply(m.game.Start(time.Now()))
}

func (m *Model) apply(step engine.Step) tea.Cmd {
	if step.Summary != nil {
		m.level = step.Level
		if step.PracticeDone {
			m.Notify(engine.NotifyInfo, fmt.Sprintf("Practice complete: %.0f%% accuracy. Press enter to go again.", step.Summary.OverallAccuracy))
		} else {
			m.lastAcc = step.Summary.OverallAccuracy
			m.hasLast = true
			m.allAcc = (m.allAcc*float64(m.allCount) + step.Summary.OverallAccuracy) / float64(m.allCount+1)
			m.allCount++
		}
	}
	return scheduleTimers(step)
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	m.lastAcc = sessions[len(sessions)-1].OverallAccuracy
	m.hasLast = true
	var sum float64
	for _, s := range sessions {
		sum += s.OverallAccuracy
	}
	m.allCount = len(sessions)
	m.allAcc = sum / float64(len(sessions))
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.game.State() {
	case engine.StatePlaying:
		content = m.viewPlaying()
	case engine.StateResults:
		content = m.viewResults()
	default:
		content = m.viewSetup()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) viewSetup() string {
	cfg := m.game.Config()
	lines := []string{
		titleStyle.Render("tuiback — dual n-back"),
		"",
		configLine("mode", string(cfg.Mode)),
		configLine("level", fmt.Sprintf("%d-back (←/→ to change)", cfg.NLevel)),
		configLine("trials", fmt.Sprintf("%d", cfg.Trials)),
		configLine("stimulus", fmt.Sprintf("%d ms", cfg.StimulusMs)),
		configLine("adaptive", fmt.Sprintf("%v", cfg.Adaptive)),
		"",
		labelStyle.Render("enter start · q quit"),
	}
	if m.note != "" {
		lines = append(lines, "", m.renderNote())
	}
	return strings.Join(lines, "\n")
}

func configLine(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-9s", label)) + valueStyle.Render(value)
}

func (m *Model) viewPlaying() string {
	cfg := m.game.Config()
	current := m.game.Current()

	activePos := -1
	letter := ""
	if current != nil {
		if cfg.Mode.Active(model.Visual) {
			activePos = current.VisualPos
		}
		if cfg.Mode.Active(model.Audio) {
			letter = current.AudioLetter
		}
	}

	lines := []string{renderGrid(activePos)}
	if cfg.Mode.Active(model.Audio) {
		lines = append(lines, "", letterStyle.Render(centerText(letter, gridSide*cellWidth)))
	}
	lines = append(lines, "", m.renderKeys(cfg), "")

	pct := float64(m.game.Trial()) / float64(cfg.Trials)
	lines = append(lines, m.progress.ViewAs(pct))
	lines = append(lines, labelStyle.Render(fmt.Sprintf("trial %d/%d · %d-back · esc stop", m.game.Trial()+1, cfg.Trials, cfg.NLevel)))
	if m.note != "" && cfg.Practice {
		lines = append(lines, "", m.renderNote())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderKeys(cfg model.GameConfig) string {
	parts := []string{}
	if cfg.Mode.Active(model.Visual) {
		s := labelStyle
		if m.game.Responded(model.Visual) {
			s = respondedStyle
		}
		parts = append(parts, s.Render("[f] position"))
	}
	if cfg.Mode.Active(model.Audio) {
		s := labelStyle
		if m.game.Responded(model.Audio) {
			s = respondedStyle
		}
		parts = append(parts, s.Render("[j] letter"))
	}
	return strings.Join(parts, "   ")
}

func (m *Model) viewResults() string {
	summary := m.game.Summary()
	if summary == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render("Session results"),
		"",
		configLine("overall", fmt.Sprintf("%.1f%%", summary.OverallAccuracy)),
		configLine("latency", fmt.Sprintf("%.0f ms", summary.AvgLatencyMs)),
	}
	for _, mod := range summary.Mode.Modalities() {
		st := summary.Stats(mod)
		lines = append(lines, configLine(string(mod),
			fmt.Sprintf("%.1f%%  (%d hit, %d miss, %d FA, %d CR)", st.Accuracy, st.Hits, st.Misses, st.FalseAlarms, st.CorrectRejections)))
	}
	if m.level != nil {
		lines = append(lines, "", warningStyle.Render(m.level.Message))
	}
	lines = append(lines, "", labelStyle.Render("enter next round · esc setup · q quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderNote() string {
	style := infoStyle
	switch m.noteKind {
	case engine.NotifySuccess:
		style = successStyle
	case engine.NotifyWarning:
		style = warningStyle
	case engine.NotifyError:
		style = errorStyle
	}
	return style.Render(m.note)
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc))
	}
	if m.allCount > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% over %d sessions", m.allAcc, m.allCount))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  ·  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
