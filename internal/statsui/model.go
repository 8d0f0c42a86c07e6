// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiback/internal/model"
	"github.com/verte-zerg/tuiback/internal/stats"
	"github.com/verte-zerg/tuiback/internal/store"
)

const (
	tabOverview = iota
	tabSessions
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle      = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	records []model.SessionRecord
	errMsg  string

	tabs      []string
	activeTab int
	overview  viewport.Model
	sessions  table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Sessions"},
	}
	m.overview = viewport.New(0, 0)
	m.initSessionTable()
	m.refresh()
	return m
}

func (m *Model) initSessionTable() {
	columns := []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Mode", Width: 7},
		{Title: "N", Width: 3},
		{Title: "Trials", Width: 6},
		{Title: "Accuracy", Width: 8},
		{Title: "Latency", Width: 8},
	}
	m.sessions = table.New(table.WithColumns(columns), table.WithFocused(true))
}

func (m *Model) refresh() {
	records, err := m.store.ListSessions(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load sessions: %v", err)
		return
	}
	m.errMsg = ""
	m.records = records

	rows := make([]table.Row, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		rows = append(rows, table.Row{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			string(r.Mode),
			fmt.Sprintf("%d", r.NLevel),
			fmt.Sprintf("%d", r.Trials),
			fmt.Sprintf("%.1f%%", r.OverallAccuracy),
			fmt.Sprintf("%.0f ms", r.AvgLatencyMs),
		})
	}
	m.sessions.SetRows(rows)
	m.overview.SetContent(m.renderOverview())
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := msg.Height - 5
		if bodyHeight < 1 {
			bodyHeight = 1
		}
		m.overview.Width = msg.Width
		m.overview.Height = bodyHeight
		m.sessions.SetHeight(bodyHeight)
		m.overview.SetContent(m.renderOverview())
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "right":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, nil
		case "shift+tab", "left":
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	switch m.activeTab {
	case tabSessions:
		m.sessions, cmd = m.sessions.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	nav := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		nav = append(nav, style.Render(tab))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, nav...)

	var body string
	if m.errMsg != "" {
		body = errStyle.Render(m.errMsg)
	} else {
		switch m.activeTab {
		case tabSessions:
			body = m.sessions.View()
		default:
			body = m.overview.View()
		}
	}
	help := headerStyle.Render("tab switch · r reload · q quit")
	return strings.Join([]string{header, body, help}, "\n")
}

func (m *Model) renderOverview() string {
	if len(m.records) == 0 {
		return "No sessions found."
	}
	o := stats.BuildOverview(m.records)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Sessions", fmt.Sprintf("%d", o.Sessions)),
		card("Best level", fmt.Sprintf("%d-back", o.BestLevel)),
		card("Avg accuracy", fmt.Sprintf("%.1f%%", o.AvgAccuracy)),
		card("Avg latency", fmt.Sprintf("%.0f ms", o.AvgLatencyMs)),
	)

	window := m.cfg.CurveWindow
	curveWidth := m.width - 12
	if curveWidth < 10 {
		curveWidth = 10
	}
	acc := stats.Tail(stats.MovingAverage(stats.AccuracySeries(m.records), window), curveWidth)
	lvl := stats.Tail(stats.MovingAverage(stats.LevelSeries(m.records), window), curveWidth)

	lines := []string{
		cards,
		"",
		cardTitleStyle.Render("Accuracy  ") + stats.Sparkline(acc),
		cardTitleStyle.Render("Level     ") + stats.Sparkline(lvl),
	}
	return strings.Join(lines, "\n")
}

func card(title, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(title) + "\n" + cardValueStyle.Render(value))
}
