// Package main provides the CLI entrypoint for tuiback.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuiback/internal/config"
	"github.com/verte-zerg/tuiback/internal/generator"
	"github.com/verte-zerg/tuiback/internal/model"
	"github.com/verte-zerg/tuiback/internal/session"
	"github.com/verte-zerg/tuiback/internal/stats"
	"github.com/verte-zerg/tuiback/internal/statsui"
	"github.com/verte-zerg/tuiback/internal/store"
	"github.com/verte-zerg/tuiback/internal/tui"
)

const (
	defaultMode        = string(model.ModeDual)
	defaultLevel       = 2
	defaultCurveWindow = 10
)

var (
	gameMode     string
	gameLevel    int
	gameTrials   int
	gameDuration int
	gameAdaptive bool

	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiback",
		Short:         "TUI dual n-back trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGame(cmd, false)
		},
	}

	rootCmd.Flags().StringVar(&gameMode, "mode", defaultMode, "game mode: visual, audio, or dual")
	rootCmd.Flags().IntVar(&gameLevel, "level", defaultLevel, "n-back level (1-8)")
	rootCmd.Flags().IntVar(&gameTrials, "trials", model.DefaultTrials, "trials per session")
	rootCmd.Flags().IntVar(&gameDuration, "duration", model.DefaultStimulusMs, "stimulus duration in ms (2000-4000)")
	rootCmd.Flags().BoolVar(&gameAdaptive, "adaptive", true, "adjust n-back level between sessions")

	rootCmd.AddCommand(newPracticeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func newPracticeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Short practice run with per-trial feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGame(cmd, true)
		},
	}
	cmd.Flags().StringVar(&gameMode, "mode", defaultMode, "game mode: visual, audio, or dual")
	cmd.Flags().IntVar(&gameLevel, "level", defaultLevel, "n-back level (1-8)")
	cmd.Flags().IntVar(&gameDuration, "duration", model.DefaultStimulusMs, "stimulus duration in ms (2000-4000)")
	return cmd
}

func runGame(cmd *cobra.Command, practice bool) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &gameMode, fileCfg.Game.Mode)
	applyIntConfig(cmd, "level", &gameLevel, fileCfg.Game.NLevel)
	applyIntConfig(cmd, "duration", &gameDuration, fileCfg.Game.DurationMs)
	if !practice {
		applyIntConfig(cmd, "trials", &gameTrials, fileCfg.Game.Trials)
		applyBoolConfig(cmd, "adaptive", &gameAdaptive, fileCfg.Game.Adaptive)
	}

	storePath := config.DefaultDBPath()
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	cfg := model.GameConfig{
		Mode:       model.GameMode(gameMode),
		NLevel:     gameLevel,
		Trials:     gameTrials,
		StimulusMs: gameDuration,
		Adaptive:   gameAdaptive,
		Practice:   practice,
	}.Normalize()

	if cfg.Adaptive && !practice && !cmd.Flags().Changed("level") {
		cfg.NLevel = carriedLevel(st, cfg.NLevel)
	}

	m := tui.NewModel(cfg, st, generator.New())
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// carriedLevel seeds the starting level from the last stored session's
// adaptive proposal. Any store trouble falls back to the configured level.
func carriedLevel(st *store.Store, fallback int) int {
	last, err := st.LastSession(context.Background())
	if err != nil {
		logErrf("failed to load last session: %v\n", err)
		return fallback
	}
	if last == nil {
		return fallback
	}
	return session.NextLevel(last.NLevel, last.OverallAccuracy).NewN
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsMode != "" && !model.GameMode(statsMode).Valid() {
		return fmt.Errorf("unknown mode %q (visual, audio, dual)", statsMode)
	}

	cfg := model.StatsConfig{
		Mode:        model.GameMode(statsMode),
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	storePath := config.DefaultDBPath()
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		records, err := st.ListSessions(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		return stats.RenderReport(cmd.OutOrStdout(), records, cfg.CurveWindow, stats.TerminalWidth())
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuiback configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# mode = %q          # visual, audio, or dual
# n-level = %d           # n-back level (1-8)
# trials = %d           # trials per session
# duration-ms = %d    # stimulus duration in ms (2000-4000)
# adaptive = true       # adjust n-back level between sessions
`,
		defaultMode,
		defaultLevel,
		model.DefaultTrials,
		model.DefaultStimulusMs,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
