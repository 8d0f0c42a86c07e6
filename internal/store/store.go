// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuiback/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			n_level INTEGER NOT NULL,
			trials INTEGER NOT NULL,
			stimulus_ms INTEGER NOT NULL,
			overall_accuracy REAL NOT NULL,
			avg_latency_ms REAL NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_modality_stats (
			session_id INTEGER NOT NULL,
			modality TEXT NOT NULL,
			matches INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			false_alarms INTEGER NOT NULL,
			correct_rejections INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			PRIMARY KEY (session_id, modality)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession appends a completed session and its per-modality stats.
func (s *Store) InsertSession(ctx context.Context, summary model.SessionSummary) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, mode, n_level, trials, stimulus_ms, overall_accuracy, avg_latency_ms, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.StartedAt.Format(time.RFC3339Nano),
		summary.EndedAt.Format(time.RFC3339Nano),
		string(summary.Mode),
		summary.NLevel,
		summary.Trials,
		summary.StimulusMs,
		summary.OverallAccuracy,
		summary.AvgLatencyMs,
		summary.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_modality_stats (session_id, modality, matches, hits, misses, false_alarms, correct_rejections, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, m := range summary.Mode.Modalities() {
		st := summary.Stats(m)
		if _, err := stmt.ExecContext(ctx, id, string(m), st.Matches, st.Hits, st.Misses, st.FalseAlarms, st.CorrectRejections, st.Accuracy); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns sessions in chronological order. Rows that fail
// to decode are skipped so a damaged store reads as a shorter list
// instead of an error.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, string(cfg.Mode))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, mode, n_level, trials, stimulus_ms, overall_accuracy, avg_latency_ms, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			continue
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachModalityStats(ctx, sessions); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// LastSession returns the most recent session, or nil when the store is empty.
func (s *Store) LastSession(ctx context.Context) (*model.SessionRecord, error) {
	sessions, err := s.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	last := sessions[len(sessions)-1]
	return &last, nil
}

func scanSession(rows *sql.Rows) (model.SessionRecord, error) {
	var rec model.SessionRecord
	var startedAt, endedAt, mode string
	if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &mode, &rec.NLevel, &rec.Trials, &rec.StimulusMs, &rec.OverallAccuracy, &rec.AvgLatencyMs, &rec.DurationMs); err != nil {
		return rec, err
	}
	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return rec, err
	}
	ended, err := time.Parse(time.RFC3339Nano, endedAt)
	if err != nil {
		return rec, err
	}
	rec.StartedAt = started
	rec.EndedAt = ended
	rec.Mode = model.GameMode(mode)
	if !rec.Mode.Valid() {
		return rec, fmt.Errorf("unknown mode %q", mode)
	}
	return rec, nil
}

func (s *Store) attachModalityStats(ctx context.Context, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		return nil
	}
	placeholders := make([]string, len(sessions))
	args := make([]any, len(sessions))
	index := make(map[int64]*model.SessionRecord, len(sessions))
	for i := range sessions {
		placeholders[i] = "?"
		args[i] = sessions[i].ID
		index[sessions[i].ID] = &sessions[i]
	}
	query := fmt.Sprintf(`SELECT session_id, modality, matches, hits, misses, false_alarms, correct_rejections, accuracy
		FROM session_modality_stats
		WHERE session_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var sessionID int64
		var modality string
		var st model.ModalityStats
		if err := rows.Scan(&sessionID, &modality, &st.Matches, &st.Hits, &st.Misses, &st.FalseAlarms, &st.CorrectRejections, &st.Accuracy); err != nil {
			continue
		}
		rec, ok := index[sessionID]
		if !ok {
			continue
		}
		switch model.Modality(modality) {
		case model.Visual:
			rec.Visual = st
		case model.Audio:
			rec.Audio = st
		}
	}
	return rows.Err()
}
