package core

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// Store is a SQLite-backed audit ledger with one summary row per session.
// It holds no account data and is never consulted during a run.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not initialized")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ledgerTime sorts lexically in chronological order.
const ledgerTime = "2006-01-02T15:04:05.000000000Z"

// SessionRow is the ledger view of a finished session.
type SessionRow struct {
	ID                string
	StartedAt         time.Time
	EndedAt           time.Time
	Backend           string
	TotalRequested    int
	Created           int
	Failed            int
	ChunksPlanned     int
	ChunksCompleted   int
	Aborted           bool
	AbortReason       string
	SuccessRate       float64
	LoginVerifiedRate float64
	UniquenessClean   bool
	Output            string
}

// RecordSession inserts the summary of a finished session.
func (s *Store) RecordSession(ctx context.Context, backend string, sess *Session, rep *api.SessionReport) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (
		id, started_at, ended_at, backend, total_requested, created, failed,
		chunks_planned, chunks_completed, aborted, abort_reason,
		success_rate, login_verified_rate, uniqueness_clean, output
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.StartTime.UTC().Format(ledgerTime),
		sess.EndTime.UTC().Format(ledgerTime),
		backend,
		sess.TotalRequested,
		len(sess.Created),
		len(sess.Failed),
		len(sess.ChunkPlan),
		sess.ChunksCompleted,
		boolInt(sess.Aborted),
		sess.AbortReason,
		rep.Metrics.SuccessRate,
		rep.Metrics.LoginVerifiedRate,
		boolInt(rep.Uniqueness.Clean()),
		rep.Output,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

// ListSessions returns the most recent sessions first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, started_at, ended_at, backend, total_requested, created, failed,
		chunks_planned, chunks_completed, aborted, abort_reason,
		success_rate, login_verified_rate, uniqueness_clean, output
	FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var started, ended string
		var aborted, clean int
		if err := rows.Scan(&r.ID, &started, &ended, &r.Backend, &r.TotalRequested, &r.Created, &r.Failed,
			&r.ChunksPlanned, &r.ChunksCompleted, &aborted, &r.AbortReason,
			&r.SuccessRate, &r.LoginVerifiedRate, &clean, &r.Output); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var err error
		if r.StartedAt, err = time.Parse(ledgerTime, started); err != nil {
			return nil, fmt.Errorf("scan session %s started_at: %w", r.ID, err)
		}
		if r.EndedAt, err = time.Parse(ledgerTime, ended); err != nil {
			return nil, fmt.Errorf("scan session %s ended_at: %w", r.ID, err)
		}
		r.Aborted = aborted != 0
		r.UniquenessClean = clean != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
