// Package postgres implements the attempt log on PostgreSQL for
// deployments that already run one. Schema management is deliberately
// minimal: one table, created on open.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/storage"
)

// AttemptStore persists checked attempts in PostgreSQL.
type AttemptStore struct {
	pool *pgxpool.Pool
}

var _ storage.AttemptStore = (*AttemptStore)(nil)

// Open connects to the database and ensures the attempts table exists.
func Open(ctx context.Context, databaseURL string) (*AttemptStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS attempts (
			id         UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			lesson_id  TEXT NOT NULL,
			kind       TEXT NOT NULL,
			block      INTEGER NOT NULL DEFAULT 0,
			score      INTEGER NOT NULL,
			total      INTEGER NOT NULL,
			results    JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure attempts table: %w", err)
	}
	return &AttemptStore{pool: pool}, nil
}

// SaveAttempt inserts one attempt record.
func (s *AttemptStore) SaveAttempt(ctx context.Context, a *storage.Attempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	results, err := json.Marshal(a.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO attempts (id, session_id, lesson_id, kind, block, score, total, results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.pool.Exec(ctx, query,
		a.ID, a.SessionID.String(), a.LessonID, string(a.Kind), a.Block,
		a.Score, a.Total, results, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the most recent attempts, newest first.
func (s *AttemptStore) ListAttempts(ctx context.Context, limit int) ([]*storage.Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, session_id, lesson_id, kind, block, score, total, results, created_at
		FROM attempts ORDER BY created_at DESC LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*storage.Attempt
	for rows.Next() {
		var (
			a       storage.Attempt
			session string
			kind    string
			results []byte
		)
		if err := rows.Scan(&a.ID, &session, &a.LessonID, &kind, &a.Block,
			&a.Score, &a.Total, &results, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.SessionID, err = uuid.Parse(session)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		a.Kind = domain.Kind(kind)
		if err := json.Unmarshal(results, &a.Results); err != nil {
			a.Results = []grading.Result{}
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

// Close releases the connection pool.
func (s *AttemptStore) Close() error {
	s.pool.Close()
	return nil
}
