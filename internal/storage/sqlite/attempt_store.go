package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/storage"
)

// AttemptStore persists checked attempts in SQLite.
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a SQLite-backed attempt store.
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

var _ storage.AttemptStore = (*AttemptStore)(nil)

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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, session_id, lesson_id, kind, block, score, total, results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.SessionID.String(), a.LessonID, string(a.Kind), a.Block,
		a.Score, a.Total, string(results), a.CreatedAt,
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, lesson_id, kind, block, score, total, results, created_at
		FROM attempts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*storage.Attempt
	for rows.Next() {
		var (
			a       storage.Attempt
			id      string
			session string
			kind    string
			results string
		)
		if err := rows.Scan(&id, &session, &a.LessonID, &kind, &a.Block,
			&a.Score, &a.Total, &results, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse attempt id: %w", err)
		}
		a.SessionID, err = uuid.Parse(session)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		a.Kind = domain.Kind(kind)
		if err := json.Unmarshal([]byte(results), &a.Results); err != nil {
			a.Results = []grading.Result{}
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

// Close closes the underlying database.
func (s *AttemptStore) Close() error {
	return s.db.Close()
}
