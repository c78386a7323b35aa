// Package storage defines the attempt log: a write-only record of checked
// practice sets kept for operator inspection. The engine never reads it
// back into a session, so learner progress stays transient by design.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
)

// Attempt is one checked practice set.
type Attempt struct {
	ID        uuid.UUID        `json:"id"`
	SessionID uuid.UUID        `json:"session_id"`
	LessonID  string           `json:"lesson_id"`
	Kind      domain.Kind      `json:"kind"`
	Block     int              `json:"block"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Results   []grading.Result `json:"results"`
	CreatedAt time.Time        `json:"created_at"`
}

// AttemptStore persists attempts. Both the SQLite and Postgres stores
// implement this.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, a *Attempt) error
	ListAttempts(ctx context.Context, limit int) ([]*Attempt, error)
	Close() error
}
