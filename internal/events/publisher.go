package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher emits practice events to the queue.
type Publisher struct {
	conn *Connection
}

// NewPublisher creates a new event publisher
func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

// PublishAttemptGraded publishes the result of a checked practice set.
func (p *Publisher) PublishAttemptGraded(ctx context.Context, event *AttemptGraded) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, AttemptQueueName, event); err != nil {
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}

	slog.Info("published attempt event",
		"event_id", event.ID,
		"session_id", event.SessionID,
		"lesson_id", event.LessonID,
		"kind", event.Kind,
		"score", event.Score,
		"total", event.Total,
	)

	return nil
}
