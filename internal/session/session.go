// Package session owns the per-learner runtime: the navigation state, the
// active practice state, and the orchestration between content loading,
// grading, speech, and the attempt log. All mutation goes through the
// Service so each session behaves as one serialized state machine even
// though the daemon serves it concurrently.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/lukasmauer/wortschatz/internal/nav"
	"github.com/lukasmauer/wortschatz/internal/practice"
)

// Session is one learner's runtime state.
type Session struct {
	ID  uuid.UUID
	Nav nav.State

	// Practice is the answer store for the active practice view, nil when
	// no practice view is entered. It is rebuilt from scratch on every
	// entry, so nothing answered in a previous visit survives.
	Practice *practice.State

	// generation is bumped on every navigation transition. An async content
	// fetch captures the generation it was started under and its completion
	// is dropped if the session has since moved on.
	generation uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is an immutable copy of one session's state, taken while the
// service lock is held. The live session is never handed out of the
// service: a detached content fetch may mutate it at any moment, so
// everything a caller renders comes from a snapshot.
type Snapshot struct {
	ID        uuid.UUID
	Nav       nav.State
	Practice  *practice.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// snapshot copies the session. Caller holds the service lock.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.ID,
		Nav:       s.Nav,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Practice != nil {
		snap.Practice = s.Practice.Clone()
	}
	return snap
}

// NewSession starts a session at the level list.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Nav:       nav.Initial(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
