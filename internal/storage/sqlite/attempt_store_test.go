package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/storage"
	"github.com/lukasmauer/wortschatz/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.AttemptStore {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlite.NewAttemptStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAttemptStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	attempt := &storage.Attempt{
		SessionID: uuid.New(),
		LessonID:  "a1.1",
		Kind:      domain.KindDoubleBlank,
		Block:     2,
		Score:     1,
		Total:     2,
		Results: []grading.Result{
			{Correct: true, Gradable: true},
			{Correct: false, Gradable: true},
		},
	}
	if err := store.SaveAttempt(ctx, attempt); err != nil {
		t.Fatalf("save: %v", err)
	}
	// The store fills in id and timestamp
	if attempt.ID == uuid.Nil || attempt.CreatedAt.IsZero() {
		t.Errorf("id/timestamp not assigned: %+v", attempt)
	}

	attempts, err := store.ListAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("listed %d attempts, want 1", len(attempts))
	}
	got := attempts[0]
	if got.ID != attempt.ID || got.SessionID != attempt.SessionID {
		t.Errorf("ids do not round-trip: %+v", got)
	}
	if got.LessonID != "a1.1" || got.Kind != domain.KindDoubleBlank || got.Block != 2 {
		t.Errorf("unexpected attempt %+v", got)
	}
	if got.Score != 1 || got.Total != 2 {
		t.Errorf("score = %d/%d, want 1/2", got.Score, got.Total)
	}
	if len(got.Results) != 2 || !got.Results[0].Correct || got.Results[1].Correct {
		t.Errorf("results do not round-trip: %v", got.Results)
	}
}

func TestAttemptStore_ListOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		a := &storage.Attempt{
			SessionID: uuid.New(),
			LessonID:  "a1.1",
			Kind:      domain.KindScramble,
			Score:     i,
			Total:     3,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveAttempt(ctx, a); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	attempts, err := store.ListAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("listed %d attempts, want 2", len(attempts))
	}
	// Newest first
	if attempts[0].Score != 2 || attempts[1].Score != 1 {
		t.Errorf("unexpected order: %d, %d", attempts[0].Score, attempts[1].Score)
	}

	// Zero limit falls back to the default window
	all, err := store.ListAttempts(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("default limit list = %d, %v, want 3", len(all), err)
	}
}

func TestAttemptStore_EmptyList(t *testing.T) {
	store := newTestStore(t)
	attempts, err := store.ListAttempts(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("listed %d attempts on empty store", len(attempts))
	}
}
