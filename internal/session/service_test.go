package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lukasmauer/wortschatz/internal/content"
	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/nav"
	"github.com/lukasmauer/wortschatz/internal/session"
	"github.com/lukasmauer/wortschatz/internal/storage"
)

// testProvider serves one level with one lesson carrying inline content, so
// every navigation path resolves synchronously under test.
type testProvider struct {
	lessonContent *domain.LessonContent
}

func testContent() *domain.LessonContent {
	return &domain.LessonContent{
		Blocks: []domain.ExerciseBlock{
			{
				Title: "Greetings",
				Exercises: []domain.Exercise{
					{
						Kind:     domain.KindSingleBlank,
						Sentence: "___, ich heiße Anna.",
						Options:  [][]string{{"Hallo", "Tschüss"}},
						Keys:     []string{"Hallo"},
					},
					{
						Kind:     domain.KindDoubleBlank,
						Sentence: "Ich ___(1)___ Tom und ___(2)___ aus Berlin.",
						Options:  [][]string{{"bin", "bist"}, {"komme", "kommst"}},
						Keys:     []string{"bin", "komme"},
					},
				},
			},
		},
		Scramble: []domain.Exercise{
			{
				Kind:    domain.KindScramble,
				Words:   []string{"gehe", "ich", "nach", "Hause"},
				Correct: "Ich gehe nach Hause",
			},
		},
	}
}

func (p *testProvider) Catalog(context.Context) ([]domain.Level, error) {
	return []domain.Level{
		{
			ID:   "a1",
			Name: "A1",
			Lessons: []domain.Lesson{
				{ID: "a1.1", Name: "Greetings", Content: p.lessonContent},
			},
		},
	}, nil
}

func (p *testProvider) LessonContent(context.Context, string) (*domain.LessonContent, error) {
	return p.lessonContent, nil
}

// recordingStore captures saved attempts in memory.
type recordingStore struct {
	mu       sync.Mutex
	attempts []*storage.Attempt
}

func (s *recordingStore) SaveAttempt(_ context.Context, a *storage.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *recordingStore) ListAttempts(context.Context, int) ([]*storage.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, nil
}

func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// recordingSink captures spoken text.
type recordingSink struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSink) Speak(_ context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func newTestService(t *testing.T) *session.Service {
	t.Helper()
	registry := content.NewRegistry(&testProvider{lessonContent: testContent()})
	if err := registry.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return session.NewService(registry, grading.NewEngine(), nil)
}

// enterBlock walks a fresh session into the first practice block and
// returns the snapshot of the entered state.
func enterBlock(t *testing.T, svc *session.Service) session.Snapshot {
	t.Helper()
	ctx := context.Background()
	snap, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenPracticeBlock, Block: 0},
	}
	for _, step := range steps {
		if snap, err = svc.Navigate(ctx, snap.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}
	return snap
}

func TestService_CreateGetDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sess.Nav.Screen != nav.ScreenLevels {
		t.Errorf("screen = %s, want levels", sess.Nav.Screen)
	}
	if svc.Count() != 1 {
		t.Errorf("count = %d, want 1", svc.Count())
	}

	got, err := svc.Get(ctx, sess.ID)
	if err != nil || got.ID != sess.ID {
		t.Errorf("get returned %v, %v", got, err)
	}

	if err := svc.Delete(ctx, sess.ID); err != nil {
		t.Errorf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestService_NavigateToPracticeBlock(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)

	// Inline content resolves synchronously: no loading window
	if sess.Nav.Screen != nav.ScreenPracticeBlock || sess.Nav.Loading {
		t.Fatalf("unexpected nav state %+v", sess.Nav)
	}
	if sess.Practice == nil {
		t.Fatal("expected practice state after entering block")
	}
	if len(sess.Practice.Set.Exercises) != 2 {
		t.Errorf("expected 2 exercises, got %d", len(sess.Practice.Set.Exercises))
	}
}

func TestService_Navigate_UnknownIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	_, err := svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionSelectLevel, LevelID: "c2"})
	if !errors.Is(err, domain.ErrLevelNotFound) {
		t.Errorf("expected ErrLevelNotFound, got %v", err)
	}
	// The failed selection leaves the session where it was
	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Nav.Screen != nav.ScreenLevels {
		t.Errorf("screen = %s, want levels", got.Nav.Screen)
	}

	if _, err := svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionSelectLevel, LevelID: "a1"}); err != nil {
		t.Fatalf("select level: %v", err)
	}
	_, err = svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionSelectLesson, LessonID: "zz"})
	if !errors.Is(err, domain.ErrLessonNotFound) {
		t.Errorf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestService_Navigate_InvalidTransition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	// Lesson selection straight from the level list
	_, err := svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionSelectLesson, LessonID: "a1.1"})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_SetChoice(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	if err := svc.SetChoice(ctx, sess.ID, 0, 0, "Hallo"); err != nil {
		t.Fatalf("set choice failed: %v", err)
	}
	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	slot := got.Practice.Answers[0].Slots[0]
	if !slot.Picked || slot.Value != "Hallo" {
		t.Errorf("slot = %+v, want picked Hallo", slot)
	}
	// The pre-pick snapshot is unaffected: it was copied, not shared
	if sess.Practice.Answers[0].Slots[0].Picked {
		t.Error("earlier snapshot mutated by a later pick")
	}
}

func TestService_SetChoice_Addressing(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	tests := []struct {
		name     string
		exercise int
		slot     int
	}{
		{"negative exercise", -1, 0},
		{"exercise out of range", 5, 0},
		{"negative slot", 0, -1},
		{"slot out of range", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetChoice(ctx, sess.ID, tt.exercise, tt.slot, "x")
			if !errors.Is(err, session.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestService_NoActivePractice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	if err := svc.SetChoice(ctx, sess.ID, 0, 0, "x"); !errors.Is(err, domain.ErrNoActivePractice) {
		t.Errorf("SetChoice: expected ErrNoActivePractice, got %v", err)
	}
	if _, _, err := svc.Check(ctx, sess.ID); !errors.Is(err, domain.ErrNoActivePractice) {
		t.Errorf("Check: expected ErrNoActivePractice, got %v", err)
	}
	if err := svc.Speak(ctx, sess.ID, 0); !errors.Is(err, domain.ErrNoActivePractice) {
		t.Errorf("Speak: expected ErrNoActivePractice, got %v", err)
	}
}

func TestService_Words(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenScramble},
	}
	for _, step := range steps {
		if _, err := svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}

	// Bank is [gehe ich nach Hause]; pick "ich" first
	if err := svc.PlaceWord(ctx, sess.ID, 0, 1); err != nil {
		t.Fatalf("place word failed: %v", err)
	}
	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	built := got.Practice.Answers[0].Built
	if len(built) != 1 || built[0] != "ich" {
		t.Fatalf("built = %v, want [ich]", built)
	}

	if err := svc.PlaceWord(ctx, sess.ID, 0, 9); !errors.Is(err, session.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for bad bank index, got %v", err)
	}
	if err := svc.RemoveWord(ctx, sess.ID, 0, 0); err != nil {
		t.Fatalf("remove word failed: %v", err)
	}
	got, err = svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Practice.Answers[0].Built) != 0 {
		t.Errorf("built not emptied: %v", got.Practice.Answers[0].Built)
	}

	// Choice operations do not apply to a scramble set
	if err := svc.SetChoice(ctx, sess.ID, 0, 0, "ich"); !errors.Is(err, session.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_Words_WrongKind(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	if err := svc.PlaceWord(ctx, sess.ID, 0, 0); !errors.Is(err, session.ErrInvalidArgument) {
		t.Errorf("PlaceWord on blank exercise: expected ErrInvalidArgument, got %v", err)
	}
	if err := svc.RemoveWord(ctx, sess.ID, 0, 0); !errors.Is(err, session.ErrInvalidArgument) {
		t.Errorf("RemoveWord on blank exercise: expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_Toggle(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	if err := svc.Toggle(ctx, sess.ID, 0, session.ToggleHint); err != nil {
		t.Fatalf("toggle hint failed: %v", err)
	}
	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Practice.HintShown[0] {
		t.Error("hint not shown after toggle")
	}
	if err := svc.Toggle(ctx, sess.ID, 0, session.ToggleTranslation); err != nil {
		t.Fatalf("toggle translation failed: %v", err)
	}
	if err := svc.Toggle(ctx, sess.ID, 0, "spoilers"); !errors.Is(err, session.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown toggle, got %v", err)
	}
}

func TestService_CheckFlow(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	store := &recordingStore{}
	svc.SetAttemptStore(store)

	// Incomplete answers are refused and nothing is recorded
	if _, _, err := svc.Check(ctx, sess.ID); !errors.Is(err, domain.ErrIncompleteAnswers) {
		t.Fatalf("expected ErrIncompleteAnswers, got %v", err)
	}
	if store.count() != 0 {
		t.Errorf("attempt recorded for refused check")
	}

	answers := []struct{ ex, slot int; value string }{
		{0, 0, "Hallo"},
		{1, 0, "bin"},
		{1, 1, "kommst"}, // wrong
	}
	for _, a := range answers {
		if err := svc.SetChoice(ctx, sess.ID, a.ex, a.slot, a.value); err != nil {
			t.Fatalf("set choice: %v", err)
		}
	}

	score, results, err := svc.Check(ctx, sess.ID)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if score != 1 || len(results) != 2 {
		t.Errorf("score = %d, results = %v, want 1 of 2", score, results)
	}
	if !results[0].Correct || results[1].Correct {
		t.Errorf("unexpected results %v", results)
	}

	// The checked set is locked
	if err := svc.SetChoice(ctx, sess.ID, 1, 1, "komme"); !errors.Is(err, domain.ErrAlreadyChecked) {
		t.Errorf("expected ErrAlreadyChecked, got %v", err)
	}
	// Toggles still work after checking
	if err := svc.Toggle(ctx, sess.ID, 0, session.ToggleTranslation); err != nil {
		t.Errorf("toggle after check failed: %v", err)
	}

	// Re-check replays the recorded result without a second attempt entry
	again, _, err := svc.Check(ctx, sess.ID)
	if err != nil || again != score {
		t.Errorf("re-check = %d, %v, want %d", again, err, score)
	}
	if store.count() != 1 {
		t.Fatalf("attempts recorded = %d, want 1", store.count())
	}

	attempt := store.attempts[0]
	if attempt.SessionID != sess.ID || attempt.LessonID != "a1.1" {
		t.Errorf("unexpected attempt %+v", attempt)
	}
	if attempt.Score != 1 || attempt.Total != 2 {
		t.Errorf("attempt score = %d/%d, want 1/2", attempt.Score, attempt.Total)
	}
}

func TestService_ReentryResetsPractice(t *testing.T) {
	svc := newTestService(t)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	for _, a := range []struct{ ex, slot int; value string }{
		{0, 0, "Hallo"}, {1, 0, "bin"}, {1, 1, "komme"},
	} {
		if err := svc.SetChoice(ctx, sess.ID, a.ex, a.slot, a.value); err != nil {
			t.Fatalf("set choice: %v", err)
		}
	}
	if _, _, err := svc.Check(ctx, sess.ID); err != nil {
		t.Fatalf("check: %v", err)
	}

	// Leave and re-enter the same block: everything starts over
	snap, err := svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionBack, Target: nav.ScreenLessonMenu})
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if snap.Practice != nil {
		t.Error("practice state should be dropped on leaving the view")
	}
	snap, err = svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionSelectPractice, Target: nav.ScreenPracticeBlock, Block: 0})
	if err != nil {
		t.Fatalf("re-enter: %v", err)
	}
	p := snap.Practice
	if p == nil {
		t.Fatal("expected fresh practice state")
	}
	if p.Checked {
		t.Error("fresh state must not be checked")
	}
	for i, ans := range p.Answers {
		for j, slot := range ans.Slots {
			if slot.Picked {
				t.Errorf("exercise %d slot %d survived re-entry", i, j)
			}
		}
	}
}

func TestService_SummaryHasNoPractice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenSummary},
	}
	snap := sess
	for _, step := range steps {
		var err error
		if snap, err = svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}
	if snap.Nav.Screen != nav.ScreenSummary {
		t.Fatalf("screen = %s, want summary", snap.Nav.Screen)
	}
	if snap.Practice != nil {
		t.Error("summary view must carry no practice state")
	}
	// A practice operation off the summary screen reports no active set
	if err := svc.SetChoice(ctx, sess.ID, 0, 0, "x"); !errors.Is(err, domain.ErrNoActivePractice) {
		t.Errorf("expected ErrNoActivePractice, got %v", err)
	}
}

func TestService_MissingSetLeavesPracticeEmpty(t *testing.T) {
	// The lesson has no dialogue exercises; entering that view yields an
	// empty practice view instead of an error.
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenDialogue},
	}
	snap := sess
	for _, step := range steps {
		var err error
		if snap, err = svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}
	if snap.Nav.Screen != nav.ScreenDialogue || snap.Nav.Loading {
		t.Fatalf("unexpected nav state %+v", snap.Nav)
	}
	if snap.Practice != nil {
		t.Error("missing set should leave practice state empty")
	}

	// The empty view is not practicable: checking a set that does not
	// exist in this lesson is distinguishable from never entering one
	if _, _, err := svc.Check(ctx, sess.ID); !errors.Is(err, domain.ErrSetNotFound) {
		t.Errorf("Check: expected ErrSetNotFound, got %v", err)
	}
	if err := svc.SetChoice(ctx, sess.ID, 0, 0, "x"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Errorf("SetChoice: expected ErrSetNotFound, got %v", err)
	}
}

func TestService_Speak(t *testing.T) {
	registry := content.NewRegistry(&testProvider{lessonContent: testContent()})
	if err := registry.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	sink := &recordingSink{}
	svc := session.NewService(registry, grading.NewEngine(), sink)
	sess := enterBlock(t, svc)
	ctx := context.Background()

	if err := svc.Speak(ctx, sess.ID, 0); err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if len(sink.spoken) != 1 || sink.spoken[0] != "___, ich heiße Anna." {
		t.Errorf("spoken = %v", sink.spoken)
	}
	if err := svc.Speak(ctx, sess.ID, 7); !errors.Is(err, session.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_StaleContentCompletionDropped(t *testing.T) {
	// A slow fetch resolving after the learner backed out must not revive
	// the abandoned practice view.
	gate := make(chan struct{})
	provider := &gatedProvider{inner: &testProvider{lessonContent: testContent()}, gate: gate}
	registry := content.NewRegistry(provider)
	if err := registry.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	svc := session.NewService(registry, grading.NewEngine(), nil)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenPracticeBlock, Block: 0},
	}
	for _, step := range steps {
		if _, err := svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}

	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Nav.Loading {
		t.Fatal("expected loading state while the fetch is gated")
	}

	// Back out before the fetch resolves
	if _, err := svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionBack, Target: nav.ScreenLessonMenu}); err != nil {
		t.Fatalf("back: %v", err)
	}
	close(gate)

	// The stale completion is dropped: the session stays on the menu
	deadline := time.Now().Add(time.Second)
	for !registry.Loaded("a1.1") {
		if time.Now().After(deadline) {
			t.Fatal("fetch never resolved")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	got, err = svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Nav.Screen != nav.ScreenLessonMenu || got.Practice != nil {
		t.Errorf("stale completion applied: %+v", got.Nav)
	}

	// Re-entering now uses the cached content synchronously
	snap, err := svc.Navigate(ctx, sess.ID, nav.Action{Type: nav.ActionSelectPractice, Target: nav.ScreenPracticeBlock, Block: 0})
	if err != nil {
		t.Fatalf("re-enter: %v", err)
	}
	if snap.Nav.Loading || snap.Practice == nil {
		t.Errorf("cached re-entry did not resolve synchronously: %+v", snap.Nav)
	}
}

// gatedProvider defers lesson content resolution until the gate closes. The
// catalog carries no inline content so the fetch path is exercised.
type gatedProvider struct {
	inner *testProvider
	gate  chan struct{}
}

func (p *gatedProvider) Catalog(ctx context.Context) ([]domain.Level, error) {
	levels, err := p.inner.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range levels {
		for j := range levels[i].Lessons {
			levels[i].Lessons[j].Content = nil
			levels[i].Lessons[j].File = "a1/greetings.json"
		}
	}
	return levels, nil
}

func (p *gatedProvider) LessonContent(ctx context.Context, ref string) (*domain.LessonContent, error) {
	<-p.gate
	return p.inner.LessonContent(ctx, ref)
}

func TestService_SnapshotDeepCopy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenScramble},
	}
	for _, step := range steps {
		if _, err := svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}

	if err := svc.PlaceWord(ctx, sess.ID, 0, 0); err != nil {
		t.Fatalf("place word: %v", err)
	}
	snap, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveWord(ctx, sess.ID, 0, 0); err != nil {
		t.Fatalf("remove word: %v", err)
	}

	// The earlier snapshot keeps its own copy of the built sequence
	if got := snap.Practice.Answers[0].Built; len(got) != 1 || got[0] != "gehe" {
		t.Errorf("snapshot built sequence mutated by later remove: %v", got)
	}
}

func TestService_PracticeRejectedWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	provider := &gatedProvider{inner: &testProvider{lessonContent: testContent()}, gate: gate}
	registry := content.NewRegistry(provider)
	if err := registry.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	svc := session.NewService(registry, grading.NewEngine(), nil)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenPracticeBlock, Block: 0},
	}
	for _, step := range steps {
		if _, err := svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}

	// The view is entered but its content is still in flight
	if err := svc.SetChoice(ctx, sess.ID, 0, 0, "Hallo"); !errors.Is(err, domain.ErrContentLoading) {
		t.Errorf("SetChoice: expected ErrContentLoading, got %v", err)
	}
	if _, _, err := svc.Check(ctx, sess.ID); !errors.Is(err, domain.ErrContentLoading) {
		t.Errorf("Check: expected ErrContentLoading, got %v", err)
	}
}

func TestService_ConcurrentRendersDuringContentLoad(t *testing.T) {
	// Snapshots served while the detached fetch completion rebuilds the
	// practice state must never expose a partial update.
	gate := make(chan struct{})
	provider := &gatedProvider{inner: &testProvider{lessonContent: testContent()}, gate: gate}
	registry := content.NewRegistry(provider)
	if err := registry.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	svc := session.NewService(registry, grading.NewEngine(), nil)
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	steps := []nav.Action{
		{Type: nav.ActionSelectLevel, LevelID: "a1"},
		{Type: nav.ActionSelectLesson, LessonID: "a1.1"},
		{Type: nav.ActionSelectPractice, Target: nav.ScreenPracticeBlock, Block: 0},
	}
	for _, step := range steps {
		if _, err := svc.Navigate(ctx, sess.ID, step); err != nil {
			t.Fatalf("navigate %s: %v", step.Type, err)
		}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := svc.Get(ctx, sess.ID)
				if err != nil {
					return
				}
				if p := snap.Practice; p != nil {
					_ = p.Complete()
					for i := range p.Answers {
						_ = p.Answers[i].Bank(&p.Set.Exercises[i])
					}
				}
			}
		}()
	}

	close(gate)

	deadline := time.Now().Add(time.Second)
	for {
		snap, err := svc.Get(ctx, sess.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !snap.Nav.Loading && snap.Practice != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("content completion never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(stop)
	wg.Wait()
}
