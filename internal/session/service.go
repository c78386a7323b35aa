package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lukasmauer/wortschatz/internal/content"
	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/events"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/nav"
	"github.com/lukasmauer/wortschatz/internal/practice"
	"github.com/lukasmauer/wortschatz/internal/speech"
	"github.com/lukasmauer/wortschatz/internal/storage"
)

// ErrInvalidArgument marks client inputs that address nothing: exercise,
// slot, or word indices out of range, or an operation that does not apply
// to the active exercise's variant.
var ErrInvalidArgument = errors.New("invalid argument")

// Service manages learner sessions. All session mutation is serialized
// under one lock; content fetches run outside it and re-enter through
// generation-checked completion.
type Service struct {
	registry *content.Registry
	engine   *grading.Engine
	sink     speech.Sink

	attempts  storage.AttemptStore // optional: attempt log
	publisher *events.Publisher    // optional: attempt events

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewService creates a session service.
func NewService(registry *content.Registry, engine *grading.Engine, sink speech.Sink) *Service {
	if sink == nil {
		sink = speech.NopSink{}
	}
	return &Service{
		registry: registry,
		engine:   engine,
		sink:     sink,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// SetAttemptStore enables the attempt log.
func (s *Service) SetAttemptStore(store storage.AttemptStore) {
	s.attempts = store
}

// SetPublisher enables attempt events.
func (s *Service) SetPublisher(p *events.Publisher) {
	s.publisher = p
}

// Create starts a new session at the level list.
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	sess := NewSession()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	snap := sess.snapshot()
	s.mu.Unlock()

	slog.Info("session created", "session_id", sess.ID)
	return snap, nil
}

// Get returns a snapshot of the session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return sess.snapshot(), nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Navigate applies one navigation action to the session. Selection actions
// are validated against the catalog before the transition fires; entering a
// lesson view triggers the (memoized) content fetch and the practice state
// is rebuilt once the content is available.
func (s *Service) Navigate(ctx context.Context, id uuid.UUID, action nav.Action) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}

	switch action.Type {
	case nav.ActionSelectLevel:
		if _, err := s.registry.Level(action.LevelID); err != nil {
			return Snapshot{}, err
		}
	case nav.ActionSelectLesson:
		if _, err := s.registry.Lesson(action.LessonID); err != nil {
			return Snapshot{}, err
		}
	}

	next, effect, err := nav.Apply(sess.Nav, action)
	if err != nil {
		return Snapshot{}, err
	}

	sess.Nav = next
	sess.generation++
	sess.Practice = nil
	sess.touch()

	switch effect {
	case nav.EffectLoadLesson:
		s.loadLessonLocked(sess)
	case nav.EffectResetPractice:
		s.resetPracticeLocked(sess)
	}
	return sess.snapshot(), nil
}

// loadLessonLocked resolves the active lesson's content. An already cached
// result is applied synchronously; otherwise the fetch runs detached and
// its completion is dropped unless the session is still on the same view.
func (s *Service) loadLessonLocked(sess *Session) {
	lessonID := sess.Nav.LessonID
	if s.registry.Loaded(lessonID) {
		// Resolved fetch: LessonContent returns without blocking.
		_, err := s.registry.LessonContent(context.Background(), lessonID)
		s.applyContentResultLocked(sess, err)
		return
	}

	gen := sess.generation
	id := sess.ID
	go func() {
		_, err := s.registry.LessonContent(context.Background(), lessonID)

		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.sessions[id]
		if !ok || current.generation != gen {
			// The learner moved on; the result stays cached for later.
			return
		}
		s.applyContentResultLocked(current, err)
	}()
}

// applyContentResultLocked feeds the fetch outcome back into the navigation
// machine and rebuilds the practice state on success.
func (s *Service) applyContentResultLocked(sess *Session, fetchErr error) {
	actionType := nav.ActionContentLoaded
	if fetchErr != nil {
		actionType = nav.ActionContentFailed
		slog.Warn("lesson content unavailable",
			"session_id", sess.ID,
			"lesson_id", sess.Nav.LessonID,
			"error", fetchErr,
		)
	}

	next, effect, err := nav.Apply(sess.Nav, nav.Action{Type: actionType})
	if err != nil {
		return
	}
	sess.Nav = next
	sess.generation++
	sess.touch()

	if effect == nav.EffectResetPractice {
		s.resetPracticeLocked(sess)
	}
}

// resetPracticeLocked builds a fresh practice state for the active view.
// The summary screen carries no exercises; a missing set leaves the view
// empty rather than failing the session.
func (s *Service) resetPracticeLocked(sess *Session) {
	sess.Practice = nil

	lc, err := s.registry.LessonContent(context.Background(), sess.Nav.LessonID)
	if err != nil {
		return
	}

	var (
		set domain.ExerciseSet
		ok  bool
	)
	switch sess.Nav.Screen {
	case nav.ScreenPracticeBlock:
		set, ok = lc.Block(sess.Nav.Block)
	case nav.ScreenScramble:
		set, ok = lc.Set(domain.KindScramble, 0)
	case nav.ScreenDialogue:
		set, ok = lc.Set(domain.KindDialogue, 0)
	case nav.ScreenImages:
		set, ok = lc.Set(domain.KindImage, 0)
	default:
		return
	}
	if !ok || len(set.Exercises) == 0 {
		slog.Warn("practice set not found",
			"session_id", sess.ID,
			"lesson_id", sess.Nav.LessonID,
			"screen", sess.Nav.Screen,
			"block", sess.Nav.Block,
			"error", domain.ErrSetNotFound,
		)
		return
	}
	sess.Practice = practice.NewState(set)
}

// active returns the session and its practice state, or the reason there is
// none: the content fetch is still pending, the entered view has no
// exercise set in this lesson, or no practice view is entered at all.
// Caller holds the lock.
func (s *Service) activeLocked(id uuid.UUID) (*Session, *practice.State, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	if sess.Practice == nil {
		switch {
		case sess.Nav.Loading:
			return nil, nil, domain.ErrContentLoading
		case nav.PracticeScreen(sess.Nav.Screen) && sess.Nav.Screen != nav.ScreenSummary:
			return nil, nil, domain.ErrSetNotFound
		default:
			return nil, nil, domain.ErrNoActivePractice
		}
	}
	return sess, sess.Practice, nil
}

// SetChoice records a pick for one answer slot of one exercise.
func (s *Service) SetChoice(ctx context.Context, id uuid.UUID, exercise, slot int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, p, err := s.activeLocked(id)
	if err != nil {
		return err
	}
	if p.Checked {
		return domain.ErrAlreadyChecked
	}
	if exercise < 0 || exercise >= len(p.Set.Exercises) {
		return fmt.Errorf("%w: exercise index %d", ErrInvalidArgument, exercise)
	}
	ex := p.Set.Exercises[exercise]
	if ex.Kind == domain.KindScramble {
		return fmt.Errorf("%w: choice on sentence-scramble exercise", ErrInvalidArgument)
	}
	if slot < 0 || slot >= ex.Arity() {
		return fmt.Errorf("%w: slot index %d", ErrInvalidArgument, slot)
	}
	p.SetChoice(exercise, slot, value)
	sess.touch()
	return nil
}

// PlaceWord moves the word at the given bank position into the built
// sequence of a scramble exercise.
func (s *Service) PlaceWord(ctx context.Context, id uuid.UUID, exercise, bankIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, p, err := s.activeLocked(id)
	if err != nil {
		return err
	}
	if p.Checked {
		return domain.ErrAlreadyChecked
	}
	if exercise < 0 || exercise >= len(p.Set.Exercises) {
		return fmt.Errorf("%w: exercise index %d", ErrInvalidArgument, exercise)
	}
	ex := &p.Set.Exercises[exercise]
	if ex.Kind != domain.KindScramble {
		return fmt.Errorf("%w: word placement on %s exercise", ErrInvalidArgument, ex.Kind)
	}
	bank := p.Answers[exercise].Bank(ex)
	if bankIndex < 0 || bankIndex >= len(bank) {
		return fmt.Errorf("%w: bank index %d", ErrInvalidArgument, bankIndex)
	}
	p.PlaceWord(exercise, bankIndex)
	sess.touch()
	return nil
}

// RemoveWord returns the built word at the given position to the bank.
func (s *Service) RemoveWord(ctx context.Context, id uuid.UUID, exercise, builtIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, p, err := s.activeLocked(id)
	if err != nil {
		return err
	}
	if p.Checked {
		return domain.ErrAlreadyChecked
	}
	if exercise < 0 || exercise >= len(p.Set.Exercises) {
		return fmt.Errorf("%w: exercise index %d", ErrInvalidArgument, exercise)
	}
	ex := &p.Set.Exercises[exercise]
	if ex.Kind != domain.KindScramble {
		return fmt.Errorf("%w: word removal on %s exercise", ErrInvalidArgument, ex.Kind)
	}
	if builtIndex < 0 || builtIndex >= len(p.Answers[exercise].Built) {
		return fmt.Errorf("%w: built index %d", ErrInvalidArgument, builtIndex)
	}
	p.RemoveWord(exercise, builtIndex)
	sess.touch()
	return nil
}

// ToggleTarget names a per-exercise visibility toggle.
type ToggleTarget string

const (
	ToggleHint        ToggleTarget = "hint"
	ToggleTranslation ToggleTarget = "translation"
)

// Toggle flips a per-exercise visibility toggle. Toggles work before and
// after checking.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID, exercise int, target ToggleTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, p, err := s.activeLocked(id)
	if err != nil {
		return err
	}
	if exercise < 0 || exercise >= len(p.Set.Exercises) {
		return fmt.Errorf("%w: exercise index %d", ErrInvalidArgument, exercise)
	}
	switch target {
	case ToggleHint:
		p.ToggleHint(exercise)
	case ToggleTranslation:
		p.ToggleTranslation(exercise)
	default:
		return fmt.Errorf("%w: unknown toggle %q", ErrInvalidArgument, target)
	}
	sess.touch()
	return nil
}

// Check grades the active set. The completeness gate is enforced by the
// practice state; the attempt log and event publication are best-effort and
// never fail the check.
func (s *Service) Check(ctx context.Context, id uuid.UUID) (int, []grading.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, p, err := s.activeLocked(id)
	if err != nil {
		return 0, nil, err
	}

	wasChecked := p.Checked
	score, results, err := p.Check(s.engine)
	if err != nil {
		return 0, nil, err
	}
	sess.touch()

	if !wasChecked {
		s.recordAttemptLocked(ctx, sess, score, results)
	}
	return score, results, nil
}

// recordAttemptLocked writes the attempt log entry and publishes the graded
// event for a freshly checked set.
func (s *Service) recordAttemptLocked(ctx context.Context, sess *Session, score int, results []grading.Result) {
	p := sess.Practice
	total := len(p.Set.Exercises)

	if s.attempts != nil {
		attempt := &storage.Attempt{
			SessionID: sess.ID,
			LessonID:  sess.Nav.LessonID,
			Kind:      p.Set.Kind,
			Block:     sess.Nav.Block,
			Score:     score,
			Total:     total,
			Results:   results,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
			slog.Warn("failed to record attempt", "session_id", sess.ID, "error", err)
		}
	}

	if s.publisher != nil {
		event := &events.AttemptGraded{
			SessionID: sess.ID,
			LessonID:  sess.Nav.LessonID,
			Kind:      p.Set.Kind,
			Block:     sess.Nav.Block,
			Score:     score,
			Total:     total,
		}
		if err := s.publisher.PublishAttemptGraded(ctx, event); err != nil {
			slog.Warn("failed to publish attempt event", "session_id", sess.ID, "error", err)
		}
	}
}

// Speak pronounces the sentence of one exercise in the active set. Speech
// is best-effort: the only error is an addressing one.
func (s *Service) Speak(ctx context.Context, id uuid.UUID, exercise int) error {
	s.mu.Lock()
	_, p, err := s.activeLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if exercise < 0 || exercise >= len(p.Set.Exercises) {
		s.mu.Unlock()
		return fmt.Errorf("%w: exercise index %d", ErrInvalidArgument, exercise)
	}
	ex := p.Set.Exercises[exercise]
	s.mu.Unlock()

	text := speech.RenderMarkup(ex.Sentence)
	if text == "" {
		text = ex.Correct
	}
	s.sink.Speak(ctx, text)
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
