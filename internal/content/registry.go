package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

// fetch tracks one lesson content resolution. Waiters block on done; after
// that exactly one of content or err is set, permanently.
type fetch struct {
	done    chan struct{}
	content *domain.LessonContent
	err     error
}

// Registry memoizes the Provider: the catalog is loaded once at startup,
// lesson content at most once per lesson id for the process lifetime.
// Concurrent requests for the same lesson coalesce into a single fetch. A
// fetch that resolves after the requester navigated away still lands in
// the cache for later use. A failed lesson stays failed: the error is
// remembered and no retry is issued.
type Registry struct {
	provider Provider

	mu      sync.Mutex
	levels  []domain.Level
	lessons map[string]domain.Lesson // metadata by lesson id
	fetches map[string]*fetch        // keyed by lesson id
}

// NewRegistry wraps a provider. Call LoadCatalog before anything else.
func NewRegistry(provider Provider) *Registry {
	return &Registry{
		provider: provider,
		lessons:  make(map[string]domain.Lesson),
		fetches:  make(map[string]*fetch),
	}
}

// LoadCatalog fetches the level catalog. On failure the registry stays
// empty and the system is in its terminal "catalog unavailable" state;
// calling again is allowed but nothing retries automatically.
func (r *Registry) LoadCatalog(ctx context.Context) error {
	levels, err := r.provider.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = levels
	for _, level := range levels {
		for _, lesson := range level.Lessons {
			r.lessons[lesson.ID] = lesson
			if lesson.Content != nil {
				// Inline content needs no fetch; pre-resolve it.
				f := &fetch{done: make(chan struct{}), content: lesson.Content}
				close(f.done)
				r.fetches[lesson.ID] = f
			}
		}
	}
	slog.Info("catalog loaded", "levels", len(levels), "lessons", len(r.lessons))
	return nil
}

// Levels returns the cached catalog.
func (r *Registry) Levels() []domain.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels
}

// Level returns one level by id.
func (r *Registry) Level(id string) (domain.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, level := range r.levels {
		if level.ID == id {
			return level, nil
		}
	}
	return domain.Level{}, domain.ErrLevelNotFound
}

// Lesson returns one lesson's metadata by id.
func (r *Registry) Lesson(id string) (domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lesson, ok := r.lessons[id]
	if !ok {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	return lesson, nil
}

// LessonContent resolves a lesson's content, fetching it on first use and
// blocking until the (possibly already in-flight) fetch resolves.
func (r *Registry) LessonContent(ctx context.Context, lessonID string) (*domain.LessonContent, error) {
	f, err := r.startFetch(lessonID)
	if err != nil {
		return nil, err
	}
	select {
	case <-f.done:
		return f.content, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startFetch returns the fetch record for the lesson, creating and firing
// it if this is the first request. A second request for an already loaded
// or in-flight lesson never issues a duplicate fetch.
func (r *Registry) startFetch(lessonID string) (*fetch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.fetches[lessonID]; ok {
		return f, nil
	}
	lesson, ok := r.lessons[lessonID]
	if !ok {
		return nil, domain.ErrLessonNotFound
	}

	f := &fetch{done: make(chan struct{})}
	r.fetches[lessonID] = f

	go func() {
		// The fetch outlives the request that started it: if the learner
		// navigates away the result is still cached for later use.
		content, err := r.provider.LessonContent(context.Background(), lesson.File)
		if err != nil {
			f.err = fmt.Errorf("%w: %v", domain.ErrLessonUnavailable, err)
			slog.Warn("lesson content fetch failed", "lesson_id", lessonID, "error", err)
		} else {
			f.content = content
			slog.Debug("lesson content loaded", "lesson_id", lessonID)
		}
		close(f.done)
	}()
	return f, nil
}

// Loaded reports whether the lesson's content is already resolved in the
// cache (successfully or not), without triggering a fetch.
func (r *Registry) Loaded(lessonID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fetches[lessonID]
	if !ok {
		return false
	}
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
