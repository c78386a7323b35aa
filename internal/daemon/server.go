// Package daemon is the HTTP surface of the practice engine. It owns no
// domain logic: every handler parses a request, calls one service method,
// and renders a view with the answer keys stripped.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lukasmauer/wortschatz/internal/config"
	"github.com/lukasmauer/wortschatz/internal/content"
	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/events"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/nav"
	"github.com/lukasmauer/wortschatz/internal/session"
	"github.com/lukasmauer/wortschatz/internal/speech"
	"github.com/lukasmauer/wortschatz/internal/storage"
	"github.com/lukasmauer/wortschatz/internal/storage/postgres"
	"github.com/lukasmauer/wortschatz/internal/storage/sqlite"
)

// Version is the daemon version reported by /v1/status.
const Version = "0.1.0"

// Server represents the wortschatz daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux

	registry       *content.Registry
	sessionService *session.Service
	attempts       storage.AttemptStore
	eventsConn     *events.Connection

	catalogErr error
	startedAt  time.Time
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config *config.LocalConfig

	// Provider overrides the content provider built from Config. Used by
	// tests to serve a fixture catalog.
	Provider content.Provider

	// Attempts overrides the attempt store built from Config.
	Attempts storage.AttemptStore
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		startedAt: time.Now(),
	}

	// Content provider and registry
	provider := cfg.Provider
	if provider == nil {
		var err error
		provider, err = buildProvider(cfg.Config)
		if err != nil {
			return nil, err
		}
	}
	s.registry = content.NewRegistry(provider)

	// A failed catalog load is terminal for content, not for the daemon:
	// the server still answers health and status requests.
	if err := s.registry.LoadCatalog(ctx); err != nil {
		slog.Error("catalog unavailable", "error", err)
		s.catalogErr = err
	}

	// Speech sink
	var sink speech.Sink = speech.NopSink{}
	if cfg.Config.Speech.Enabled {
		sink = speech.NewHTTPSink(speech.Config{
			Endpoint:      cfg.Config.Speech.Endpoint,
			Language:      cfg.Config.Speech.Language,
			MaxConcurrent: cfg.Config.Speech.MaxConcurrent,
			RatePerSecond: cfg.Config.Speech.RatePerSecond,
		})
	}

	// Attempt log
	s.attempts = cfg.Attempts
	if s.attempts == nil {
		store, err := buildAttemptStore(ctx, cfg.Config)
		if err != nil {
			return nil, err
		}
		s.attempts = store
	}

	// Session service
	s.sessionService = session.NewService(s.registry, grading.NewEngine(), sink)
	if s.attempts != nil {
		s.sessionService.SetAttemptStore(s.attempts)
	}

	// Optional attempt events
	if cfg.Config.Events.Enabled {
		conn, err := events.NewConnection(cfg.Config.Events.AMQPURL)
		if err != nil {
			slog.Warn("events disabled, queue unreachable", "error", err)
		} else {
			s.eventsConn = conn
			s.sessionService.SetPublisher(events.NewPublisher(conn))
		}
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(loggingMiddleware(requestIDMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// buildProvider constructs the content provider selected in the config.
func buildProvider(cfg *config.LocalConfig) (content.Provider, error) {
	switch cfg.Content.Source {
	case "http":
		timeout := time.Duration(cfg.Content.TimeoutSeconds) * time.Second
		return content.NewHTTPProvider(cfg.Content.BaseURL, timeout), nil
	case "fs":
		return content.NewFSProvider(cfg.Content.Path), nil
	default:
		return nil, fmt.Errorf("unknown content source %q", cfg.Content.Source)
	}
}

// buildAttemptStore constructs the attempt log backend selected in the
// config.
func buildAttemptStore(ctx context.Context, cfg *config.LocalConfig) (storage.AttemptStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return postgres.Open(ctx, cfg.Storage.DatabaseURL)
	case "sqlite", "":
		path := cfg.Storage.Path
		if path == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "data", "attempts.db")
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return sqlite.NewAttemptStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Catalog
	s.router.HandleFunc("GET /v1/levels", s.handleListLevels)
	s.router.HandleFunc("GET /v1/levels/{id}", s.handleGetLevel)
	s.router.HandleFunc("GET /v1/lessons/{id}", s.handleGetLesson)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	// Navigation & practice
	s.router.HandleFunc("POST /v1/sessions/{id}/select", s.handleSelect)
	s.router.HandleFunc("POST /v1/sessions/{id}/choice", s.handleChoice)
	s.router.HandleFunc("POST /v1/sessions/{id}/words", s.handleWords)
	s.router.HandleFunc("POST /v1/sessions/{id}/toggles", s.handleToggles)
	s.router.HandleFunc("POST /v1/sessions/{id}/check", s.handleCheck)
	s.router.HandleFunc("POST /v1/sessions/{id}/speak", s.handleSpeak)

	// Attempt log
	s.router.HandleFunc("GET /v1/attempts", s.handleListAttempts)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting wortschatz daemon",
		"addr", s.server.Addr,
		"content_source", s.cfg.Content.Source,
		"levels", len(s.registry.Levels()),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	if s.eventsConn != nil {
		if err := s.eventsConn.Close(); err != nil {
			slog.Warn("failed to close event connection", "error", err)
		}
	}
	if s.attempts != nil {
		if err := s.attempts.Close(); err != nil {
			slog.Warn("failed to close attempt store", "error", err)
		}
	}

	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if s.catalogErr != nil {
		status = "degraded"
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	levels := s.registry.Levels()
	lessons := 0
	for _, level := range levels {
		lessons += len(level.Lessons)
	}
	body := map[string]interface{}{
		"status":   "running",
		"version":  Version,
		"uptime_s": int(time.Since(s.startedAt).Seconds()),
		"levels":   len(levels),
		"lessons":  lessons,
		"sessions": s.sessionService.Count(),
	}
	if s.catalogErr != nil {
		body["catalog_error"] = s.catalogErr.Error()
	}
	s.jsonResponse(w, http.StatusOK, body)
}

// Catalog handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	if s.catalogErr != nil {
		s.jsonError(w, http.StatusServiceUnavailable, "catalog unavailable", s.catalogErr)
		return
	}
	levels := s.registry.Levels()
	result := make([]levelView, 0, len(levels))
	for _, level := range levels {
		result = append(result, newLevelView(level, s.registry.Loaded, false))
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"levels": result,
	})
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := s.registry.Level(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "level not found", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, newLevelView(level, s.registry.Loaded, true))
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lesson, err := s.registry.Lesson(id)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "lesson not found", nil)
		return
	}

	body := map[string]interface{}{
		"lesson": newLessonView(lesson, s.registry.Loaded(id)),
	}

	// The lesson menu shows the summary and block titles once the content
	// is cached; an unloaded lesson serves metadata only.
	if s.registry.Loaded(id) {
		lc, err := s.registry.LessonContent(r.Context(), id)
		if err == nil {
			vocab := make([]map[string]string, 0, len(lc.Summary.Vocabulary))
			for _, e := range lc.Summary.Vocabulary {
				vocab = append(vocab, map[string]string{"german": e.German, "english": e.English})
			}
			phrases := make([]map[string]string, 0, len(lc.Summary.Phrases))
			for _, e := range lc.Summary.Phrases {
				phrases = append(phrases, map[string]string{"german": e.German, "english": e.English})
			}
			blocks := make([]map[string]interface{}, 0, len(lc.Blocks))
			for i, b := range lc.Blocks {
				blocks = append(blocks, map[string]interface{}{
					"index":     i,
					"title":     b.Title,
					"exercises": len(b.Exercises),
				})
			}
			body["summary"] = map[string]interface{}{
				"vocabulary":  vocab,
				"phrases":     phrases,
				"grammar_tip": speech.RenderMarkup(lc.Summary.GrammarTip),
			}
			body["blocks"] = blocks
			body["scramble"] = len(lc.Scramble)
			body["dialogue"] = len(lc.Dialogue)
			body["images"] = len(lc.Images)
		}
	}

	s.jsonResponse(w, http.StatusOK, body)
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.catalogErr != nil {
		s.jsonError(w, http.StatusServiceUnavailable, "catalog unavailable", s.catalogErr)
		return
	}
	sess, err := s.sessionService.Create(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	sess, err := s.sessionService.Get(r.Context(), id)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	if err := s.sessionService.Delete(r.Context(), id); err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
	})
}

// Navigation handler

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req struct {
		Action   string `json:"action"` // level, lesson, practice, back
		LevelID  string `json:"level_id,omitempty"`
		LessonID string `json:"lesson_id,omitempty"`
		Target   string `json:"target,omitempty"`
		Block    int    `json:"block"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var action nav.Action
	switch req.Action {
	case "level":
		action = nav.Action{Type: nav.ActionSelectLevel, LevelID: req.LevelID}
	case "lesson":
		action = nav.Action{Type: nav.ActionSelectLesson, LessonID: req.LessonID}
	case "practice":
		action = nav.Action{Type: nav.ActionSelectPractice, Target: nav.Screen(req.Target), Block: req.Block}
	case "back":
		action = nav.Action{Type: nav.ActionBack, Target: nav.Screen(req.Target)}
	default:
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action), nil)
		return
	}

	sess, err := s.sessionService.Navigate(r.Context(), id, action)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

// Practice handlers

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req struct {
		Exercise int    `json:"exercise"`
		Slot     int    `json:"slot"`
		Value    string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.sessionService.SetChoice(r.Context(), id, req.Exercise, req.Slot, req.Value); err != nil {
		s.sessionError(w, err)
		return
	}
	s.respondWithSession(w, r, id)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req struct {
		Action   string `json:"action"` // place or remove
		Exercise int    `json:"exercise"`
		Index    int    `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	switch req.Action {
	case "place":
		err = s.sessionService.PlaceWord(r.Context(), id, req.Exercise, req.Index)
	case "remove":
		err = s.sessionService.RemoveWord(r.Context(), id, req.Exercise, req.Index)
	default:
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action), nil)
		return
	}
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.respondWithSession(w, r, id)
}

func (s *Server) handleToggles(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req struct {
		Exercise int    `json:"exercise"`
		Target   string `json:"target"` // hint or translation
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.sessionService.Toggle(r.Context(), id, req.Exercise, session.ToggleTarget(req.Target)); err != nil {
		s.sessionError(w, err)
		return
	}
	s.respondWithSession(w, r, id)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	score, results, err := s.sessionService.Check(r.Context(), id)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"score":   score,
		"total":   len(results),
		"results": results,
	})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req struct {
		Exercise int `json:"exercise"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.sessionService.Speak(r.Context(), id, req.Exercise); err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"spoken": true,
	})
}

// Attempt log handler

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	if s.attempts == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "attempt log disabled", nil)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.jsonError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	attempts, err := s.attempts.ListAttempts(r.Context(), limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list attempts", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"attempts": attempts,
	})
}

// Helper methods

// respondWithSession re-reads the session and serves the updated view, so
// every practice mutation returns the state the client should render next.
func (s *Server) respondWithSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess, err := s.sessionService.Get(r.Context(), id)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

// sessionError maps service errors onto HTTP statuses.
func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, domain.ErrLevelNotFound):
		s.jsonError(w, http.StatusNotFound, "level not found", nil)
	case errors.Is(err, domain.ErrLessonNotFound):
		s.jsonError(w, http.StatusNotFound, "lesson not found", nil)
	case errors.Is(err, domain.ErrSetNotFound):
		s.jsonError(w, http.StatusNotFound, "exercise set not found", nil)
	case errors.Is(err, domain.ErrContentLoading):
		s.jsonError(w, http.StatusConflict, "lesson content still loading", nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		s.jsonError(w, http.StatusConflict, "invalid navigation", err)
	case errors.Is(err, domain.ErrNoActivePractice):
		s.jsonError(w, http.StatusConflict, "no active practice view", nil)
	case errors.Is(err, domain.ErrAlreadyChecked):
		s.jsonError(w, http.StatusConflict, "answers already checked", nil)
	case errors.Is(err, domain.ErrIncompleteAnswers):
		s.jsonError(w, http.StatusConflict, "answers incomplete", nil)
	case errors.Is(err, session.ErrInvalidArgument):
		s.jsonError(w, http.StatusBadRequest, "invalid argument", err)
	default:
		s.jsonError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
