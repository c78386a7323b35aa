package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by services and
// the delivery layer to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Content errors
var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrLevelNotFound      = errors.New("level not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrLessonUnavailable  = errors.New("lesson content unavailable")
	ErrSetNotFound        = errors.New("exercise set not found")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Practice errors
var (
	ErrNoActivePractice  = errors.New("no active practice set")
	ErrAlreadyChecked    = errors.New("answers already checked")
	ErrIncompleteAnswers = errors.New("not every exercise has a complete answer")
	ErrInvalidTransition = errors.New("invalid navigation transition")
	ErrContentLoading    = errors.New("lesson content still loading")
)
