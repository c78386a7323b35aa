// Package nav implements the screen state machine that governs which
// content level, lesson, and practice view is active. Transitions are pure
// functions over an explicit state value so they can be tested without any
// I/O; loading content is signalled to the caller as an effect, never
// performed here.
package nav

import (
	"github.com/lukasmauer/wortschatz/internal/domain"
)

// Screen identifies the active view.
type Screen string

const (
	ScreenLevels        Screen = "levels"
	ScreenLessons       Screen = "lessons"
	ScreenLessonMenu    Screen = "lesson_menu"
	ScreenSummary       Screen = "summary"
	ScreenPracticeBlock Screen = "practice_block"
	ScreenScramble      Screen = "scramble"
	ScreenDialogue      Screen = "dialogue"
	ScreenImages        Screen = "images"
)

// depth orders screens from least to most specific. Breadcrumb navigation
// may only jump to a strictly less specific ancestor.
func depth(s Screen) int {
	switch s {
	case ScreenLevels:
		return 0
	case ScreenLessons:
		return 1
	case ScreenLessonMenu:
		return 2
	default:
		return 3
	}
}

// PracticeScreen reports whether s is one of the five lesson views that
// require the lesson's content to be loaded.
func PracticeScreen(s Screen) bool {
	return depth(s) == 3
}

// State is the full navigation state. It is a value: Apply returns a new
// state rather than mutating in place, so every transition is an atomic
// replacement.
type State struct {
	Screen   Screen
	LevelID  string
	LessonID string
	Block    int  // block index, meaningful only on ScreenPracticeBlock
	Loading  bool // content fetch pending for the current lesson view
}

// Initial returns the starting state: the level list.
func Initial() State {
	return State{Screen: ScreenLevels}
}

// ActionType enumerates the defined user selections plus the two content
// fetch completions delivered by the runtime.
type ActionType string

const (
	ActionSelectLevel    ActionType = "select_level"
	ActionSelectLesson   ActionType = "select_lesson"
	ActionSelectPractice ActionType = "select_practice"
	ActionBack           ActionType = "back"
	ActionContentLoaded  ActionType = "content_loaded"
	ActionContentFailed  ActionType = "content_failed"
)

// Action is one navigation input.
type Action struct {
	Type     ActionType
	LevelID  string
	LessonID string
	Target   Screen // destination for select_practice and back
	Block    int
}

// Effect tells the caller what entering the new state requires.
type Effect int

const (
	EffectNone Effect = iota
	// EffectLoadLesson: ensure the active lesson's content is loaded and
	// deliver ActionContentLoaded / ActionContentFailed when resolved.
	EffectLoadLesson
	// EffectResetPractice: discard and rebuild the practice state for the
	// newly entered exercise set.
	EffectResetPractice
)

// Apply executes one transition. Forward and sibling jumps must go through
// the defined selection actions; anything else returns
// domain.ErrInvalidTransition and leaves the state unchanged.
func Apply(s State, a Action) (State, Effect, error) {
	switch a.Type {
	case ActionSelectLevel:
		if s.Screen != ScreenLevels {
			return s, EffectNone, domain.ErrInvalidTransition
		}
		return State{Screen: ScreenLessons, LevelID: a.LevelID}, EffectNone, nil

	case ActionSelectLesson:
		if s.Screen != ScreenLessons {
			return s, EffectNone, domain.ErrInvalidTransition
		}
		return State{Screen: ScreenLessonMenu, LevelID: s.LevelID, LessonID: a.LessonID}, EffectNone, nil

	case ActionSelectPractice:
		if s.Screen != ScreenLessonMenu || !PracticeScreen(a.Target) {
			return s, EffectNone, domain.ErrInvalidTransition
		}
		next := State{
			Screen:   a.Target,
			LevelID:  s.LevelID,
			LessonID: s.LessonID,
			Loading:  true,
		}
		if a.Target == ScreenPracticeBlock {
			if a.Block < 0 {
				return s, EffectNone, domain.ErrInvalidTransition
			}
			next.Block = a.Block
		}
		return next, EffectLoadLesson, nil

	case ActionBack:
		if depth(a.Target) >= depth(s.Screen) {
			return s, EffectNone, domain.ErrInvalidTransition
		}
		next := State{Screen: a.Target}
		if depth(a.Target) >= 1 {
			next.LevelID = s.LevelID
		}
		if depth(a.Target) >= 2 {
			next.LessonID = s.LessonID
		}
		return next, EffectNone, nil

	case ActionContentLoaded:
		if !s.Loading {
			return s, EffectNone, domain.ErrInvalidTransition
		}
		next := s
		next.Loading = false
		return next, EffectResetPractice, nil

	case ActionContentFailed:
		// The lesson stays non-enterable: the loading indicator persists
		// and no retry is issued.
		if !s.Loading {
			return s, EffectNone, domain.ErrInvalidTransition
		}
		return s, EffectNone, nil

	default:
		return s, EffectNone, domain.ErrInvalidTransition
	}
}
