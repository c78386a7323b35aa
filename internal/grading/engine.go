package grading

import (
	"strings"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

// Result is the graded outcome for a single exercise.
type Result struct {
	Correct  bool `json:"correct"`
	Gradable bool `json:"gradable"` // false when the answer key shape does not match the variant
}

// strategy grades one exercise variant.
type strategy interface {
	grade(ex *domain.Exercise, ans *domain.Answer) Result
}

// Engine routes each exercise to the strategy for its variant tag and
// aggregates a score. Grading is pure: it never mutates answers and
// recomputes the same result for the same input.
type Engine struct {
	strategies map[domain.Kind]strategy
}

// NewEngine installs the built-in per-variant strategies.
func NewEngine() *Engine {
	return &Engine{
		strategies: map[domain.Kind]strategy{
			domain.KindSingleBlank: blankStrategy{blanks: 1},
			domain.KindDoubleBlank: blankStrategy{blanks: 2},
			domain.KindTripleBlank: blankStrategy{blanks: 3},
			domain.KindImage:       blankStrategy{blanks: 1},
			domain.KindScramble:    scrambleStrategy{},
			domain.KindDialogue:    dialogueStrategy{},
		},
	}
}

// Grade compares every answer in the set against its exercise's answer key.
// The score is the count of exercises graded fully correct. An exercise
// whose key shape does not match its declared variant is reported as
// ungradable and never counted correct.
func (e *Engine) Grade(set domain.ExerciseSet, answers []domain.Answer) (int, []Result) {
	results := make([]Result, len(set.Exercises))
	score := 0
	for i := range set.Exercises {
		ex := &set.Exercises[i]
		s, ok := e.strategies[ex.Kind]
		if !ok || i >= len(answers) {
			results[i] = Result{}
			continue
		}
		results[i] = s.grade(ex, &answers[i])
		if results[i].Correct {
			score++
		}
	}
	return score, results
}

// blankStrategy grades single/double/triple blank and image association:
// every tuple slot must equal its key, exact string match.
type blankStrategy struct {
	blanks int
}

func (s blankStrategy) grade(ex *domain.Exercise, ans *domain.Answer) Result {
	if len(ex.Keys) != s.blanks || len(ans.Slots) != s.blanks {
		return Result{}
	}
	for i, slot := range ans.Slots {
		if !slot.Picked || slot.Value != ex.Keys[i] {
			return Result{Gradable: true}
		}
	}
	return Result{Correct: true, Gradable: true}
}

// scrambleStrategy grades sentence scramble: the built sequence joined with
// single spaces must equal the canonical sentence exactly. The comparison
// is deliberately case- and punctuation-sensitive; see the package tests.
type scrambleStrategy struct{}

func (scrambleStrategy) grade(ex *domain.Exercise, ans *domain.Answer) Result {
	if ex.Correct == "" || len(ex.Words) == 0 {
		return Result{}
	}
	joined := strings.Join(ans.Built, " ")
	return Result{Correct: joined == ex.Correct, Gradable: true}
}

// dialogueStrategy grades dialogue simulation: for every user turn in
// original dialogue order, the answer slot must equal that turn's key.
type dialogueStrategy struct{}

func (dialogueStrategy) grade(ex *domain.Exercise, ans *domain.Answer) Result {
	turns := ex.UserTurns()
	if len(turns) == 0 || len(ans.Slots) != len(turns) {
		return Result{}
	}
	for i, ti := range turns {
		key := ex.Turns[ti].Key
		if key == "" {
			return Result{}
		}
		if !ans.Slots[i].Picked || ans.Slots[i].Value != key {
			return Result{Gradable: true}
		}
	}
	return Result{Correct: true, Gradable: true}
}
