package practice

import (
	"fmt"

	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
)

// State is the transient answer store for one active exercise set. It is
// created when the learner enters a practice view and thrown away when they
// leave; nothing in it survives re-entry.
type State struct {
	Set     domain.ExerciseSet
	Answers []domain.Answer
	Checked bool
	Score   int
	Results []grading.Result

	// Per-exercise UI toggles, reset together with the answers.
	HintShown        []bool
	TranslationShown []bool
}

// NewState produces one empty answer per exercise, shaped by that
// exercise's variant.
func NewState(set domain.ExerciseSet) *State {
	s := &State{
		Set:              set,
		Answers:          make([]domain.Answer, len(set.Exercises)),
		HintShown:        make([]bool, len(set.Exercises)),
		TranslationShown: make([]bool, len(set.Exercises)),
	}
	for i := range set.Exercises {
		s.Answers[i] = domain.NewAnswer(&set.Exercises[i])
	}
	return s
}

// Clone returns a deep copy of the state. Answers, toggles, and results
// are copied; the exercise set is immutable content and is shared.
func (s *State) Clone() *State {
	c := &State{
		Set:              s.Set,
		Checked:          s.Checked,
		Score:            s.Score,
		Results:          append([]grading.Result(nil), s.Results...),
		Answers:          make([]domain.Answer, len(s.Answers)),
		HintShown:        append([]bool(nil), s.HintShown...),
		TranslationShown: append([]bool(nil), s.TranslationShown...),
	}
	for i, a := range s.Answers {
		c.Answers[i] = domain.Answer{
			Kind:  a.Kind,
			Slots: append([]domain.Choice(nil), a.Slots...),
			Built: append([]string(nil), a.Built...),
		}
	}
	return c
}

// exercise panics on an out-of-range exercise index. Callers reach this
// only through a programming or integration defect, so it is fatal at the
// call site rather than a recoverable condition.
func (s *State) exercise(i int) *domain.Exercise {
	if i < 0 || i >= len(s.Set.Exercises) {
		panic(fmt.Sprintf("practice: exercise index %d out of range [0,%d)", i, len(s.Set.Exercises)))
	}
	return &s.Set.Exercises[i]
}

// SetChoice records the learner's pick for one answer slot. For single and
// image variants slot must be 0; for double/triple it addresses one tuple
// position, leaving the others untouched; for dialogue it addresses the
// user-turn position. Repeating the same input is a no-op; mutation after
// checking is rejected.
func (s *State) SetChoice(exercise, slot int, value string) {
	if s.Checked {
		return
	}
	ex := s.exercise(exercise)
	ans := &s.Answers[exercise]
	if ex.Kind == domain.KindScramble {
		panic("practice: SetChoice on sentence-scramble exercise")
	}
	if slot < 0 || slot >= len(ans.Slots) {
		panic(fmt.Sprintf("practice: slot index %d out of range [0,%d)", slot, len(ans.Slots)))
	}
	ans.Slots[slot] = domain.Choice{Value: value, Picked: true}
}

// PlaceWord moves the word at the given bank position into the built
// sequence. The bank is derived from the scrambled bag minus the built
// words, so duplicates are addressed per occurrence.
func (s *State) PlaceWord(exercise, bankIndex int) {
	if s.Checked {
		return
	}
	ex := s.exercise(exercise)
	if ex.Kind != domain.KindScramble {
		panic("practice: PlaceWord on non-scramble exercise")
	}
	ans := &s.Answers[exercise]
	bank := ans.Bank(ex)
	if bankIndex < 0 || bankIndex >= len(bank) {
		panic(fmt.Sprintf("practice: bank index %d out of range [0,%d)", bankIndex, len(bank)))
	}
	ans.Built = append(ans.Built, bank[bankIndex])
}

// RemoveWord returns the built word at the given position to the bank.
func (s *State) RemoveWord(exercise, builtIndex int) {
	if s.Checked {
		return
	}
	ex := s.exercise(exercise)
	if ex.Kind != domain.KindScramble {
		panic("practice: RemoveWord on non-scramble exercise")
	}
	ans := &s.Answers[exercise]
	if builtIndex < 0 || builtIndex >= len(ans.Built) {
		panic(fmt.Sprintf("practice: built index %d out of range [0,%d)", builtIndex, len(ans.Built)))
	}
	ans.Built = append(ans.Built[:builtIndex], ans.Built[builtIndex+1:]...)
}

// ToggleHint flips the hint visibility for one exercise.
func (s *State) ToggleHint(exercise int) {
	s.exercise(exercise)
	s.HintShown[exercise] = !s.HintShown[exercise]
}

// ToggleTranslation flips the reference-translation visibility.
func (s *State) ToggleTranslation(exercise int) {
	s.exercise(exercise)
	s.TranslationShown[exercise] = !s.TranslationShown[exercise]
}

// Complete reports whether every exercise in the active set has a fully
// formed answer. Content correctness is irrelevant here.
func (s *State) Complete() bool {
	return Complete(s.Set, s.Answers)
}

// Check grades the set, locks the answers, and records score and
// per-exercise results. Checking an incomplete set is rejected so a
// vacuous score can never be produced; checking twice returns the already
// recorded outcome.
func (s *State) Check(engine *grading.Engine) (int, []grading.Result, error) {
	if s.Checked {
		return s.Score, s.Results, nil
	}
	if !s.Complete() {
		return 0, nil, domain.ErrIncompleteAnswers
	}
	s.Score, s.Results = engine.Grade(s.Set, s.Answers)
	s.Checked = true
	return s.Score, s.Results, nil
}

// Complete is the completeness gate: AND over all exercises, where blank
// and dialogue variants need every tuple slot set and scramble needs the
// built sequence to consume the whole bag. An empty set is incomplete so
// checking stays disabled.
func Complete(set domain.ExerciseSet, answers []domain.Answer) bool {
	if len(set.Exercises) == 0 || len(answers) != len(set.Exercises) {
		return false
	}
	for i := range set.Exercises {
		ex := &set.Exercises[i]
		ans := &answers[i]
		switch ex.Kind {
		case domain.KindSingleBlank, domain.KindDoubleBlank, domain.KindTripleBlank,
			domain.KindImage, domain.KindDialogue:
			// A shape-defective exercise with zero slots is vacuously
			// complete; grading reports it ungradable instead.
			for _, slot := range ans.Slots {
				if !slot.Picked {
					return false
				}
			}
		case domain.KindScramble:
			if len(ans.Built) != len(ex.Words) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
