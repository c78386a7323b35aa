package grading

import "github.com/lukasmauer/wortschatz/internal/domain"

// OptionState is the render annotation for a single option button.
type OptionState string

const (
	OptionNeutral   OptionState = "neutral"
	OptionSelected  OptionState = "selected"
	OptionCorrect   OptionState = "correct"
	OptionIncorrect OptionState = "incorrect"
)

// AnnotateOption classifies one option for rendering. Before checking, an
// option is selected iff it equals the learner's current choice. After
// checking, the key always renders as correct even if the learner never
// picked it, a picked wrong option renders incorrect, and everything else
// is neutral.
func AnnotateOption(option string, slot domain.Choice, key string, checked bool) OptionState {
	if !checked {
		if slot.Picked && slot.Value == option {
			return OptionSelected
		}
		return OptionNeutral
	}
	if option == key {
		return OptionCorrect
	}
	if slot.Picked && slot.Value == option {
		return OptionIncorrect
	}
	return OptionNeutral
}

// AnnotateSlot annotates a whole option list for one answer slot.
func AnnotateSlot(ex *domain.Exercise, slot int, choice domain.Choice, checked bool) []OptionState {
	options := ex.OptionsForSlot(slot)
	key, _ := ex.KeyForSlot(slot)
	states := make([]OptionState, len(options))
	for i, opt := range options {
		states[i] = AnnotateOption(opt, choice, key, checked)
	}
	return states
}
