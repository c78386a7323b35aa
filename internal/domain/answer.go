package domain

// Choice is one selected option. The zero value means the learner has not
// picked anything for that slot yet; an explicitly empty option string is
// therefore still distinguishable from "unset".
type Choice struct {
	Value  string
	Picked bool
}

// Answer holds the learner's current, possibly partial answer for one
// exercise. Shape follows the exercise variant:
//
//   - single_blank / image_association: Slots has length 1
//   - double_blank / triple_blank: fixed tuple, one Choice per blank
//   - dialogue_simulation: one Choice per user turn, in dialogue order
//   - sentence_scramble: Built is the ordered word sequence placed so far;
//     the remaining word bank is derived, never stored
//
// Answers are mutated strictly by learner actions; grading never touches
// them.
type Answer struct {
	Kind  Kind
	Slots []Choice
	Built []string
}

// NewAnswer returns the empty answer shaped for the given exercise.
func NewAnswer(e *Exercise) Answer {
	a := Answer{Kind: e.Kind}
	if n := e.Arity(); n > 0 {
		a.Slots = make([]Choice, n)
	}
	return a
}

// Bank returns the derived word bank for a scramble answer: the multiset
// difference between the exercise's scrambled bag and the built sequence,
// in the bag's original order. Duplicate words are tracked per occurrence,
// so each placed word consumes exactly one bag entry.
func (a *Answer) Bank(e *Exercise) []string {
	used := make(map[string]int, len(a.Built))
	for _, w := range a.Built {
		used[w]++
	}
	bank := make([]string, 0, len(e.Words))
	for _, w := range e.Words {
		if used[w] > 0 {
			used[w]--
			continue
		}
		bank = append(bank, w)
	}
	return bank
}
