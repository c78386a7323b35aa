package domain

// Kind identifies an exercise variant. The set is closed: every component
// that consumes exercises (answer store, grading, completeness, rendering)
// switches exhaustively over these tags, so adding a variant is a visible
// breaking change rather than a silent default.
type Kind string

const (
	KindSingleBlank Kind = "single_blank"
	KindDoubleBlank Kind = "double_blank"
	KindTripleBlank Kind = "triple_blank"
	KindScramble    Kind = "sentence_scramble"
	KindDialogue    Kind = "dialogue_simulation"
	KindImage       Kind = "image_association"
)

// Kinds lists all exercise variants in a stable order.
var Kinds = []Kind{
	KindSingleBlank,
	KindDoubleBlank,
	KindTripleBlank,
	KindScramble,
	KindDialogue,
	KindImage,
}

// Valid reports whether k is one of the known variant tags.
func (k Kind) Valid() bool {
	switch k {
	case KindSingleBlank, KindDoubleBlank, KindTripleBlank,
		KindScramble, KindDialogue, KindImage:
		return true
	}
	return false
}

// Blanks returns the number of numbered blanks the variant carries.
// Scramble and dialogue exercises have no blanks.
func (k Kind) Blanks() int {
	switch k {
	case KindSingleBlank, KindImage:
		return 1
	case KindDoubleBlank:
		return 2
	case KindTripleBlank:
		return 3
	default:
		return 0
	}
}

// Role tags a dialogue turn as spoken by the scripted agent or the learner.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// DialogueTurn is a single line in a dialogue-simulation exercise. Agent
// turns are static display lines; only user turns carry an option list and
// an answer key.
type DialogueTurn struct {
	Role    Role
	Text    string
	Options []string
	Key     string
}

// Exercise is the variant-tagged exercise model. Which fields are populated
// depends on Kind:
//
//   - blank variants: Sentence (with ___ / ___(n)___ markers), Translation,
//     one option list per blank in Options, one key per blank in Keys
//   - sentence_scramble: Words (the scrambled bag), Correct (the canonical
//     sentence), Translation
//   - dialogue_simulation: Scenario, Turns
//   - image_association: Image, Translation, Options[0], Keys[0]
type Exercise struct {
	Kind        Kind
	Sentence    RichText
	Translation string
	Options     [][]string
	Keys        []string
	Words       []string
	Correct     string
	Scenario    string
	Turns       []DialogueTurn
	Image       string
}

// UserTurns returns the indices of learner turns within Turns, in original
// dialogue order. Grading and answer slots are indexed by position in this
// slice, independent of how agent turns are interleaved.
func (e *Exercise) UserTurns() []int {
	var idx []int
	for i, t := range e.Turns {
		if t.Role == RoleUser {
			idx = append(idx, i)
		}
	}
	return idx
}

// Arity returns the number of answer slots the exercise expects: one per
// blank for blank variants, one per user turn for dialogue, zero for
// sentence scramble (its answer is the built word sequence).
func (e *Exercise) Arity() int {
	if e.Kind == KindDialogue {
		return len(e.UserTurns())
	}
	return e.Kind.Blanks()
}

// OptionsForSlot returns the option list for the given answer slot. For
// dialogue exercises the slot is a user-turn position; for blank variants
// it is the blank index.
func (e *Exercise) OptionsForSlot(slot int) []string {
	if e.Kind == KindDialogue {
		turns := e.UserTurns()
		if slot < 0 || slot >= len(turns) {
			return nil
		}
		return e.Turns[turns[slot]].Options
	}
	if slot < 0 || slot >= len(e.Options) {
		return nil
	}
	return e.Options[slot]
}

// KeyForSlot returns the answer key for the given slot, or "" with ok=false
// when the exercise's key shape does not match its declared variant. A
// missing key makes the slot ungradable, never a crash.
func (e *Exercise) KeyForSlot(slot int) (string, bool) {
	if e.Kind == KindDialogue {
		turns := e.UserTurns()
		if slot < 0 || slot >= len(turns) {
			return "", false
		}
		key := e.Turns[turns[slot]].Key
		return key, key != ""
	}
	if slot < 0 || slot >= len(e.Keys) {
		return "", false
	}
	return e.Keys[slot], true
}

// ExerciseSet is an ordered group of exercises of the same practice kind,
// materialized when the learner enters a practice view and discarded when
// they leave it.
type ExerciseSet struct {
	Kind      Kind
	Title     string
	Exercises []Exercise
}
