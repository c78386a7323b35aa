package domain

// RichText is trusted markup supplied by content authors. Only the sentence
// text of an exercise and a lesson's grammar tip may carry markup; every
// other field is plain text and must be escaped before rendering. Keeping
// the type distinct makes that boundary explicit.
type RichText string

// String returns the raw markup.
func (r RichText) String() string { return string(r) }

// Level is the top of the content hierarchy. Levels are loaded once at
// process start and are read-only to the engine.
type Level struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Lessons     []Lesson
}

// Lesson carries display metadata plus either inline content or a deferred
// content reference resolved on first entry.
type Lesson struct {
	ID          string
	Name        string
	Description string
	Icon        string
	File        string // deferred content reference; empty when inline
	Content     *LessonContent
}

// Entry is a vocabulary or phrase pair in the two fixed display languages.
type Entry struct {
	German  string
	English string
}

// Summary is the vocabulary/phrase overview shown on a lesson's summary
// screen.
type Summary struct {
	Vocabulary []Entry
	Phrases    []Entry
	GrammarTip RichText
}

// ExerciseBlock is a named partition of a lesson's fill-in-the-blank
// exercises.
type ExerciseBlock struct {
	Title     string
	Exercises []Exercise
}

// LessonContent is the full, immutable content of one lesson. It is loaded
// at most once per process and cached by lesson id.
type LessonContent struct {
	Summary  Summary
	Blocks   []ExerciseBlock
	Scramble []Exercise
	Dialogue []Exercise
	Images   []Exercise
}

// Set materializes the exercise set for one practice view of the lesson.
// block is only meaningful for blank practice; it is the index into Blocks.
// Returns ok=false when the requested set does not exist in this lesson.
func (c *LessonContent) Set(kind Kind, block int) (ExerciseSet, bool) {
	switch kind {
	case KindSingleBlank, KindDoubleBlank, KindTripleBlank:
		if block < 0 || block >= len(c.Blocks) {
			return ExerciseSet{}, false
		}
		b := c.Blocks[block]
		return ExerciseSet{Kind: kind, Title: b.Title, Exercises: b.Exercises}, true
	case KindScramble:
		return ExerciseSet{Kind: kind, Title: "Sentence building", Exercises: c.Scramble}, true
	case KindDialogue:
		return ExerciseSet{Kind: kind, Title: "Dialogue practice", Exercises: c.Dialogue}, true
	case KindImage:
		return ExerciseSet{Kind: kind, Title: "Picture match", Exercises: c.Images}, true
	default:
		return ExerciseSet{}, false
	}
}

// Block materializes the exercise set for a named blank-exercise block,
// deriving the variant tag from the block's own exercises. Mixed blocks
// keep the tag of their first exercise; grading treats any stragglers with
// a different shape as ungradable rather than failing the whole block.
func (c *LessonContent) Block(block int) (ExerciseSet, bool) {
	if block < 0 || block >= len(c.Blocks) {
		return ExerciseSet{}, false
	}
	b := c.Blocks[block]
	kind := KindSingleBlank
	if len(b.Exercises) > 0 {
		kind = b.Exercises[0].Kind
	}
	return ExerciseSet{Kind: kind, Title: b.Title, Exercises: b.Exercises}, true
}
