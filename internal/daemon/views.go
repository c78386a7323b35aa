package daemon

import (
	"time"

	"github.com/lukasmauer/wortschatz/internal/domain"
	"github.com/lukasmauer/wortschatz/internal/grading"
	"github.com/lukasmauer/wortschatz/internal/practice"
	"github.com/lukasmauer/wortschatz/internal/session"
	"github.com/lukasmauer/wortschatz/internal/speech"
)

// The view types are what the daemon serves to clients. Answer keys and
// canonical sentences never appear in them: after checking, correctness is
// conveyed through option states and per-exercise results only.

type levelView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Lessons     []lessonView `json:"lessons,omitempty"`
}

type lessonView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Loaded      bool   `json:"loaded"`
}

func newLevelView(level domain.Level, loaded func(string) bool, withLessons bool) levelView {
	v := levelView{
		ID:          level.ID,
		Name:        level.Name,
		Description: level.Description,
		Icon:        level.Icon,
	}
	if !withLessons {
		return v
	}
	v.Lessons = make([]lessonView, 0, len(level.Lessons))
	for _, lesson := range level.Lessons {
		v.Lessons = append(v.Lessons, newLessonView(lesson, loaded(lesson.ID)))
	}
	return v
}

func newLessonView(lesson domain.Lesson, loaded bool) lessonView {
	return lessonView{
		ID:          lesson.ID,
		Name:        lesson.Name,
		Description: lesson.Description,
		Icon:        lesson.Icon,
		Loaded:      loaded,
	}
}

type sessionView struct {
	ID        string        `json:"id"`
	Screen    string        `json:"screen"`
	LevelID   string        `json:"level_id,omitempty"`
	LessonID  string        `json:"lesson_id,omitempty"`
	Block     int           `json:"block"`
	Loading   bool          `json:"loading"`
	Practice  *practiceView `json:"practice,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type practiceView struct {
	Kind      string           `json:"kind"`
	Title     string           `json:"title"`
	Complete  bool             `json:"complete"`
	Checked   bool             `json:"checked"`
	Score     int              `json:"score"`
	Results   []grading.Result `json:"results,omitempty"`
	Exercises []exerciseView   `json:"exercises"`
}

type exerciseView struct {
	Kind             string     `json:"kind"`
	Sentence         string     `json:"sentence,omitempty"`
	Translation      string     `json:"translation,omitempty"`
	HintShown        bool       `json:"hint_shown"`
	TranslationShown bool       `json:"translation_shown"`
	Slots            []slotView `json:"slots,omitempty"`
	Bank             []string   `json:"bank,omitempty"`
	Built            []string   `json:"built,omitempty"`
	Scenario         string     `json:"scenario,omitempty"`
	Turns            []turnView `json:"turns,omitempty"`
	Image            string     `json:"image,omitempty"`
}

type slotView struct {
	Options []string              `json:"options"`
	States  []grading.OptionState `json:"states"`
	Value   string                `json:"value,omitempty"`
	Picked  bool                  `json:"picked"`
}

// turnView is one dialogue line. Agent turns carry their text; user turns
// carry the index of the answer slot they are answered through.
type turnView struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
	Slot *int   `json:"slot,omitempty"`
}

func newSessionView(snap session.Snapshot) sessionView {
	v := sessionView{
		ID:        snap.ID.String(),
		Screen:    string(snap.Nav.Screen),
		LevelID:   snap.Nav.LevelID,
		LessonID:  snap.Nav.LessonID,
		Block:     snap.Nav.Block,
		Loading:   snap.Nav.Loading,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Practice != nil {
		pv := newPracticeView(snap.Practice)
		v.Practice = &pv
	}
	return v
}

func newPracticeView(p *practice.State) practiceView {
	v := practiceView{
		Kind:      string(p.Set.Kind),
		Title:     p.Set.Title,
		Complete:  p.Complete(),
		Checked:   p.Checked,
		Score:     p.Score,
		Results:   p.Results,
		Exercises: make([]exerciseView, 0, len(p.Set.Exercises)),
	}
	for i := range p.Set.Exercises {
		v.Exercises = append(v.Exercises, newExerciseView(p, i))
	}
	return v
}

func newExerciseView(p *practice.State, i int) exerciseView {
	ex := &p.Set.Exercises[i]
	ans := &p.Answers[i]

	v := exerciseView{
		Kind:             string(ex.Kind),
		Sentence:         speech.RenderMarkup(ex.Sentence),
		Translation:      ex.Translation,
		HintShown:        p.HintShown[i],
		TranslationShown: p.TranslationShown[i],
	}

	switch ex.Kind {
	case domain.KindScramble:
		v.Bank = ans.Bank(ex)
		v.Built = ans.Built
	case domain.KindDialogue:
		v.Scenario = ex.Scenario
		v.Turns = newTurnViews(ex)
		v.Slots = newSlotViews(ex, ans, p.Checked)
	default:
		v.Image = ex.Image
		v.Slots = newSlotViews(ex, ans, p.Checked)
	}
	return v
}

func newSlotViews(ex *domain.Exercise, ans *domain.Answer, checked bool) []slotView {
	views := make([]slotView, len(ans.Slots))
	for slot := range ans.Slots {
		choice := ans.Slots[slot]
		views[slot] = slotView{
			Options: ex.OptionsForSlot(slot),
			States:  grading.AnnotateSlot(ex, slot, choice, checked),
			Value:   choice.Value,
			Picked:  choice.Picked,
		}
	}
	return views
}

func newTurnViews(ex *domain.Exercise) []turnView {
	views := make([]turnView, 0, len(ex.Turns))
	slot := 0
	for _, turn := range ex.Turns {
		tv := turnView{Role: string(turn.Role)}
		if turn.Role == domain.RoleUser {
			s := slot
			tv.Slot = &s
			slot++
		} else {
			tv.Text = turn.Text
		}
		views = append(views, tv)
	}
	return views
}
