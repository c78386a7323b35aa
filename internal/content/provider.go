// Package content resolves the read-only lesson catalog and lesson content
// for the engine. The wire format is JSON; blank markers inside sentences
// are "___" for a single blank and "___(1)___".."___(3)___" for numbered
// blanks, positionally matching the option-list order.
package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

// Provider resolves content references to parsed content. Implementations
// do not retry: all fallibility is surfaced to the registry, which refuses
// to transition into an unusable state instead of substituting defaults.
type Provider interface {
	// Catalog fetches all levels with their lesson metadata.
	Catalog(ctx context.Context) ([]domain.Level, error)
	// LessonContent resolves a lesson's deferred content reference.
	LessonContent(ctx context.Context, ref string) (*domain.LessonContent, error)
}

// Wire structures for the catalog and lesson content JSON files.

type levelFile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Lessons     []lessonFile `json:"lessons"`
}

type lessonFile struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Icon        string             `json:"icon"`
	File        string             `json:"file"`
	Content     *lessonContentFile `json:"content,omitempty"`
}

type lessonContentFile struct {
	Summary struct {
		Vocabulary []entryFile `json:"vocabulary"`
		Phrases    []entryFile `json:"phrases"`
		GrammarTip string      `json:"grammarTip"`
	} `json:"summary"`
	ExerciseBlocks []struct {
		Title     string          `json:"title"`
		Exercises []blankExercise `json:"exercises"`
	} `json:"exerciseBlocks"`
	Scramble []scrambleExercise `json:"exercises2"`
	Dialogue []dialogueExercise `json:"exercises3"`
	Images   []imageExercise    `json:"exercises4"`
}

type entryFile struct {
	German  string `json:"german"`
	English string `json:"english"`
}

type blankExercise struct {
	Sentence    string   `json:"sentence"`
	Translation string   `json:"translation"`
	Options1    []string `json:"options1"`
	Options2    []string `json:"options2,omitempty"`
	Options3    []string `json:"options3,omitempty"`
	Answers     []string `json:"answers"`
}

type scrambleExercise struct {
	Words       []string `json:"words"`
	Correct     string   `json:"correct"`
	Translation string   `json:"translation"`
}

type dialogueExercise struct {
	Scenario string `json:"scenario"`
	Turns    []struct {
		Role    string   `json:"role"`
		Text    string   `json:"text"`
		Options []string `json:"options,omitempty"`
		Answer  string   `json:"answer,omitempty"`
	} `json:"turns"`
}

type imageExercise struct {
	Image       string   `json:"image"`
	Translation string   `json:"translation"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
}

func parseCatalog(data []byte) ([]domain.Level, error) {
	var files []levelFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	levels := make([]domain.Level, len(files))
	for i, lf := range files {
		level := domain.Level{
			ID:          lf.ID,
			Name:        lf.Name,
			Description: lf.Description,
			Icon:        lf.Icon,
			Lessons:     make([]domain.Lesson, len(lf.Lessons)),
		}
		for j, lsn := range lf.Lessons {
			lesson := domain.Lesson{
				ID:          lsn.ID,
				Name:        lsn.Name,
				Description: lsn.Description,
				Icon:        lsn.Icon,
				File:        lsn.File,
			}
			if lsn.Content != nil {
				lesson.Content = mapContent(lsn.Content)
			}
			level.Lessons[j] = lesson
		}
		levels[i] = level
	}
	return levels, nil
}

func parseLessonContent(data []byte) (*domain.LessonContent, error) {
	var cf lessonContentFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse lesson content: %w", err)
	}
	return mapContent(&cf), nil
}

func mapContent(cf *lessonContentFile) *domain.LessonContent {
	c := &domain.LessonContent{}
	c.Summary.GrammarTip = domain.RichText(cf.Summary.GrammarTip)
	for _, e := range cf.Summary.Vocabulary {
		c.Summary.Vocabulary = append(c.Summary.Vocabulary, domain.Entry{German: e.German, English: e.English})
	}
	for _, e := range cf.Summary.Phrases {
		c.Summary.Phrases = append(c.Summary.Phrases, domain.Entry{German: e.German, English: e.English})
	}
	for _, b := range cf.ExerciseBlocks {
		block := domain.ExerciseBlock{Title: b.Title}
		for _, ex := range b.Exercises {
			block.Exercises = append(block.Exercises, mapBlank(ex))
		}
		c.Blocks = append(c.Blocks, block)
	}
	for _, ex := range cf.Scramble {
		c.Scramble = append(c.Scramble, domain.Exercise{
			Kind:        domain.KindScramble,
			Words:       ex.Words,
			Correct:     ex.Correct,
			Translation: ex.Translation,
		})
	}
	for _, ex := range cf.Dialogue {
		d := domain.Exercise{Kind: domain.KindDialogue, Scenario: ex.Scenario}
		for _, t := range ex.Turns {
			role := domain.RoleAgent
			if t.Role == string(domain.RoleUser) {
				role = domain.RoleUser
			}
			d.Turns = append(d.Turns, domain.DialogueTurn{
				Role:    role,
				Text:    t.Text,
				Options: t.Options,
				Key:     t.Answer,
			})
		}
		c.Dialogue = append(c.Dialogue, d)
	}
	for _, ex := range cf.Images {
		c.Images = append(c.Images, domain.Exercise{
			Kind:        domain.KindImage,
			Image:       ex.Image,
			Translation: ex.Translation,
			Options:     [][]string{ex.Options},
			Keys:        []string{ex.Answer},
		})
	}
	return c
}

// mapBlank derives the variant tag from the number of answer keys. A shape
// the engine does not recognize still produces an exercise; grading will
// report it ungradable rather than rejecting the lesson.
func mapBlank(ex blankExercise) domain.Exercise {
	e := domain.Exercise{
		Sentence:    domain.RichText(ex.Sentence),
		Translation: ex.Translation,
		Keys:        ex.Answers,
	}
	e.Options = append(e.Options, ex.Options1)
	if len(ex.Options2) > 0 {
		e.Options = append(e.Options, ex.Options2)
	}
	if len(ex.Options3) > 0 {
		e.Options = append(e.Options, ex.Options3)
	}
	switch len(ex.Answers) {
	case 2:
		e.Kind = domain.KindDoubleBlank
	case 3:
		e.Kind = domain.KindTripleBlank
	default:
		e.Kind = domain.KindSingleBlank
	}
	return e
}
