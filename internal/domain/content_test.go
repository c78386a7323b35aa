package domain_test

import (
	"testing"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

func lessonContentFixture() *domain.LessonContent {
	return &domain.LessonContent{
		Blocks: []domain.ExerciseBlock{
			{Title: "Greetings", Exercises: []domain.Exercise{
				{Kind: domain.KindSingleBlank, Keys: []string{"bin"}},
			}},
			{Title: "Articles", Exercises: []domain.Exercise{
				{Kind: domain.KindDoubleBlank, Keys: []string{"der", "die"}},
			}},
		},
		Scramble: []domain.Exercise{
			{Kind: domain.KindScramble, Words: []string{"Ich", "bin"}, Correct: "Ich bin"},
		},
		Dialogue: []domain.Exercise{
			{Kind: domain.KindDialogue},
		},
	}
}

func TestLessonContent_Set(t *testing.T) {
	lc := lessonContentFixture()

	set, ok := lc.Set(domain.KindScramble, 0)
	if !ok {
		t.Fatal("expected scramble set")
	}
	if set.Kind != domain.KindScramble || len(set.Exercises) != 1 {
		t.Errorf("unexpected scramble set: %+v", set)
	}

	// Image practice exists as a view even with no exercises authored
	set, ok = lc.Set(domain.KindImage, 0)
	if !ok {
		t.Fatal("expected image set")
	}
	if len(set.Exercises) != 0 {
		t.Errorf("expected empty image set, got %d exercises", len(set.Exercises))
	}

	if _, ok := lc.Set(domain.KindSingleBlank, 5); ok {
		t.Error("expected no set for out-of-range block")
	}
	if _, ok := lc.Set(domain.Kind("bogus"), 0); ok {
		t.Error("expected no set for unknown kind")
	}
}

func TestLessonContent_Block(t *testing.T) {
	lc := lessonContentFixture()

	set, ok := lc.Block(1)
	if !ok {
		t.Fatal("expected block 1")
	}
	if set.Title != "Articles" {
		t.Errorf("expected title Articles, got %q", set.Title)
	}
	// Variant tag comes from the block's own exercises
	if set.Kind != domain.KindDoubleBlank {
		t.Errorf("expected kind %s, got %s", domain.KindDoubleBlank, set.Kind)
	}

	if _, ok := lc.Block(-1); ok {
		t.Error("expected no set for negative block")
	}
	if _, ok := lc.Block(2); ok {
		t.Error("expected no set for out-of-range block")
	}
}
