package main

import (
	"fmt"
)

type levelInfo struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Lessons     []lessonInfo `json:"lessons"`
}

type lessonInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Loaded      bool   `json:"loaded"`
}

// cmdLevels lists the content levels
func cmdLevels() error {
	var result struct {
		Levels []levelInfo `json:"levels"`
	}
	if err := apiGet("/v1/levels", &result); err != nil {
		return err
	}

	fmt.Println("Levels:")
	for _, level := range result.Levels {
		fmt.Printf("  %s %s (%s)\n", level.Icon, level.Name, level.ID)
		if level.Description != "" {
			fmt.Printf("    %s\n", level.Description)
		}
	}
	fmt.Println("\nUse 'wortschatz lessons <level>' to list a level's lessons")
	return nil
}

// cmdLessons lists the lessons of one level
func cmdLessons(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("level id required (e.g., a1)")
	}

	var level levelInfo
	if err := apiGet("/v1/levels/"+args[0], &level); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", level.Icon, level.Name)
	for _, lesson := range level.Lessons {
		marker := " "
		if lesson.Loaded {
			marker = "●"
		}
		fmt.Printf("  %s %s %s (%s)\n", marker, lesson.Icon, lesson.Name, lesson.ID)
		if lesson.Description != "" {
			fmt.Printf("      %s\n", lesson.Description)
		}
	}
	return nil
}

// cmdLesson shows one lesson's summary and available practice views
func cmdLesson(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("lesson id required (e.g., a1.1)")
	}

	var result struct {
		Lesson  lessonInfo `json:"lesson"`
		Summary *struct {
			Vocabulary []struct {
				German  string `json:"german"`
				English string `json:"english"`
			} `json:"vocabulary"`
			Phrases []struct {
				German  string `json:"german"`
				English string `json:"english"`
			} `json:"phrases"`
			GrammarTip string `json:"grammar_tip"`
		} `json:"summary"`
		Blocks []struct {
			Index     int    `json:"index"`
			Title     string `json:"title"`
			Exercises int    `json:"exercises"`
		} `json:"blocks"`
		Scramble int `json:"scramble"`
		Dialogue int `json:"dialogue"`
		Images   int `json:"images"`
	}
	if err := apiGet("/v1/lessons/"+args[0], &result); err != nil {
		return err
	}

	fmt.Printf("%s %s (%s)\n", result.Lesson.Icon, result.Lesson.Name, result.Lesson.ID)
	if result.Lesson.Description != "" {
		fmt.Printf("  %s\n", result.Lesson.Description)
	}

	if result.Summary == nil {
		fmt.Println("\nContent not loaded yet. Enter the lesson in a session to load it.")
		return nil
	}

	if len(result.Summary.Vocabulary) > 0 {
		fmt.Println("\nVocabulary:")
		for _, e := range result.Summary.Vocabulary {
			fmt.Printf("  %-24s %s\n", e.German, e.English)
		}
	}
	if len(result.Summary.Phrases) > 0 {
		fmt.Println("\nPhrases:")
		for _, e := range result.Summary.Phrases {
			fmt.Printf("  %-24s %s\n", e.German, e.English)
		}
	}
	if result.Summary.GrammarTip != "" {
		fmt.Printf("\nGrammar tip: %s\n", result.Summary.GrammarTip)
	}

	fmt.Println("\nPractice views:")
	for _, b := range result.Blocks {
		fmt.Printf("  block %d: %s (%d exercises)\n", b.Index, b.Title, b.Exercises)
	}
	if result.Scramble > 0 {
		fmt.Printf("  scramble: %d exercises\n", result.Scramble)
	}
	if result.Dialogue > 0 {
		fmt.Printf("  dialogue: %d exercises\n", result.Dialogue)
	}
	if result.Images > 0 {
		fmt.Printf("  images: %d exercises\n", result.Images)
	}
	return nil
}
