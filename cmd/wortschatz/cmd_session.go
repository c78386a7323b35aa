package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type sessionState struct {
	ID       string         `json:"id"`
	Screen   string         `json:"screen"`
	LevelID  string         `json:"level_id"`
	LessonID string         `json:"lesson_id"`
	Block    int            `json:"block"`
	Loading  bool           `json:"loading"`
	Practice *practiceState `json:"practice"`
}

type practiceState struct {
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Complete  bool            `json:"complete"`
	Checked   bool            `json:"checked"`
	Score     int             `json:"score"`
	Results   []gradingResult `json:"results"`
	Exercises []exerciseState `json:"exercises"`
}

type gradingResult struct {
	Correct  bool `json:"correct"`
	Gradable bool `json:"gradable"`
}

type exerciseState struct {
	Kind             string      `json:"kind"`
	Sentence         string      `json:"sentence"`
	Translation      string      `json:"translation"`
	HintShown        bool        `json:"hint_shown"`
	TranslationShown bool        `json:"translation_shown"`
	Slots            []slotState `json:"slots"`
	Bank             []string    `json:"bank"`
	Built            []string    `json:"built"`
	Scenario         string      `json:"scenario"`
	Turns            []turnState `json:"turns"`
	Image            string      `json:"image"`
}

type slotState struct {
	Options []string `json:"options"`
	States  []string `json:"states"`
	Value   string   `json:"value"`
	Picked  bool     `json:"picked"`
}

type turnState struct {
	Role string `json:"role"`
	Text string `json:"text"`
	Slot *int   `json:"slot"`
}

// cmdSession manages sessions
func cmdSession(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Session commands:

  wortschatz session new      Start a new session
  wortschatz session show     Show the current session state
  wortschatz session delete   Discard the current session`)
		return nil
	}

	switch args[0] {
	case "new":
		var sess sessionState
		if err := apiPost("/v1/sessions", map[string]string{}, &sess); err != nil {
			return err
		}
		if err := saveSessionID(sess.ID); err != nil {
			return err
		}
		fmt.Printf("Session %s started\n", sess.ID)
		renderSession(&sess)
		return nil

	case "show":
		id, err := currentSessionID()
		if err != nil {
			return err
		}
		var sess sessionState
		if err := apiGet("/v1/sessions/"+id, &sess); err != nil {
			return err
		}
		renderSession(&sess)
		return nil

	case "delete":
		id, err := currentSessionID()
		if err != nil {
			return err
		}
		if err := apiCall(http.MethodDelete, "/v1/sessions/"+id, nil, nil); err != nil {
			return err
		}
		if err := clearSessionID(); err != nil {
			return err
		}
		fmt.Println("Session deleted")
		return nil

	default:
		return fmt.Errorf("unknown session command: %s", args[0])
	}
}

// cmdGo navigates the current session
func cmdGo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wortschatz go level|lesson|practice|back ...")
	}

	id, err := currentSessionID()
	if err != nil {
		return err
	}

	body := map[string]interface{}{}
	switch args[0] {
	case "level":
		if len(args) < 2 {
			return fmt.Errorf("level id required")
		}
		body["action"] = "level"
		body["level_id"] = args[1]

	case "lesson":
		if len(args) < 2 {
			return fmt.Errorf("lesson id required")
		}
		body["action"] = "lesson"
		body["lesson_id"] = args[1]

	case "practice":
		if len(args) < 2 {
			return fmt.Errorf("practice view required (block, scramble, dialogue, images, summary)")
		}
		body["action"] = "practice"
		switch args[1] {
		case "block":
			body["target"] = "practice_block"
			block := 0
			if len(args) >= 3 {
				block, err = strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("parse block index: %w", err)
				}
			}
			body["block"] = block
		case "scramble", "dialogue", "images", "summary":
			body["target"] = args[1]
		default:
			return fmt.Errorf("unknown practice view: %s", args[1])
		}

	case "back":
		if len(args) < 2 {
			return fmt.Errorf("target screen required (levels, lessons, lesson_menu)")
		}
		body["action"] = "back"
		body["target"] = args[1]

	default:
		return fmt.Errorf("unknown go command: %s", args[0])
	}

	var sess sessionState
	if err := apiPost("/v1/sessions/"+id+"/select", body, &sess); err != nil {
		return err
	}

	// The content fetch may still be in flight; give it a beat and re-read
	// so the first render usually shows the loaded view.
	if sess.Loading {
		time.Sleep(150 * time.Millisecond)
		_ = apiGet("/v1/sessions/"+id, &sess)
	}
	renderSession(&sess)
	return nil
}

// cmdAnswer picks an option for one answer slot
func cmdAnswer(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: wortschatz answer <exercise> <slot> <value>")
	}
	exercise, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse exercise index: %w", err)
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parse slot index: %w", err)
	}

	id, err := currentSessionID()
	if err != nil {
		return err
	}

	var sess sessionState
	if err := apiPost("/v1/sessions/"+id+"/choice", map[string]interface{}{
		"exercise": exercise,
		"slot":     slot,
		"value":    args[2],
	}, &sess); err != nil {
		return err
	}
	renderSession(&sess)
	return nil
}

// cmdWord places or removes a scramble word
func cmdWord(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: wortschatz word place|remove <exercise> <index>")
	}
	action := args[0]
	if action != "place" && action != "remove" {
		return fmt.Errorf("unknown word action: %s", action)
	}
	exercise, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parse exercise index: %w", err)
	}
	index, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("parse word index: %w", err)
	}

	id, err := currentSessionID()
	if err != nil {
		return err
	}

	var sess sessionState
	if err := apiPost("/v1/sessions/"+id+"/words", map[string]interface{}{
		"action":   action,
		"exercise": exercise,
		"index":    index,
	}, &sess); err != nil {
		return err
	}
	renderSession(&sess)
	return nil
}

// cmdToggle flips a per-exercise toggle
func cmdToggle(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: wortschatz toggle <exercise> hint|translation")
	}
	exercise, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse exercise index: %w", err)
	}

	id, err := currentSessionID()
	if err != nil {
		return err
	}

	var sess sessionState
	if err := apiPost("/v1/sessions/"+id+"/toggles", map[string]interface{}{
		"exercise": exercise,
		"target":   args[1],
	}, &sess); err != nil {
		return err
	}
	renderSession(&sess)
	return nil
}

// cmdCheck grades the active practice set
func cmdCheck() error {
	id, err := currentSessionID()
	if err != nil {
		return err
	}

	var result struct {
		Score   int             `json:"score"`
		Total   int             `json:"total"`
		Results []gradingResult `json:"results"`
	}
	if err := apiPost("/v1/sessions/"+id+"/check", map[string]string{}, &result); err != nil {
		return err
	}

	fmt.Printf("Score: %d/%d\n", result.Score, result.Total)
	for i, r := range result.Results {
		switch {
		case !r.Gradable:
			fmt.Printf("  %d: — (not gradable)\n", i)
		case r.Correct:
			fmt.Printf("  %d: ✓\n", i)
		default:
			fmt.Printf("  %d: ✗\n", i)
		}
	}
	return nil
}

// cmdSpeak pronounces an exercise sentence
func cmdSpeak(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wortschatz speak <exercise>")
	}
	exercise, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse exercise index: %w", err)
	}

	id, err := currentSessionID()
	if err != nil {
		return err
	}
	return apiPost("/v1/sessions/"+id+"/speak", map[string]interface{}{
		"exercise": exercise,
	}, nil)
}

// cmdAttempts shows the recent graded attempts
func cmdAttempts() error {
	var result struct {
		Attempts []struct {
			LessonID  string    `json:"lesson_id"`
			Kind      string    `json:"kind"`
			Block     int       `json:"block"`
			Score     int       `json:"score"`
			Total     int       `json:"total"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"attempts"`
	}
	if err := apiGet("/v1/attempts", &result); err != nil {
		return err
	}

	if len(result.Attempts) == 0 {
		fmt.Println("No attempts recorded yet")
		return nil
	}

	fmt.Println("Recent attempts:")
	for _, a := range result.Attempts {
		fmt.Printf("  %s  %-24s %-20s %d/%d\n",
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.LessonID, a.Kind, a.Score, a.Total)
	}
	return nil
}

// renderSession prints the session state for the terminal
func renderSession(sess *sessionState) {
	fmt.Printf("\nScreen: %s", sess.Screen)
	if sess.LevelID != "" {
		fmt.Printf("  level=%s", sess.LevelID)
	}
	if sess.LessonID != "" {
		fmt.Printf("  lesson=%s", sess.LessonID)
	}
	if sess.Loading {
		fmt.Print("  (loading...)")
	}
	fmt.Println()

	if sess.Practice == nil {
		return
	}
	p := sess.Practice

	fmt.Printf("\n%s [%s]", p.Title, p.Kind)
	if p.Checked {
		fmt.Printf("  score %d/%d", p.Score, len(p.Exercises))
	} else if p.Complete {
		fmt.Print("  (ready to check)")
	}
	fmt.Println()

	for i, ex := range p.Exercises {
		fmt.Printf("\n%d. ", i)
		renderExercise(&ex, resultFor(p, i))
	}
}

func resultFor(p *practiceState, i int) *gradingResult {
	if !p.Checked || i >= len(p.Results) {
		return nil
	}
	return &p.Results[i]
}

func renderExercise(ex *exerciseState, result *gradingResult) {
	if result != nil {
		switch {
		case !result.Gradable:
			fmt.Print("— ")
		case result.Correct:
			fmt.Print("✓ ")
		default:
			fmt.Print("✗ ")
		}
	}

	switch ex.Kind {
	case "sentence_scramble":
		fmt.Println(joinOrDash(ex.Built))
		fmt.Printf("   bank: %s\n", joinOrDash(ex.Bank))
	case "dialogue_simulation":
		fmt.Println(ex.Scenario)
		for _, t := range ex.Turns {
			if t.Slot != nil {
				slot := ex.Slots[*t.Slot]
				line := "___"
				if slot.Picked {
					line = slot.Value
				}
				fmt.Printf("   you:   %s\n", line)
				continue
			}
			fmt.Printf("   %s: %s\n", t.Role, t.Text)
		}
	default:
		if ex.Image != "" {
			fmt.Printf("[%s] ", ex.Image)
		}
		fmt.Println(ex.Sentence)
		for s, slot := range ex.Slots {
			fmt.Printf("   slot %d:", s)
			for o, opt := range slot.Options {
				fmt.Printf(" %s%s", opt, stateMarker(slot.States, o))
			}
			fmt.Println()
		}
	}

	if ex.TranslationShown && ex.Translation != "" {
		fmt.Printf("   → %s\n", ex.Translation)
	}
}

func stateMarker(states []string, i int) string {
	if i >= len(states) {
		return ""
	}
	switch states[i] {
	case "selected":
		return "*"
	case "correct":
		return "✓"
	case "incorrect":
		return "✗"
	default:
		return ""
	}
}

func joinOrDash(words []string) string {
	if len(words) == 0 {
		return "—"
	}
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
