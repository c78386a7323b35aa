package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7433"
	pidFile    = "wortschatzd.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "levels":
		err = cmdLevels()
	case "lessons":
		err = cmdLessons(os.Args[2:])
	case "lesson":
		err = cmdLesson(os.Args[2:])
	case "session":
		err = cmdSession(os.Args[2:])
	case "go":
		err = cmdGo(os.Args[2:])
	case "answer":
		err = cmdAnswer(os.Args[2:])
	case "word":
		err = cmdWord(os.Args[2:])
	case "toggle":
		err = cmdToggle(os.Args[2:])
	case "check":
		err = cmdCheck()
	case "speak":
		err = cmdSpeak(os.Args[2:])
	case "attempts":
		err = cmdAttempts()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("wortschatz %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Wortschatz - German Practice Exercises

Usage:
  wortschatz <command> [arguments]

Daemon Commands:
  start           Start the wortschatz daemon
  stop            Stop the wortschatz daemon
  status          Show daemon status
  logs            View daemon logs

Catalog Commands:
  levels              List content levels
  lessons <level>     List lessons of a level
  lesson <lesson>     Show a lesson's summary and practice views

Practice Commands:
  session new                  Start a new session
  session show                 Show the current session state
  session delete               Discard the current session
  go level <id>                Enter a level
  go lesson <id>               Enter a lesson
  go practice <view> [block]   Enter a practice view (block N, scramble, dialogue, images, summary)
  go back <screen>             Jump back to an ancestor screen
  answer <exercise> <slot> <value>   Pick an option for a blank or dialogue turn
  word place <exercise> <bank-index>    Place a bank word
  word remove <exercise> <built-index>  Return a built word to the bank
  toggle <exercise> hint|translation    Flip a per-exercise toggle
  check                        Grade the active practice set
  speak <exercise>             Pronounce an exercise sentence
  attempts                     Show recent graded attempts

Other:
  help            Show this help message
  version         Show version information

Examples:
  wortschatz start               # Start daemon
  wortschatz levels              # List levels
  wortschatz session new         # Start practicing
  wortschatz go level a1         # Enter level A1
  wortschatz answer 0 0 bin      # Answer the first blank of exercise 0`)
}
