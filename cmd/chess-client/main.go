// Package main implements an interactive client for the chess server API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"luchess/internal/client/commands"
	"luchess/internal/client/display"
	"luchess/internal/client/session"

	"github.com/chzyer/readline"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Chess server base URL")
	flag.Parse()

	s := session.New(*apiURL)

	// Initialize readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     ".chess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sChess Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		// Build enhanced prompt
		prompt := buildPrompt(s)
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		// Check for verbose flag
		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		registry.Execute(line)
	}
}

func buildPrompt(s *session.Session) string {
	parts := []string{}

	// Base
	base := "chess"

	// Add user/game context
	if s.Username != "" {
		parts = append(parts, fmt.Sprintf("%s%s%s", display.Magenta, s.Username, display.Reset))
	}
	if s.Username != "" && s.CurrentGame != "" {
		parts = append(parts, fmt.Sprintf("%s - %s", display.Yellow, display.Reset))
	}
	if s.CurrentGame != "" {
		id := s.CurrentGame
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("%s%s%s", display.White, id, display.Reset))
	}

	// Add player color if in game
	if s.CurrentGameState != nil && s.PlayerColor != "" {
		colorText := ""
		if s.PlayerColor == "w" {
			colorText = display.Blue + "White" + display.Reset
		} else {
			colorText = display.Red + "Black" + display.Reset
		}
		parts = append(parts, colorText)
	}

	// Build first part
	promptStr := base
	if len(parts) > 0 {
		promptStr += display.Yellow + " [" + display.Reset + strings.Join(parts, "") + display.Yellow + "]"
	}

	// Add game state if available
	if g := s.CurrentGameState; g != nil {
		promptStr += " - Turn:" + display.ColorForTurn(g.Turn)
		switch {
		case g.Pending != nil:
			promptStr += display.Magenta + " (promote)" + display.Reset
		case g.State != "active":
			promptStr += " (" + display.ColorForState(g.State) + ")"
		case g.Check:
			promptStr += display.Yellow + " (check)" + display.Reset
		}
	}

	return display.Prompt(promptStr)
}
