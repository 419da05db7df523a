package core

import (
	"encoding/json"
	"fmt"
)

type State int

const (
	StateActive State = iota
	StateCheckmate
	StateStalemate
	StateDraw
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCheckmate:
		return "checkmate"
	case StateStalemate:
		return "stalemate"
	case StateDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// Terminal reports whether the game has ended
func (s State) Terminal() bool {
	return s != StateActive
}

func ParseState(s string) (State, error) {
	switch s {
	case "active":
		return StateActive, nil
	case "checkmate":
		return StateCheckmate, nil
	case "stalemate":
		return StateStalemate, nil
	case "draw":
		return StateDraw, nil
	}
	return StateActive, fmt.Errorf("invalid game state: %q", s)
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseState(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
