package game

import (
	"luchess/internal/server/board"
	"luchess/internal/server/core"
	"luchess/internal/server/rules"
)

// State is everything a session reads and writes as one unit
type State struct {
	Board            board.Board
	CurrentColor     core.Color
	History          []rules.Move
	CurrentMoveIndex int // -1 is the initial position
	GameState        core.State
	Pending          *PendingPromotion
}

// PendingPromotion is a validated pawn move waiting for its replacement piece
type PendingPromotion struct {
	From    core.Square
	To      core.Square
	Piece   core.Piece
	Capture bool
}

// Clone deep-copies history and the pending promotion
func (s State) Clone() State {
	out := s
	if s.History != nil {
		out.History = make([]rules.Move, len(s.History))
		copy(out.History, s.History)
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}

// activeHistory is history up to and including the cursor
func (s State) activeHistory() []rules.Move {
	return s.History[:s.CurrentMoveIndex+1]
}

// Container holds session state between calls
type Container interface {
	Get() State
	Set(State)
}

type memoryContainer struct {
	state State
}

func (c *memoryContainer) Get() State {
	return c.state
}

func (c *memoryContainer) Set(s State) {
	c.state = s
}
