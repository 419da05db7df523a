package rules

import (
	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

type DrawReason int

const (
	NoDraw DrawReason = iota
	InsufficientMaterial
	ThreefoldRepetition
	FiftyMoveRule
)

func (r DrawReason) String() string {
	switch r {
	case InsufficientMaterial:
		return "insufficient material"
	case ThreefoldRepetition:
		return "threefold repetition"
	case FiftyMoveRule:
		return "fifty-move rule"
	default:
		return "none"
	}
}

// HasInsufficientMaterial is true when only two pieces remain on the board
func HasInsufficientMaterial(b *board.Board) bool {
	return b.Count() == 2
}

// IsThreefoldRepetition walks back from the current board through at most
// MaxMovesToCheck history entries, undoing each one by moving the piece from
// its destination to its origin, and looks for any position seen
// ThreefoldRepetitionCount times.
func IsThreefoldRepetition(b *board.Board, history []Move) bool {
	current := *b
	seen := map[string]int{current.Key(): 1}

	start := len(history) - MaxMovesToCheck
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		m := history[i]
		current.Clear(m.To)
		current.Set(m.From, m.Piece)

		key := current.Key()
		seen[key]++
		if seen[key] >= ThreefoldRepetitionCount {
			return true
		}
	}
	return false
}

// IsFiftyMoveRule is true once the last hundred half-moves contain neither a
// pawn move nor a capture
func IsFiftyMoveRule(history []Move) bool {
	if len(history) < FiftyMoveHalfMoves {
		return false
	}
	for _, m := range history[len(history)-FiftyMoveHalfMoves:] {
		if m.Piece.Kind == core.Pawn || m.Capture {
			return false
		}
	}
	return true
}

// CheckDraw returns the first draw condition that holds, or NoDraw
func CheckDraw(b *board.Board, history []Move) DrawReason {
	switch {
	case HasInsufficientMaterial(b):
		return InsufficientMaterial
	case IsThreefoldRepetition(b, history):
		return ThreefoldRepetition
	case IsFiftyMoveRule(history):
		return FiftyMoveRule
	}
	return NoDraw
}

// IsDraw reports whether any draw condition holds
func IsDraw(b *board.Board, history []Move) bool {
	return CheckDraw(b, history) != NoDraw
}
