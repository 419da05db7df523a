package rules

import (
	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// ValidatePawn checks pawn geometry. A set toPiece or any file change routes
// to the capture rules; everything else is a forward advance.
func ValidatePawn(piece core.Piece, from, to core.Square, toPiece core.Piece, history []Move, b *board.Board) Result {
	isWhite := piece.Color == core.ColorWhite
	if !toPiece.IsEmpty() || to.File() != from.File() {
		return validatePawnCapture(from, to, toPiece, isWhite, history)
	}
	return validatePawnAdvance(from, to, isWhite, b)
}

func validatePawnAdvance(from, to core.Square, isWhite bool, b *board.Board) Result {
	rankDiff := to.Rank() - from.Rank()
	dir := 1
	startRank := 1
	if !isWhite {
		rankDiff = -rankDiff
		dir = -1
		startRank = 6
	}

	switch rankDiff {
	case 1:
		if !b.Get(to).IsEmpty() {
			return reject("Path is blocked")
		}
		return accept()
	case 2:
		if from.Rank() != startRank {
			return reject("Invalid pawn move")
		}
		if !b.Get(from.Offset(0, dir)).IsEmpty() || !b.Get(to).IsEmpty() {
			return reject("Path is blocked")
		}
		return accept()
	}
	return reject("Invalid pawn move")
}

func validatePawnCapture(from, to core.Square, toPiece core.Piece, isWhite bool, history []Move) Result {
	if abs(to.File()-from.File()) != 1 {
		return reject("Invalid capture movement")
	}

	rankDiff := to.Rank() - from.Rank()
	if (isWhite && rankDiff != 1) || (!isWhite && rankDiff != -1) {
		return reject("Wrong direction for capture")
	}

	if !toPiece.IsEmpty() {
		return accept()
	}

	if len(history) == 0 {
		return reject("No piece to capture")
	}
	last := history[len(history)-1]
	doubleStep := last.Piece.Kind == core.Pawn && abs(last.To.Rank()-last.From.Rank()) == 2
	adjacentFile := abs(last.To.File()-from.File()) == 1
	sameRank := last.To.Rank() == from.Rank()
	if !doubleStep || !adjacentFile || !sameRank {
		return reject("No piece to capture")
	}

	// Ranks 6 and 3, 0-based
	expectedRank := 5
	if !isWhite {
		expectedRank = 2
	}
	if to.Rank() != expectedRank {
		return reject("Invalid en passant capture square")
	}
	if to.File() != last.To.File() {
		return reject("Invalid en passant capture direction")
	}

	return acceptSpecial(NewEnPassant(last.To))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
