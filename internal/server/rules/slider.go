package rules

import (
	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// ValidateBishop accepts unobstructed diagonal moves
func ValidateBishop(from, to core.Square, b *board.Board) Result {
	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()
	if df == 0 || abs(df) != abs(dr) {
		return reject("Bishop can only move diagonally")
	}
	if !pathClear(from, to, b) {
		return reject("Bishop cannot jump over pieces")
	}
	return accept()
}

// ValidateRook accepts unobstructed moves along a rank or file
func ValidateRook(from, to core.Square, b *board.Board) Result {
	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()
	if (df == 0) == (dr == 0) {
		return reject("Rook can only move horizontally or vertically")
	}
	if !pathClear(from, to, b) {
		return reject("Rook cannot jump over pieces")
	}
	return accept()
}

// ValidateQueen is a bishop move or a rook move
func ValidateQueen(from, to core.Square, b *board.Board) Result {
	df := abs(to.File() - from.File())
	dr := abs(to.Rank() - from.Rank())
	switch {
	case df == dr && df != 0:
		return ValidateBishop(from, to, b)
	case (df == 0) != (dr == 0):
		return ValidateRook(from, to, b)
	}
	return reject("Invalid queen move")
}

// pathClear reports whether every square strictly between from and to is
// empty. from and to must share a line.
func pathClear(from, to core.Square, b *board.Board) bool {
	stepF := sign(to.File() - from.File())
	stepR := sign(to.Rank() - from.Rank())
	for sq := from.Offset(stepF, stepR); sq != to && sq.Valid(); sq = sq.Offset(stepF, stepR) {
		if !b.Get(sq).IsEmpty() {
			return false
		}
	}
	return true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
