package rules

import (
	"log/slog"

	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// homeRank returns the 0-based back rank of a color
func homeRank(c core.Color) int {
	if c == core.ColorWhite {
		return 0
	}
	return 7
}

// IsCastlingAttempt reports whether a king move from its home square to the
// c- or g-file of the same rank should be judged as castling
func IsCastlingAttempt(piece core.Piece, from, to core.Square) bool {
	if piece.Kind != core.King {
		return false
	}
	rank := homeRank(piece.Color)
	if from != core.NewSquare(4, rank) {
		return false
	}
	return to == core.NewSquare(2, rank) || to == core.NewSquare(6, rank)
}

// ValidateKing checks single-step king moves and castling
func ValidateKing(piece core.Piece, from, to core.Square, b *board.Board, history []Move) Result {
	if IsCastlingAttempt(piece, from, to) {
		return validateCastling(piece.Color, to, b, history)
	}

	df := abs(to.File() - from.File())
	dr := abs(to.Rank() - from.Rank())
	if df > 1 || dr > 1 || (df == 0 && dr == 0) {
		return reject("King can only move one square in any direction")
	}

	if IsSquareUnderAttack(b, piece.Color, to, history) {
		return reject("King cannot move to a square that is under attack")
	}
	return accept()
}

type castlingSide struct {
	rookFrom, rookTo int   // files
	empty            []int // files that must be vacant
	safe             []int // files that must not be attacked
}

var (
	kingSide  = castlingSide{rookFrom: 7, rookTo: 5, empty: []int{5, 6}, safe: []int{4, 5, 6}}
	queenSide = castlingSide{rookFrom: 0, rookTo: 3, empty: []int{1, 2, 3}, safe: []int{4, 3, 2}}
)

func validateCastling(color core.Color, to core.Square, b *board.Board, history []Move) Result {
	rank := homeRank(color)
	var side castlingSide
	switch to {
	case core.NewSquare(6, rank):
		side = kingSide
	case core.NewSquare(2, rank):
		side = queenSide
	default:
		return reject("Invalid castling move")
	}

	rookFrom := core.NewSquare(side.rookFrom, rank)
	rook := core.NewPiece(color, core.Rook)
	king := core.NewPiece(color, core.King)

	moved := b.Get(rookFrom) != rook
	for _, m := range history {
		if m.Piece == king || (m.Piece == rook && m.From == rookFrom) {
			moved = true
			break
		}
	}
	if moved {
		return reject("Cannot castle if the king or rook has moved")
	}

	for _, f := range side.empty {
		if !b.Get(core.NewSquare(f, rank)).IsEmpty() {
			return reject("Cannot castle through or into occupied squares")
		}
	}

	for _, f := range side.safe {
		sq := core.NewSquare(f, rank)
		if IsSquareUnderAttack(b, color, sq, history) {
			slog.Debug("castling corridor attacked", "color", color.Name(), "square", sq.String())
			return reject("Cannot castle through or into squares under attack")
		}
	}

	return acceptSpecial(NewCastling(rookFrom, core.NewSquare(side.rookTo, rank)))
}
