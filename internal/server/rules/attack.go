package rules

import (
	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// IsSquareUnderAttack reports whether any piece of currentColor's opponent
// could reach target. Kings are not considered attackers. Pawns are tested
// with a synthetic target so their diagonals count even on empty squares,
// and en passant never applies.
func IsSquareUnderAttack(b *board.Board, currentColor core.Color, target core.Square, history []Move) bool {
	opponent := currentColor.Opposite()
	synthetic := core.NewPiece(currentColor, core.Pawn)

	for i, p := range b {
		if p.IsEmpty() || p.Color != opponent {
			continue
		}
		from := core.Square(i)
		if from == target {
			continue
		}

		var res Result
		switch p.Kind {
		case core.Pawn:
			res = ValidatePawn(p, from, target, synthetic, history, b)
		case core.Knight:
			res = ValidateKnight(from, target)
		case core.Bishop:
			res = ValidateBishop(from, target, b)
		case core.Rook:
			res = ValidateRook(from, target, b)
		case core.Queen:
			res = ValidateQueen(from, target, b)
		default:
			continue
		}

		if res.Valid {
			return true
		}
	}
	return false
}
