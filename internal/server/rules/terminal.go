package rules

import (
	"log/slog"

	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// GenerateSinglePieceMoves lists every legal move of the piece on from. The
// piece's own color is taken as the side to move.
func GenerateSinglePieceMoves(b *board.Board, from core.Square, piece core.Piece, history []Move) []Move {
	var moves []Move
	for i := range b {
		to := core.Square(i)
		if to == from {
			continue
		}
		toPiece := b.Get(to)
		if !ValidateTurnAndCapture(piece, toPiece, piece.Color).Valid {
			continue
		}
		res := Validate(piece, toPiece, from, to, history, b, piece.Color)
		if !res.Valid {
			continue
		}
		moves = append(moves, Move{
			From:    from,
			To:      to,
			Piece:   piece,
			Capture: IsCapture(toPiece, res.Special),
			Special: res.Special,
		})
	}
	return moves
}

// LegalMoves lists every legal move for color. Promotions appear once, with
// no promotion piece attached.
func LegalMoves(b *board.Board, color core.Color, history []Move) []Move {
	var moves []Move
	for i, p := range b {
		if p.IsEmpty() || p.Color != color {
			continue
		}
		moves = append(moves, GenerateSinglePieceMoves(b, core.Square(i), p, history)...)
	}
	return moves
}

// IsCheck reports whether color's king is currently attacked
func IsCheck(b *board.Board, color core.Color, history []Move) bool {
	kingSquare, found := b.FindKing(color)
	if !found {
		return false
	}
	return IsSquareUnderAttack(b, color, kingSquare, history)
}

// IsCheckmate reports whether color is in check with no move that escapes it
func IsCheckmate(b *board.Board, color core.Color, history []Move) bool {
	kingSquare, found := b.FindKing(color)
	if !found {
		return false
	}
	if !IsSquareUnderAttack(b, color, kingSquare, history) {
		return false
	}

	for i, p := range b {
		if p.IsEmpty() || p.Color != color {
			continue
		}
		from := core.Square(i)
		for _, m := range GenerateSinglePieceMoves(b, from, p, history) {
			simulated := *b
			simulated.Clear(from)
			simulated.Set(m.To, p)

			target := kingSquare
			if p.Kind == core.King {
				target = m.To
			}
			if !IsSquareUnderAttack(&simulated, color, target, history) {
				slog.Debug("check escape found", "color", color.Name(), "move", m.Notation())
				return false
			}
		}
	}
	return true
}

// IsStalemate reports whether color is not in check and has no legal move
func IsStalemate(b *board.Board, color core.Color, history []Move) bool {
	kingSquare, found := b.FindKing(color)
	if !found {
		return false
	}
	if IsSquareUnderAttack(b, color, kingSquare, history) {
		return false
	}

	for i, p := range b {
		if p.IsEmpty() || p.Color != color {
			continue
		}
		if len(GenerateSinglePieceMoves(b, core.Square(i), p, history)) > 0 {
			return false
		}
	}
	return true
}
