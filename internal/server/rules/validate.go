package rules

import (
	"fmt"

	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// ValidateTurnAndCapture runs the admission checks done before the
// dispatcher: the mover must own the turn and must not land on its own piece.
func ValidateTurnAndCapture(piece, toPiece core.Piece, currentColor core.Color) Result {
	if piece.Color != currentColor {
		return reject(fmt.Sprintf("It's %s's turn. You can't move a %s piece.", currentColor.Name(), piece.Color.Name()))
	}
	if !toPiece.IsEmpty() && toPiece.Color == piece.Color {
		return reject(fmt.Sprintf("%s piece can't capture another %s piece", currentColor.Title(), currentColor.Name()))
	}
	return accept()
}

// WouldLeaveKingInCheck plays from->to on a copy of the board with no
// side effects and asks whether the mover's king is attacked afterwards.
// Pins and discovered checks fall out of this; there is no separate
// pin detection.
func WouldLeaveKingInCheck(piece core.Piece, from, to core.Square, b *board.Board, currentColor core.Color, history []Move) Result {
	kingSquare := to
	if piece.Kind != core.King {
		sq, found := b.FindKing(currentColor)
		if !found {
			return reject("King not found")
		}
		kingSquare = sq
	}

	simulated := *b
	simulated.Clear(from)
	simulated.Set(to, piece)

	if IsSquareUnderAttack(&simulated, currentColor, kingSquare, history) {
		return reject("Move would leave king in check")
	}
	return accept()
}

// Validate is the move dispatcher: king safety first, then the piece
// geometry. Castling attempts skip the safety step because the corridor
// check already covers the king's start, transit and destination.
func Validate(piece, toPiece core.Piece, from, to core.Square, history []Move, b *board.Board, currentColor core.Color) Result {
	if !IsCastlingAttempt(piece, from, to) {
		if res := WouldLeaveKingInCheck(piece, from, to, b, currentColor, history); !res.Valid {
			return res
		}
	}

	switch piece.Kind {
	case core.Pawn:
		return ValidatePawn(piece, from, to, toPiece, history, b)
	case core.Knight:
		return ValidateKnight(from, to)
	case core.Bishop:
		return ValidateBishop(from, to, b)
	case core.Rook:
		return ValidateRook(from, to, b)
	case core.Queen:
		return ValidateQueen(from, to, b)
	case core.King:
		return ValidateKing(piece, from, to, b, history)
	}
	return reject("Unknown piece type")
}
