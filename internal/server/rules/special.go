package rules

import (
	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// IsPromotion reports whether a pawn move lands on the far rank
func IsPromotion(piece core.Piece, to core.Square) bool {
	if piece.Kind != core.Pawn {
		return false
	}
	return (piece.Color == core.ColorWhite && to.Rank() == 7) ||
		(piece.Color == core.ColorBlack && to.Rank() == 0)
}

// ValidPromotionPiece reports whether p may replace a pawn of color c
func ValidPromotionPiece(p core.Piece, c core.Color) bool {
	if p.Color != c {
		return false
	}
	switch p.Kind {
	case core.Knight, core.Bishop, core.Rook, core.Queen:
		return true
	}
	return false
}

// Apply relocates piece from->to and then resolves the special move, if any
func Apply(b *board.Board, from, to core.Square, piece core.Piece, special *SpecialMove) {
	b.Clear(from)
	b.Set(to, piece)
	if special == nil {
		return
	}

	switch special.Kind {
	case EnPassant:
		b.Clear(special.Captured)
	case Castling:
		rook := b.Get(special.RookFrom)
		if rook.Kind == core.Rook && rook.Color == piece.Color {
			b.Clear(special.RookFrom)
			b.Set(special.RookTo, rook)
		}
	case Promotion:
		b.Set(to, special.PromotedTo)
	}
}

// IsCapture reports whether a validated move takes a piece
func IsCapture(toPiece core.Piece, special *SpecialMove) bool {
	return !toPiece.IsEmpty() || (special != nil && special.Kind == EnPassant)
}
