package rules

import (
	"fmt"
	"strings"

	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// FEN renders the position as a FEN record. Castling rights, the en passant
// target and the half-move clock are derived from history.
func FEN(b *board.Board, color core.Color, history []Move) string {
	return fmt.Sprintf("%s %s %s %s %d %d",
		b.Placement(),
		color.String(),
		castlingRights(b, history),
		enPassantTarget(history),
		halfMoveClock(history),
		1+len(history)/2,
	)
}

func castlingRights(b *board.Board, history []Move) string {
	var sb strings.Builder
	for _, c := range []core.Color{core.ColorWhite, core.ColorBlack} {
		for _, side := range []castlingSide{kingSide, queenSide} {
			if canStillCastle(b, c, side, history) {
				letter := byte('k')
				if side.rookFrom == queenSide.rookFrom {
					letter = 'q'
				}
				if c == core.ColorWhite {
					letter -= 'a' - 'A'
				}
				sb.WriteByte(letter)
			}
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func canStillCastle(b *board.Board, c core.Color, side castlingSide, history []Move) bool {
	rank := homeRank(c)
	king := core.NewPiece(c, core.King)
	rook := core.NewPiece(c, core.Rook)
	rookFrom := core.NewSquare(side.rookFrom, rank)
	if b.Get(core.NewSquare(4, rank)) != king || b.Get(rookFrom) != rook {
		return false
	}
	for _, m := range history {
		if m.Piece == king || (m.Piece == rook && m.From == rookFrom) {
			return false
		}
	}
	return true
}

func enPassantTarget(history []Move) string {
	if len(history) == 0 {
		return "-"
	}
	last := history[len(history)-1]
	if last.Piece.Kind != core.Pawn || abs(last.To.Rank()-last.From.Rank()) != 2 {
		return "-"
	}
	return core.NewSquare(last.From.File(), (last.From.Rank()+last.To.Rank())/2).String()
}

func halfMoveClock(history []Move) int {
	n := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Piece.Kind == core.Pawn || history[i].Capture {
			break
		}
		n++
	}
	return n
}
