package rules

import (
	"sort"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luchess/internal/server/board"
	"luchess/internal/server/core"
)

// play validates and applies a sequence of coordinate moves from the start
// position, returning the board, history and side to move
func play(t *testing.T, moves ...string) (*board.Board, []Move, core.Color) {
	t.Helper()
	b := board.Start()
	color := core.ColorWhite
	var history []Move
	for _, n := range moves {
		from, to := sq(n[:2]), sq(n[2:4])
		piece := b.Get(from)
		toPiece := b.Get(to)
		res := validate(&b, n[:2], n[2:4], color, history)
		require.True(t, res.Valid, "%s: %s", n, res.Message)
		Apply(&b, from, to, piece, res.Special)
		history = append(history, Move{From: from, To: to, Piece: piece, Capture: IsCapture(toPiece, res.Special), Special: res.Special})
		color = color.Opposite()
	}
	return &b, history, color
}

func TestFEN(t *testing.T) {
	b, history, color := play(t)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", FEN(b, color, history))

	b, history, color = play(t, "e2e4")
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", FEN(b, color, history))

	b, history, color = play(t, "e2e4", "e7e5", "g1f3", "b8c6")
	assert.Equal(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3", FEN(b, color, history))

	// king walked out and back: no white or black castling rights remain
	b, history, color = play(t, "e2e4", "e7e5", "e1e2", "e8e7", "e2e1", "e7e8")
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w - - 4 4", FEN(b, color, history))

	b, history, color = play(t, "g2g3", "a7a6", "f1g2", "a6a5", "g1f3", "a5a4", "e1g1")
	assert.Equal(t, "rnbqkbnr/1ppppppp/8/8/p7/5NP1/PPPPPPBP/RNBQ1RK1 b kq - 1 4", FEN(b, color, history))
}

func TestLegalMovesMatchDragontooth(t *testing.T) {
	games := [][]string{
		{},
		{"e2e4"},
		{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5"},
		{"e2e4", "a7a6", "e4e5", "d7d5"},
		{"d2d4", "d7d5", "c2c4", "e7e6", "b1c3", "g8f6", "c1g5", "f8e7"},
		{"e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6"},
		{"e2e4", "d7d5", "e4d5", "d8d5", "b1c3", "d5a5", "d2d4", "c7c6"},
	}
	for _, g := range games {
		b, history, color := play(t, g...)
		fen := FEN(b, color, history)

		var ours []string
		for _, m := range LegalMoves(b, color, history) {
			ours = append(ours, m.Notation())
		}
		sort.Strings(ours)

		ref := dragontoothmg.ParseFen(fen)
		var theirs []string
		for _, m := range ref.GenerateLegalMoves() {
			theirs = append(theirs, m.String())
		}
		sort.Strings(theirs)

		assert.Equal(t, theirs, ours, fen)
	}
}
