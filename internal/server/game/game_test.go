package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luchess/internal/server/core"
	"luchess/internal/server/rules"
)

type recorder struct {
	moves      []MoveEvent
	ends       []GameEnd
	promotions []PromotionRequest
}

func (r *recorder) OnMove(e MoveEvent)             { r.moves = append(r.moves, e) }
func (r *recorder) OnGameEnd(e GameEnd)            { r.ends = append(r.ends, e) }
func (r *recorder) OnPromotion(p PromotionRequest) { r.promotions = append(r.promotions, p) }

func sq(s string) core.Square {
	return core.MustSquare(s)
}

func move(t *testing.T, g *Game, from, to string) {
	t.Helper()
	res := g.SetPiece(sq(from), sq(to), g.GetPiece(sq(from)))
	require.True(t, res.Valid, "%s%s: %s", from, to, res.Message)
}

func freeGame(t *testing.T, pieces map[string]string, turn core.Color, opts ...Option) *Game {
	t.Helper()
	g := New(opts...)
	set := make(map[core.Square]core.Piece, len(pieces))
	for s, p := range pieces {
		piece, err := core.ParsePiece(p)
		require.NoError(t, err)
		set[sq(s)] = piece
	}
	g.SetFreeMode(set, turn)
	return g
}

func TestNewGame(t *testing.T) {
	g := New()
	st := g.Snapshot()

	assert.Equal(t, core.ColorWhite, st.CurrentColor)
	assert.Equal(t, -1, st.CurrentMoveIndex)
	assert.Equal(t, core.StateActive, st.GameState)
	assert.Empty(t, st.History)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", g.FEN())
	assert.Len(t, g.LegalMoves(), 20)
	assert.False(t, g.InCheck())
}

func TestSetPieceRejectionsLeaveStateUntouched(t *testing.T) {
	g := New()
	before := g.Snapshot()

	tests := []struct {
		from, to string
		piece    core.Piece
		message  string
	}{
		{"e2", "e2", g.GetPiece(sq("e2")), "Cannot move to the same square"},
		{"e4", "e5", core.NewPiece(core.ColorWhite, core.Pawn), "No piece on the origin square"},
		{"e2", "e4", core.NewPiece(core.ColorWhite, core.Queen), "No piece on the origin square"},
		{"e7", "e5", g.GetPiece(sq("e7")), "It's white's turn. You can't move a black piece."},
		{"e2", "e5", g.GetPiece(sq("e2")), "Invalid pawn move"},
		{"f1", "c4", g.GetPiece(sq("f1")), "Bishop cannot jump over pieces"},
	}
	for _, tt := range tests {
		res := g.SetPiece(sq(tt.from), sq(tt.to), tt.piece)
		assert.False(t, res.Valid)
		assert.Equal(t, tt.message, res.Message)
	}
	assert.Equal(t, before, g.Snapshot())
}

func TestMovesAlternateAndEmit(t *testing.T) {
	rec := &recorder{}
	g := New(WithEvents(rec))

	move(t, g, "e2", "e4")
	move(t, g, "e7", "e5")

	st := g.Snapshot()
	assert.Equal(t, core.ColorWhite, st.CurrentColor)
	assert.Equal(t, 1, st.CurrentMoveIndex)
	require.Len(t, st.History, 2)
	assert.Equal(t, "e7e5", st.History[1].Notation())

	require.Len(t, rec.moves, 2)
	assert.Equal(t, 0, rec.moves[0].Ply)
	assert.Equal(t, core.ColorWhite, rec.moves[0].Color)
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2", rec.moves[1].FEN)
	assert.Empty(t, rec.ends)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	g := New()
	// includes a capture and castling
	for _, m := range [][2]string{
		{"e2", "e4"}, {"d7", "d5"}, {"e4", "d5"}, {"g8", "f6"},
		{"g1", "f3"}, {"f6", "d5"}, {"f1", "c4"}, {"e7", "e6"}, {"e1", "g1"},
	} {
		move(t, g, m[0], m[1])
	}

	var snapshots []State
	for {
		snapshots = append(snapshots, g.Snapshot())
		if g.Snapshot().CurrentMoveIndex < 0 {
			break
		}
		g.Undo()
	}
	assert.Equal(t, New().Snapshot().Board, snapshots[len(snapshots)-1].Board)

	for i := len(snapshots) - 1; i > 0; i-- {
		assert.Equal(t, snapshots[i], g.Snapshot())
		g.Redo()
	}
	assert.Equal(t, snapshots[0], g.Snapshot())
}

func TestUndoRedoIdempotentAtEnds(t *testing.T) {
	g := New()
	start := g.Snapshot()
	g.Undo()
	assert.Equal(t, start, g.Snapshot())

	move(t, g, "e2", "e4")
	end := g.Snapshot()
	g.Redo()
	assert.Equal(t, end, g.Snapshot())
}

func TestNewMoveTruncatesRedoBranch(t *testing.T) {
	g := New()
	move(t, g, "e2", "e4")
	move(t, g, "e7", "e5")
	move(t, g, "g1", "f3")

	g.Undo()
	g.Undo()
	require.Equal(t, 0, g.Snapshot().CurrentMoveIndex)
	require.Len(t, g.Snapshot().History, 3)

	move(t, g, "c7", "c5")
	st := g.Snapshot()
	require.Len(t, st.History, 2)
	assert.Equal(t, "c7c5", st.History[1].Notation())
	assert.Equal(t, 1, st.CurrentMoveIndex)

	g.Redo()
	assert.Equal(t, st, g.Snapshot())
}

func TestUndoRestoresEnPassantCapture(t *testing.T) {
	g := New()
	for _, m := range [][2]string{{"e2", "e4"}, {"a7", "a6"}, {"e4", "e5"}, {"d7", "d5"}, {"e5", "d6"}} {
		move(t, g, m[0], m[1])
	}
	st := g.Snapshot()
	require.NotNil(t, st.History[4].Special)
	assert.Equal(t, rules.EnPassant, st.History[4].Special.Kind)
	assert.True(t, st.History[4].Capture)
	assert.True(t, g.GetPiece(sq("d5")).IsEmpty())

	g.Undo()
	assert.Equal(t, core.NewPiece(core.ColorBlack, core.Pawn), g.GetPiece(sq("d5")))
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Pawn), g.GetPiece(sq("e5")))
	assert.True(t, g.GetPiece(sq("d6")).IsEmpty())
}

func TestPromotionFlow(t *testing.T) {
	rec := &recorder{}
	g := freeGame(t, map[string]string{"a7": "wp", "e1": "wk", "h5": "bk", "b8": "bn"}, core.ColorWhite, WithEvents(rec))
	before := g.Snapshot()

	res := g.SetPiece(sq("a7"), sq("a8"), g.GetPiece(sq("a7")))
	require.True(t, res.Valid)
	require.Len(t, rec.promotions, 1)
	assert.Equal(t, sq("a8"), rec.promotions[0].To)

	st := g.Snapshot()
	require.NotNil(t, st.Pending)
	assert.Equal(t, before.Board, st.Board)
	assert.Equal(t, core.ColorWhite, st.CurrentColor)
	assert.Empty(t, rec.moves)
	assert.Nil(t, g.LegalMoves())

	res = g.SetPiece(sq("e1"), sq("e2"), g.GetPiece(sq("e1")))
	assert.Equal(t, "Promotion pending", res.Message)

	res = g.FinalizePromotion(core.NewPiece(core.ColorWhite, core.King), sq("a7"), sq("a8"))
	assert.Equal(t, "Invalid promotion piece", res.Message)
	res = g.FinalizePromotion(core.NewPiece(core.ColorBlack, core.Queen), sq("a7"), sq("a8"))
	assert.Equal(t, "Invalid promotion piece", res.Message)
	res = g.FinalizePromotion(core.NewPiece(core.ColorWhite, core.Queen), sq("b7"), sq("b8"))
	assert.Equal(t, "No promotion pending for this move", res.Message)
	assert.Equal(t, st, g.Snapshot())

	res = g.FinalizePromotion(core.NewPiece(core.ColorWhite, core.Queen), sq("a7"), sq("a8"))
	require.True(t, res.Valid)

	st = g.Snapshot()
	assert.Nil(t, st.Pending)
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Queen), g.GetPiece(sq("a8")))
	assert.True(t, g.GetPiece(sq("a7")).IsEmpty())
	assert.Equal(t, core.ColorBlack, st.CurrentColor)
	require.Len(t, rec.moves, 1)
	assert.Equal(t, "a7a8q", rec.moves[0].Move.Notation())

	g.Undo()
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Pawn), g.GetPiece(sq("a7")))
	g.Redo()
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Queen), g.GetPiece(sq("a8")))
}

func TestPromotionWithCapture(t *testing.T) {
	g := freeGame(t, map[string]string{"a7": "wp", "e1": "wk", "h5": "bk", "b8": "bn"}, core.ColorWhite)

	require.True(t, g.SetPiece(sq("a7"), sq("b8"), g.GetPiece(sq("a7"))).Valid)
	require.True(t, g.FinalizePromotion(core.NewPiece(core.ColorWhite, core.Knight), sq("a7"), sq("b8")).Valid)

	st := g.Snapshot()
	assert.True(t, st.History[0].Capture)
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Knight), g.GetPiece(sq("b8")))
}

func TestUndoDropsPendingPromotion(t *testing.T) {
	g := freeGame(t, map[string]string{"a7": "wp", "e1": "wk", "h5": "bk"}, core.ColorWhite)
	require.True(t, g.SetPiece(sq("a7"), sq("a8"), g.GetPiece(sq("a7"))).Valid)
	require.NotNil(t, g.Snapshot().Pending)

	g.Undo()
	assert.Nil(t, g.Snapshot().Pending)
	assert.True(t, g.SetPiece(sq("e1"), sq("e2"), g.GetPiece(sq("e1"))).Valid)
}

func TestUndoWithPendingPromotionOnlyCancelsIt(t *testing.T) {
	g := freeGame(t, map[string]string{"a6": "wp", "e1": "wk", "h8": "bk"}, core.ColorWhite)
	move(t, g, "a6", "a7")
	move(t, g, "h8", "g8")
	require.True(t, g.SetPiece(sq("a7"), sq("a8"), g.GetPiece(sq("a7"))).Valid)
	require.NotNil(t, g.Snapshot().Pending)

	g.Undo()
	st := g.Snapshot()
	assert.Nil(t, st.Pending)
	assert.Equal(t, 1, st.CurrentMoveIndex)
	assert.Equal(t, core.ColorWhite, st.CurrentColor)
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Pawn), g.GetPiece(sq("a7")))

	g.Undo()
	assert.Equal(t, 0, g.Snapshot().CurrentMoveIndex)
	assert.Equal(t, core.NewPiece(core.ColorBlack, core.King), g.GetPiece(sq("h8")))
}

func TestRedoDropsPendingPromotion(t *testing.T) {
	g := freeGame(t, map[string]string{"a6": "wp", "e1": "wk", "h8": "bk"}, core.ColorWhite)
	move(t, g, "a6", "a7")
	move(t, g, "h8", "g8")
	require.True(t, g.SetPiece(sq("a7"), sq("a8"), g.GetPiece(sq("a7"))).Valid)

	g.Redo()
	st := g.Snapshot()
	assert.Nil(t, st.Pending)
	assert.Equal(t, 1, st.CurrentMoveIndex)
	assert.Len(t, st.History, 2)
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Pawn), g.GetPiece(sq("a7")))
}

func TestFoolsMate(t *testing.T) {
	rec := &recorder{}
	g := New(WithEvents(rec))
	for _, m := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		move(t, g, m[0], m[1])
	}

	st := g.Snapshot()
	assert.Equal(t, core.StateCheckmate, st.GameState)
	require.Len(t, rec.ends, 1)
	assert.Equal(t, core.StateCheckmate, rec.ends[0].Type)
	assert.Equal(t, "black", rec.ends[0].WinnerName())
	assert.True(t, g.InCheck())
	assert.Nil(t, g.LegalMoves())

	res := g.SetPiece(sq("a2"), sq("a3"), g.GetPiece(sq("a2")))
	assert.Equal(t, "Game is over", res.Message)

	// browsing a finished game does not reopen it
	g.Undo()
	assert.Equal(t, core.StateCheckmate, g.Snapshot().GameState)
	assert.Equal(t, "Game is over", g.SetPiece(sq("d8"), sq("h4"), g.GetPiece(sq("d8"))).Message)
}

func TestStalemateEndsGame(t *testing.T) {
	rec := &recorder{}
	g := freeGame(t, map[string]string{"h8": "bk", "g5": "wq", "a1": "wk"}, core.ColorWhite, WithEvents(rec))

	move(t, g, "g5", "g6")

	assert.Equal(t, core.StateStalemate, g.Snapshot().GameState)
	require.Len(t, rec.ends, 1)
	assert.Equal(t, "Stalemate: black has no legal moves", rec.ends[0].Message)
	assert.Empty(t, rec.ends[0].WinnerName())
}

func TestDrawByInsufficientMaterial(t *testing.T) {
	rec := &recorder{}
	g := freeGame(t, map[string]string{"e1": "wk", "e8": "bk", "d2": "bq"}, core.ColorWhite, WithEvents(rec))

	move(t, g, "e1", "d2")

	assert.Equal(t, core.StateDraw, g.Snapshot().GameState)
	require.Len(t, rec.ends, 1)
	assert.Equal(t, "Draw by insufficient material", rec.ends[0].Message)
}

func TestDrawByRepetition(t *testing.T) {
	g := New()
	for i := 0; i < 2; i++ {
		move(t, g, "g1", "f3")
		move(t, g, "g8", "f6")
		move(t, g, "f3", "g1")
		move(t, g, "f6", "g8")
	}
	assert.Equal(t, core.StateDraw, g.Snapshot().GameState)
}

func TestSetFreeModeIsUndoOrigin(t *testing.T) {
	g := freeGame(t, map[string]string{"e1": "wk", "e8": "bk", "a2": "wp", "h7": "bp"}, core.ColorBlack)
	origin := g.Snapshot()
	assert.Equal(t, "4k3/7p/8/8/8/8/P7/4K3 b - - 0 1", g.FEN())

	move(t, g, "h7", "h5")
	move(t, g, "a2", "a4")
	g.Undo()
	g.Undo()
	st := g.Snapshot()
	assert.Equal(t, origin.Board, st.Board)
	assert.Equal(t, core.ColorBlack, st.CurrentColor)
	assert.Equal(t, -1, st.CurrentMoveIndex)
	assert.Len(t, st.History, 2)
}

type countingContainer struct {
	memoryContainer
	sets int
}

func (c *countingContainer) Set(s State) {
	c.sets++
	c.memoryContainer.Set(s)
}

func TestCustomContainer(t *testing.T) {
	c := &countingContainer{}
	g := New(WithContainer(c))
	move(t, g, "e2", "e4")

	assert.Equal(t, 2, c.sets)
	assert.Equal(t, 0, c.Get().CurrentMoveIndex)
	assert.Equal(t, g.Snapshot(), c.Get())
}

func TestSnapshotIsolated(t *testing.T) {
	g := New()
	move(t, g, "e2", "e4")

	st := g.Snapshot()
	st.History[0].To = sq("e3")
	assert.Equal(t, sq("e4"), g.Snapshot().History[0].To)
}
