package game

import (
	"fmt"
	"log/slog"

	"luchess/internal/server/board"
	"luchess/internal/server/core"
	"luchess/internal/server/rules"
)

// Game is one chess session. It is not safe for concurrent use; callers
// serialize access per game.
type Game struct {
	container Container
	events    Events
	logger    *slog.Logger

	// replay origin for undo/redo
	initial      board.Board
	initialColor core.Color
}

type Option func(*Game)

// WithContainer stores session state somewhere other than memory
func WithContainer(c Container) Option {
	return func(g *Game) {
		g.container = c
	}
}

func WithEvents(e Events) Option {
	return func(g *Game) {
		g.events = e
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Game) {
		g.logger = l
	}
}

// New starts a game from the standard position with white to move
func New(opts ...Option) *Game {
	g := &Game{
		events:       NopEvents{},
		logger:       slog.Default(),
		initial:      board.Start(),
		initialColor: core.ColorWhite,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.container == nil {
		g.container = &memoryContainer{}
	}
	g.container.Set(initialState(g.initial, g.initialColor))
	return g
}

func initialState(b board.Board, color core.Color) State {
	return State{
		Board:            b,
		CurrentColor:     color,
		CurrentMoveIndex: -1,
		GameState:        core.StateActive,
	}
}

// SetPiece validates and plays a live move. A pawn reaching the last rank is
// accepted but left pending until FinalizePromotion supplies the piece; the
// board is unchanged until then.
func (g *Game) SetPiece(from, to core.Square, piece core.Piece) rules.Result {
	st := g.container.Get()

	if st.GameState.Terminal() {
		return g.rejected(from, to, "Game is over")
	}
	if st.Pending != nil {
		return g.rejected(from, to, "Promotion pending")
	}
	if from == to {
		return g.rejected(from, to, "Cannot move to the same square")
	}
	if piece.IsEmpty() || st.Board.Get(from) != piece {
		return g.rejected(from, to, "No piece on the origin square")
	}

	history := st.activeHistory()
	toPiece := st.Board.Get(to)
	if res := rules.ValidateTurnAndCapture(piece, toPiece, st.CurrentColor); !res.Valid {
		return g.rejected(from, to, res.Message)
	}
	res := rules.Validate(piece, toPiece, from, to, history, &st.Board, st.CurrentColor)
	if !res.Valid {
		return g.rejected(from, to, res.Message)
	}

	if rules.IsPromotion(piece, to) {
		st.Pending = &PendingPromotion{From: from, To: to, Piece: piece, Capture: !toPiece.IsEmpty()}
		g.container.Set(st)
		g.events.OnPromotion(PromotionRequest{From: from, To: to, Piece: piece, State: st.Clone()})
		return res
	}

	g.commit(st, rules.Move{
		From:    from,
		To:      to,
		Piece:   piece,
		Capture: rules.IsCapture(toPiece, res.Special),
		Special: res.Special,
	})
	return res
}

// FinalizePromotion completes the pending promotion on from->to with the
// chosen replacement piece
func (g *Game) FinalizePromotion(piece core.Piece, from, to core.Square) rules.Result {
	st := g.container.Get()

	if st.GameState.Terminal() {
		return g.rejected(from, to, "Game is over")
	}
	p := st.Pending
	if p == nil || p.From != from || p.To != to {
		return g.rejected(from, to, "No promotion pending for this move")
	}
	if !rules.ValidPromotionPiece(piece, p.Piece.Color) {
		return g.rejected(from, to, "Invalid promotion piece")
	}

	special := rules.NewPromotion(piece)
	st.Pending = nil
	g.commit(st, rules.Move{
		From:    from,
		To:      to,
		Piece:   p.Piece,
		Capture: p.Capture,
		Special: special,
	})
	return rules.Result{Valid: true, Special: special}
}

// commit applies an accepted move, drops any redo branch, switches the turn
// and runs terminal detection for the side now to move
func (g *Game) commit(st State, m rules.Move) {
	active := st.activeHistory()
	history := make([]rules.Move, len(active), len(active)+1)
	copy(history, active)
	st.History = append(history, m)
	st.CurrentMoveIndex = len(st.History) - 1
	rules.Apply(&st.Board, m.From, m.To, m.Piece, m.Special)

	mover := st.CurrentColor
	st.CurrentColor = mover.Opposite()

	end := detectEnd(&st.Board, st.CurrentColor, st.History)
	if end != nil {
		st.GameState = end.Type
	}
	g.container.Set(st)

	g.events.OnMove(MoveEvent{
		Ply:   st.CurrentMoveIndex,
		Move:  m,
		Color: mover,
		FEN:   rules.FEN(&st.Board, st.CurrentColor, st.History),
	})
	if end != nil {
		g.logger.Debug("game ended", "type", end.Type.String(), "winner", end.WinnerName(), "message", end.Message)
		g.events.OnGameEnd(*end)
	}
}

func detectEnd(b *board.Board, toMove core.Color, history []rules.Move) *GameEnd {
	switch {
	case rules.IsCheckmate(b, toMove, history):
		return &GameEnd{Type: core.StateCheckmate, Winner: toMove.Opposite()}
	case rules.IsStalemate(b, toMove, history):
		return &GameEnd{Type: core.StateStalemate, Message: fmt.Sprintf("Stalemate: %s has no legal moves", toMove.Name())}
	}
	if reason := rules.CheckDraw(b, history); reason != rules.NoDraw {
		return &GameEnd{Type: core.StateDraw, Message: "Draw by " + reason.String()}
	}
	return nil
}

// Replay applies a recorded move without validation and moves the cursor to
// index. It is the building block of undo and redo.
func (g *Game) Replay(index int, from, to core.Square, piece core.Piece, special *rules.SpecialMove) {
	st := g.container.Get()
	rules.Apply(&st.Board, from, to, piece, special)
	st.CurrentColor = piece.Color.Opposite()
	st.CurrentMoveIndex = index
	g.container.Set(st)
}

// Undo steps the cursor back one move. No-op at the initial position.
// With a promotion pending, Undo only cancels it.
func (g *Game) Undo() {
	st := g.container.Get()
	if g.cancelPending(st) {
		return
	}
	if st.CurrentMoveIndex < 0 {
		return
	}
	g.replayTo(st, st.CurrentMoveIndex-1)
}

// Redo steps the cursor forward one move. No-op at the end of history.
// A pending promotion is dropped first.
func (g *Game) Redo() {
	st := g.container.Get()
	if g.cancelPending(st) {
		st = g.container.Get()
	}
	if st.CurrentMoveIndex >= len(st.History)-1 {
		return
	}
	g.replayTo(st, st.CurrentMoveIndex+1)
}

func (g *Game) cancelPending(st State) bool {
	if st.Pending == nil {
		return false
	}
	g.logger.Debug("promotion cancelled", "from", st.Pending.From.String(), "to", st.Pending.To.String())
	st.Pending = nil
	g.container.Set(st)
	return true
}

// replayTo rebuilds the board from the initial position through history[index]
func (g *Game) replayTo(st State, index int) {
	reset := initialState(g.initial, g.initialColor)
	reset.History = st.History
	reset.GameState = st.GameState
	g.container.Set(reset)

	for i := 0; i <= index; i++ {
		m := st.History[i]
		g.Replay(i, m.From, m.To, m.Piece, m.Special)
	}
	g.logger.Debug("replayed", "index", index, "of", len(st.History))
}

func (g *Game) GetPiece(sq core.Square) core.Piece {
	st := g.container.Get()
	return st.Board.Get(sq)
}

// SetFreeMode replaces the position with arbitrary pieces and clears the
// history. No validation is done; the result becomes the undo origin.
func (g *Game) SetFreeMode(pieces map[core.Square]core.Piece, turn core.Color) {
	b := board.Empty()
	for sq, p := range pieces {
		b.Set(sq, p)
	}
	if !turn.Valid() {
		turn = core.ColorWhite
	}
	g.initial = b
	g.initialColor = turn
	g.container.Set(initialState(b, turn))
}

// Snapshot returns a copy of the session state
func (g *Game) Snapshot() State {
	return g.container.Get().Clone()
}

// LegalMoves lists the moves available to the side to move. Empty once the
// game is over or while a promotion is pending.
func (g *Game) LegalMoves() []rules.Move {
	st := g.container.Get()
	if st.GameState.Terminal() || st.Pending != nil {
		return nil
	}
	return rules.LegalMoves(&st.Board, st.CurrentColor, st.activeHistory())
}

// LegalMovesFrom lists the legal moves of the piece on from
func (g *Game) LegalMovesFrom(from core.Square) []rules.Move {
	st := g.container.Get()
	p := st.Board.Get(from)
	if st.GameState.Terminal() || st.Pending != nil || p.IsEmpty() || p.Color != st.CurrentColor {
		return nil
	}
	return rules.GenerateSinglePieceMoves(&st.Board, from, p, st.activeHistory())
}

// InCheck reports whether the side to move is in check
func (g *Game) InCheck() bool {
	st := g.container.Get()
	return rules.IsCheck(&st.Board, st.CurrentColor, st.activeHistory())
}

func (g *Game) FEN() string {
	st := g.container.Get()
	return rules.FEN(&st.Board, st.CurrentColor, st.activeHistory())
}

func (g *Game) rejected(from, to core.Square, reason string) rules.Result {
	g.logger.Debug("move rejected", "from", from.String(), "to", to.String(), "reason", reason)
	return rules.Result{Message: reason}
}
