package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"luchess/internal/server/core"
	"luchess/internal/server/game"
	"luchess/internal/server/rules"
	"luchess/internal/server/storage"
)

// GameView is a consistent copy of a game taken under its lock
type GameView struct {
	ID     string
	State  game.State
	FEN    string
	Check  bool
	White  string
	Black  string
	Result *game.GameEnd
}

// MoveCount is the number of moves up to the cursor
func (v GameView) MoveCount() int {
	return v.State.CurrentMoveIndex + 1
}

// view must be called with e.mu held
func (e *entry) view() GameView {
	v := GameView{
		ID:    e.id,
		State: e.game.Snapshot(),
		FEN:   e.game.FEN(),
		Check: e.game.InCheck(),
		White: e.white,
		Black: e.black,
	}
	if e.result != nil {
		r := *e.result
		v.Result = &r
	}
	return v
}

// persister is the per-game event sink. It runs inside the mutating call,
// under the entry lock.
type persister struct {
	s *Service
	e *entry
}

func (p persister) OnMove(ev game.MoveEvent) {
	if p.s.store == nil {
		return
	}
	// a move made after undo replaces the stored redo branch
	p.s.store.DeleteUndoneMoves(p.e.id, ev.Ply)

	record := storage.MoveRecord{
		GameID:       p.e.id,
		MoveNumber:   ev.Ply + 1,
		FromSquare:   ev.Move.From.String(),
		ToSquare:     ev.Move.To.String(),
		Piece:        ev.Move.Piece.String(),
		Capture:      ev.Move.Capture,
		FENAfterMove: ev.FEN,
		PlayerColor:  ev.Color.String(),
		MoveTimeUTC:  time.Now().UTC(),
	}
	if sp := ev.Move.Special; sp != nil {
		record.Special = sp.Kind.String()
		if sp.Kind == rules.Promotion {
			record.PromotedTo = sp.PromotedTo.String()
		}
	}
	p.s.store.RecordMove(record)
}

func (p persister) OnGameEnd(end game.GameEnd) {
	p.e.result = &end
	if p.s.store == nil {
		return
	}
	detail := end.WinnerName()
	if detail == "" {
		detail = end.Message
	}
	p.s.store.UpdateGameResult(p.e.id, end.Type.String(), detail, time.Now().UTC())
}

// OnPromotion persists nothing; the move is recorded once finalized
func (p persister) OnPromotion(game.PromotionRequest) {}

// CreateGame starts a game from the standard position. userID, if set,
// takes the white side.
func (s *Service) CreateGame(userID string) (GameView, error) {
	s.mu.Lock()
	if len(s.games) >= MaxGames {
		s.mu.Unlock()
		return GameView{}, ErrGameLimit
	}

	id := uuid.New().String()
	for s.games[id] != nil {
		id = uuid.New().String()
	}

	e := &entry{id: id, creator: userID, white: userID, lastActivity: time.Now()}
	e.game = game.New(
		game.WithEvents(persister{s: s, e: e}),
		game.WithLogger(slog.Default().With("game", id)),
	)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.games[id] = e
	s.mu.Unlock()

	if s.store != nil {
		s.store.RecordNewGame(storage.GameRecord{
			GameID:        id,
			WhitePlayerID: userID,
			StartTimeUTC:  time.Now().UTC(),
		})
	}

	return e.view(), nil
}

// withEntry runs fn under the game's lock and returns the resulting view.
// Waiters are notified when fn changes the move count.
func (s *Service) withEntry(gameID string, fn func(e *entry) error) (GameView, error) {
	s.mu.RLock()
	e, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return GameView{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.game.Snapshot().CurrentMoveIndex
	if err := fn(e); err != nil {
		return GameView{}, err
	}
	e.lastActivity = time.Now()

	v := e.view()
	if v.State.CurrentMoveIndex != before {
		s.waiter.NotifyGame(gameID, v.MoveCount())
	}
	return v, nil
}

// GetGame returns the current view of a game
func (s *Service) GetGame(gameID string) (GameView, error) {
	return s.withEntry(gameID, func(*entry) error { return nil })
}

// SetPosition replaces the game's position and clears its history
func (s *Service) SetPosition(gameID string, pieces map[core.Square]core.Piece, turn core.Color) (GameView, error) {
	return s.withEntry(gameID, func(e *entry) error {
		e.game.SetFreeMode(pieces, turn)
		e.result = nil
		if s.store != nil {
			s.store.DeleteUndoneMoves(gameID, 0)
		}
		return nil
	})
}

// ApplyMove plays from->to for the side to move. A rejected move leaves the
// game unchanged and is reported through the returned Result, not the error.
func (s *Service) ApplyMove(gameID string, from, to core.Square) (GameView, rules.Result, error) {
	var res rules.Result
	v, err := s.withEntry(gameID, func(e *entry) error {
		res = e.game.SetPiece(from, to, e.game.GetPiece(from))
		return nil
	})
	return v, res, err
}

// FinalizePromotion completes a pending promotion with a piece of the given
// kind in the promoting pawn's color
func (s *Service) FinalizePromotion(gameID string, kind core.Kind, from, to core.Square) (GameView, rules.Result, error) {
	var res rules.Result
	v, err := s.withEntry(gameID, func(e *entry) error {
		color := e.game.Snapshot().CurrentColor
		if p := e.game.Snapshot().Pending; p != nil {
			color = p.Piece.Color
		}
		res = e.game.FinalizePromotion(core.NewPiece(color, kind), from, to)
		return nil
	})
	return v, res, err
}

// Undo steps back up to count moves
func (s *Service) Undo(gameID string, count int) (GameView, error) {
	if count < 1 {
		return GameView{}, ErrInvalidCount
	}
	return s.withEntry(gameID, func(e *entry) error {
		for i := 0; i < count; i++ {
			e.game.Undo()
		}
		return nil
	})
}

// Redo steps forward up to count moves
func (s *Service) Redo(gameID string, count int) (GameView, error) {
	if count < 1 {
		return GameView{}, ErrInvalidCount
	}
	return s.withEntry(gameID, func(e *entry) error {
		for i := 0; i < count; i++ {
			e.game.Redo()
		}
		return nil
	})
}

// LegalMoves lists legal moves for the side to move, restricted to the piece
// on from unless from is core.NoSquare
func (s *Service) LegalMoves(gameID string, from core.Square) ([]rules.Move, error) {
	var moves []rules.Move
	_, err := s.withEntry(gameID, func(e *entry) error {
		if from == core.NoSquare {
			moves = e.game.LegalMoves()
		} else {
			moves = e.game.LegalMovesFrom(from)
		}
		return nil
	})
	return moves, err
}

// JoinGame seats userID on the first free side, white before black. A user
// already seated keeps their side.
func (s *Service) JoinGame(gameID, userID string) (GameView, error) {
	if userID == "" {
		return GameView{}, ErrSignInRequired
	}
	return s.withEntry(gameID, func(e *entry) error {
		switch userID {
		case e.white, e.black:
			return nil
		}
		switch {
		case e.white == "":
			e.white = userID
		case e.black == "":
			e.black = userID
		default:
			return ErrGameFull
		}
		if s.store != nil {
			s.store.UpdateGamePlayers(gameID, e.white, e.black)
		}
		return nil
	})
}

// DeleteGame removes a game from memory; stored records are kept. A game
// created by a signed-in user can only be deleted by that user.
func (s *Service) DeleteGame(gameID, userID string) error {
	s.mu.Lock()
	e, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if e.creator != "" && e.creator != userID {
		s.mu.Unlock()
		return ErrNotCreator
	}
	delete(s.games, gameID)
	s.mu.Unlock()

	s.waiter.RemoveGame(gameID)
	return nil
}
