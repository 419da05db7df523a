package game

import (
	"luchess/internal/server/core"
	"luchess/internal/server/rules"
)

// MoveEvent describes a move just committed to history
type MoveEvent struct {
	Ply   int // 0-based history index
	Move  rules.Move
	Color core.Color
	FEN   string // position after the move
}

// GameEnd is emitted once when the game reaches a terminal state. Winner is
// only set for checkmate; Message only for stalemate and draws.
type GameEnd struct {
	Type    core.State
	Winner  core.Color
	Message string
}

func (e GameEnd) WinnerName() string {
	if !e.Winner.Valid() {
		return ""
	}
	return e.Winner.Name()
}

// PromotionRequest is emitted when a pawn move needs a replacement piece
type PromotionRequest struct {
	From  core.Square
	To    core.Square
	Piece core.Piece
	State State
}

// Events receives notifications from a session. Calls happen synchronously
// inside the mutating call.
type Events interface {
	OnMove(MoveEvent)
	OnGameEnd(GameEnd)
	OnPromotion(PromotionRequest)
}

type NopEvents struct{}

func (NopEvents) OnMove(MoveEvent)             {}
func (NopEvents) OnGameEnd(GameEnd)            {}
func (NopEvents) OnPromotion(PromotionRequest) {}
