package processor

import (
	"luchess/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdGetGame
	CmdDeleteGame
	CmdMakeMove
	CmdPromote
	CmdUndoMove
	CmdRedoMove
	CmdGetBoard
	CmdLegalMoves
	CmdJoinGame
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // promotion awaiting a piece
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

// LegalMovesArgs restricts the listing to one square; empty means all pieces
type LegalMovesArgs struct {
	From string
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{
		Type: CmdCreateGame,
		Args: req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewMakeMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{
		Type:   CmdMakeMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewPromoteCommand(gameID string, req core.PromotionRequest) Command {
	return Command{
		Type:   CmdPromote,
		GameID: gameID,
		Args:   req,
	}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{
		Type:   CmdUndoMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewRedoMoveCommand(gameID string, req core.RedoRequest) Command {
	return Command{
		Type:   CmdRedoMove,
		GameID: gameID,
		Args:   req,
	}
}

// NewDeleteGameCommand deletes on behalf of userID, empty when anonymous
func NewDeleteGameCommand(gameID, userID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		UserID: userID,
		GameID: gameID,
	}
}

func NewJoinGameCommand(gameID, userID string) Command {
	return Command{
		Type:   CmdJoinGame,
		UserID: userID,
		GameID: gameID,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

func NewLegalMovesCommand(gameID, from string) Command {
	return Command{
		Type:   CmdLegalMoves,
		GameID: gameID,
		Args:   LegalMovesArgs{From: from},
	}
}
