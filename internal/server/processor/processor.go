package processor

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"luchess/internal/server/core"
	"luchess/internal/server/rules"
	"luchess/internal/server/service"
)

// Processor turns commands into service calls and shapes their responses
type Processor struct {
	svc *service.Service
}

func New(svc *service.Service) *Processor {
	return &Processor{svc: svc}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdPromote:
		return p.handlePromote(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdRedoMove:
		return p.handleRedoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdLegalMoves:
		return p.handleLegalMoves(cmd)
	case CmdJoinGame:
		return p.handleJoinGame(cmd)
	default:
		return errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// handleCreateGame creates a game, optionally from a custom position
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	// Parse the custom setup before creating anything
	var pieces map[core.Square]core.Piece
	turn := core.ColorWhite
	if len(args.Position) > 0 {
		pieces = make(map[core.Square]core.Piece, len(args.Position))
		for sqStr, pieceStr := range args.Position {
			sq, err := core.ParseSquare(sqStr)
			if err != nil {
				return errorResponse(err.Error(), core.ErrInvalidRequest)
			}
			piece, err := core.ParsePiece(pieceStr)
			if err != nil {
				return errorResponse(err.Error(), core.ErrInvalidRequest)
			}
			pieces[sq] = piece
		}
	}
	if args.Turn != "" {
		c, err := core.ParseColor(args.Turn)
		if err != nil {
			return errorResponse(err.Error(), core.ErrInvalidRequest)
		}
		turn = c
	}

	v, err := p.svc.CreateGame(cmd.UserID)
	if err != nil {
		return p.serviceError(err)
	}

	if pieces != nil || turn != core.ColorWhite {
		if v, err = p.svc.SetPosition(v.ID, pieces, turn); err != nil {
			return p.serviceError(err)
		}
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(v),
	}
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	v, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(v),
	}
}

// handleMakeMove plays a move. A pawn reaching the last rank leaves the game
// waiting for a Promote command and the response is marked pending.
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	from, to, errResp := parseMove(args.From, args.To)
	if errResp != nil {
		return *errResp
	}

	v, res, err := p.svc.ApplyMove(cmd.GameID, from, to)
	if err != nil {
		return p.serviceError(err)
	}
	if !res.Valid {
		return errorResponse(res.Message, rejectionCode(res.Message))
	}

	return ProcessorResponse{
		Success: true,
		Pending: v.State.Pending != nil,
		Data:    p.buildGameResponse(v),
	}
}

// handlePromote completes a pending promotion
func (p *Processor) handlePromote(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.PromotionRequest)
	if !ok {
		return errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	from, to, errResp := parseMove(args.From, args.To)
	if errResp != nil {
		return *errResp
	}

	if len(args.Piece) != 1 {
		return errorResponse("invalid promotion piece", core.ErrInvalidPromotion)
	}
	kind, ok := core.KindFromLetter(strings.ToLower(args.Piece)[0])
	if !ok {
		return errorResponse("invalid promotion piece", core.ErrInvalidPromotion)
	}

	v, res, err := p.svc.FinalizePromotion(cmd.GameID, kind, from, to)
	if err != nil {
		return p.serviceError(err)
	}
	if !res.Valid {
		return errorResponse(res.Message, rejectionCode(res.Message))
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(v),
	}
}

func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
		args = req
	}

	v, err := p.svc.Undo(cmd.GameID, args.Count)
	if err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(v),
	}
}

func (p *Processor) handleRedoMove(cmd Command) ProcessorResponse {
	args := core.RedoRequest{Count: 1}
	if req, ok := cmd.Args.(core.RedoRequest); ok && req.Count > 0 {
		args = req
	}

	v, err := p.svc.Redo(cmd.GameID, args.Count)
	if err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(v),
	}
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID, cmd.UserID); err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
	}
}

// handleJoinGame seats the user on a free side
func (p *Processor) handleJoinGame(cmd Command) ProcessorResponse {
	v, err := p.svc.JoinGame(cmd.GameID, cmd.UserID)
	if err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(v),
	}
}

// handleGetBoard returns board visualization
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	v, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			FEN:   v.FEN,
			Board: v.State.Board.ASCII(),
		},
	}
}

// handleLegalMoves lists moves for the side to move in coordinate notation
func (p *Processor) handleLegalMoves(cmd Command) ProcessorResponse {
	args, _ := cmd.Args.(LegalMovesArgs)

	from := core.NoSquare
	if args.From != "" {
		sq, err := core.ParseSquare(args.From)
		if err != nil {
			return errorResponse(err.Error(), core.ErrInvalidRequest)
		}
		from = sq
	}

	moves, err := p.svc.LegalMoves(cmd.GameID, from)
	if err != nil {
		return p.serviceError(err)
	}

	resp := core.LegalMovesResponse{
		GameID: cmd.GameID,
		From:   args.From,
		Moves:  make([]string, 0, len(moves)),
	}
	for _, m := range moves {
		resp.Moves = append(resp.Moves, m.Notation())
	}

	return ProcessorResponse{
		Success: true,
		Data:    resp,
	}
}

// buildGameResponse constructs standard game response
func (p *Processor) buildGameResponse(v service.GameView) core.GameResponse {
	st := v.State
	resp := core.GameResponse{
		GameID:           v.ID,
		FEN:              v.FEN,
		Turn:             st.CurrentColor.String(),
		State:            st.GameState.String(),
		Check:            v.Check,
		Moves:            make([]core.MoveInfo, 0, len(st.History)),
		CurrentMoveIndex: st.CurrentMoveIndex,
		Board:            st.Board.Map(),
		Players: core.PlayersResponse{
			White: v.White,
			Black: v.Black,
		},
	}

	for _, m := range st.History {
		resp.Moves = append(resp.Moves, moveInfo(m))
	}
	if st.CurrentMoveIndex >= 0 {
		last := resp.Moves[st.CurrentMoveIndex]
		resp.LastMove = &last
	}

	if pp := st.Pending; pp != nil {
		resp.Pending = &core.PromotionInfo{
			From:  pp.From.String(),
			To:    pp.To.String(),
			Piece: pp.Piece.String(),
		}
	}

	if r := v.Result; r != nil {
		resp.Result = &core.ResultInfo{
			Type:    r.Type.String(),
			Winner:  r.WinnerName(),
			Message: r.Message,
		}
	}

	return resp
}

func moveInfo(m rules.Move) core.MoveInfo {
	info := core.MoveInfo{
		From:     m.From.String(),
		To:       m.To.String(),
		Piece:    m.Piece.String(),
		Notation: m.Notation(),
		Capture:  m.Capture,
	}
	if m.Special != nil {
		info.Special = m.Special.Kind.String()
		if m.Special.Kind == rules.Promotion {
			info.PromotedTo = m.Special.PromotedTo.String()
		}
	}
	return info
}

func parseMove(fromStr, toStr string) (core.Square, core.Square, *ProcessorResponse) {
	from, err := core.ParseSquare(fromStr)
	if err != nil {
		resp := errorResponse(err.Error(), core.ErrInvalidMove)
		return core.NoSquare, core.NoSquare, &resp
	}
	to, err := core.ParseSquare(toStr)
	if err != nil {
		resp := errorResponse(err.Error(), core.ErrInvalidMove)
		return core.NoSquare, core.NoSquare, &resp
	}
	return from, to, nil
}

// rejectionCode classifies a rejected move by its message
func rejectionCode(message string) string {
	switch {
	case message == "Game is over":
		return core.ErrGameOver
	case message == "Promotion pending":
		return core.ErrPromotionPending
	case strings.Contains(strings.ToLower(message), "promotion"):
		return core.ErrInvalidPromotion
	default:
		return core.ErrInvalidMove
	}
}

// serviceError maps service failures to API error codes
func (p *Processor) serviceError(err error) ProcessorResponse {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return errorResponse("game not found", core.ErrGameNotFound)
	case errors.Is(err, service.ErrGameLimit):
		return errorResponse(fmt.Sprintf("maximum of %d concurrent games reached", service.MaxGames), core.ErrResourceLimit)
	case errors.Is(err, service.ErrInvalidCount):
		return errorResponse(err.Error(), core.ErrInvalidRequest)
	case errors.Is(err, service.ErrGameFull):
		return errorResponse(err.Error(), core.ErrGameFull)
	case errors.Is(err, service.ErrNotCreator):
		return errorResponse(err.Error(), core.ErrForbidden)
	case errors.Is(err, service.ErrSignInRequired):
		return errorResponse(err.Error(), core.ErrUnauthorized)
	default:
		log.Printf("processor: %v", err)
		return errorResponse("internal error", core.ErrInternalError)
	}
}

// errorResponse creates error response
func errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}
