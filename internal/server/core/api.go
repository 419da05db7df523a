package core

// Request types

type CreateGameRequest struct {
	// Position optionally replaces the starting position (square -> piece token)
	Position map[string]string `json:"position,omitempty" validate:"omitempty,max=64,dive,keys,square,endkeys,piece"`
	Turn     string            `json:"turn,omitempty" validate:"omitempty,oneof=w b"`
}

type MoveRequest struct {
	From string `json:"from" validate:"required,square"`
	To   string `json:"to" validate:"required,square"`
}

type PromotionRequest struct {
	From  string `json:"from" validate:"required,square"`
	To    string `json:"to" validate:"required,square"`
	Piece string `json:"piece" validate:"required,oneof=q r b n"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"omitempty,min=1,max=300"`
}

type RedoRequest struct {
	Count int `json:"count" validate:"omitempty,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID           string            `json:"gameId"`
	FEN              string            `json:"fen"`
	Turn             string            `json:"turn"`  // "w" or "b"
	State            string            `json:"state"` // "active", "checkmate", "stalemate", "draw"
	Check            bool              `json:"check"`
	Moves            []MoveInfo        `json:"moves"`
	CurrentMoveIndex int               `json:"currentMoveIndex"`
	Board            map[string]string `json:"board"`
	Players          PlayersResponse   `json:"players"`
	LastMove         *MoveInfo         `json:"lastMove,omitempty"`
	Pending          *PromotionInfo    `json:"pending,omitempty"`
	Result           *ResultInfo       `json:"result,omitempty"`
}

type PlayersResponse struct {
	White string `json:"white,omitempty"`
	Black string `json:"black,omitempty"`
}

type MoveInfo struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Piece      string `json:"piece"`
	Notation   string `json:"notation"` // coordinate form, "e7e8q" for promotions
	Capture    bool   `json:"capture,omitempty"`
	Special    string `json:"special,omitempty"`
	PromotedTo string `json:"promotedTo,omitempty"`
}

type PromotionInfo struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Piece string `json:"piece"`
}

type ResultInfo struct {
	Type    string `json:"type"`
	Winner  string `json:"winner,omitempty"` // "white" or "black"
	Message string `json:"message,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

// HealthResponse reports what the server is holding
type HealthResponse struct {
	Status  string `json:"status"`  // "healthy" or "degraded"
	Time    int64  `json:"time"`
	Storage string `json:"storage"` // "ok", "degraded" or "disabled"
	Games   int    `json:"games"`
	Waiting int    `json:"waiting"` // parked long-poll requests
}

type LegalMovesResponse struct {
	GameID string   `json:"gameId"`
	From   string   `json:"from,omitempty"`
	Moves  []string `json:"moves"`
}
