package api

import "time"

// Wire types of the chess server API, mirrored here so the client does not
// depend on server packages

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage,omitempty"`
	Games   int    `json:"games"`
	Waiting int    `json:"waiting"`
}

type CreateGameRequest struct {
	Position map[string]string `json:"position,omitempty"`
	Turn     string            `json:"turn,omitempty"`
}

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type PromotionRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Piece string `json:"piece"`
}

type UndoRequest struct {
	Count int `json:"count"`
}

type RedoRequest struct {
	Count int `json:"count"`
}

type GameResponse struct {
	GameID           string            `json:"gameId"`
	FEN              string            `json:"fen"`
	Turn             string            `json:"turn"`
	State            string            `json:"state"`
	Check            bool              `json:"check"`
	Moves            []MoveInfo        `json:"moves"`
	CurrentMoveIndex int               `json:"currentMoveIndex"`
	Board            map[string]string `json:"board"`
	Players          PlayersResponse   `json:"players"`
	LastMove         *MoveInfo         `json:"lastMove,omitempty"`
	Pending          *PromotionInfo    `json:"pending,omitempty"`
	Result           *ResultInfo       `json:"result,omitempty"`
}

// MoveCount is the value to send as moveCount when long-polling
func (g *GameResponse) MoveCount() int {
	return g.CurrentMoveIndex + 1
}

type PlayersResponse struct {
	White string `json:"white,omitempty"`
	Black string `json:"black,omitempty"`
}

type MoveInfo struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Piece      string `json:"piece"`
	Notation   string `json:"notation"`
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
	Winner  string `json:"winner,omitempty"`
	Message string `json:"message,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"`
}

type LegalMovesResponse struct {
	GameID string   `json:"gameId"`
	From   string   `json:"from,omitempty"`
	Moves  []string `json:"moves"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
