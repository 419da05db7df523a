package storage

import "time"

// UserRecord represents a user account in the database
type UserRecord struct {
	UserID       string     `db:"user_id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	AccountType  string     `db:"account_type"` // "permanent" or "temp"
	CreatedAt    time.Time  `db:"created_at"`
	ExpiresAt    *time.Time `db:"expires_at"` // nil for permanent
	LastLoginAt  *time.Time `db:"last_login_at"`
}

// SessionRecord backs the sid claim of an issued token
type SessionRecord struct {
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// GameRecord is a row in the games table. Result is empty while the game is
// active.
type GameRecord struct {
	GameID        string     `db:"game_id"`
	WhitePlayerID string     `db:"white_player_id"`
	BlackPlayerID string     `db:"black_player_id"`
	StartTimeUTC  time.Time  `db:"start_time_utc"`
	Result        string     `db:"result"`        // "checkmate", "stalemate", "draw"
	ResultDetail  string     `db:"result_detail"` // winner color or draw message
	EndTimeUTC    *time.Time `db:"end_time_utc"`
}

// MoveRecord is a row in the moves table. MoveNumber counts half-moves from 1.
type MoveRecord struct {
	GameID       string    `db:"game_id"`
	MoveNumber   int       `db:"move_number"`
	FromSquare   string    `db:"from_square"`
	ToSquare     string    `db:"to_square"`
	Piece        string    `db:"piece"`
	Capture      bool      `db:"capture"`
	Special      string    `db:"special"`     // "", "enPassant", "castling", "promotion"
	PromotedTo   string    `db:"promoted_to"` // piece token, promotions only
	FENAfterMove string    `db:"fen_after_move"`
	PlayerColor  string    `db:"player_color"`
	MoveTimeUTC  time.Time `db:"move_time_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	username TEXT UNIQUE NOT NULL COLLATE NOCASE,
	email TEXT COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	account_type TEXT NOT NULL DEFAULT 'temp' CHECK(account_type IN ('permanent', 'temp')),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME,
	last_login_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_users_expires_at ON users(expires_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_unique ON users(email) WHERE email IS NOT NULL AND email != '';

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	white_player_id TEXT NOT NULL DEFAULT '',
	black_player_id TEXT NOT NULL DEFAULT '',
	start_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	result TEXT NOT NULL DEFAULT '' CHECK(result IN ('', 'checkmate', 'stalemate', 'draw')),
	result_detail TEXT NOT NULL DEFAULT '',
	end_time_utc DATETIME
);

CREATE TABLE IF NOT EXISTS moves (
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	from_square TEXT NOT NULL,
	to_square TEXT NOT NULL,
	piece TEXT NOT NULL,
	capture INTEGER NOT NULL DEFAULT 0,
	special TEXT NOT NULL DEFAULT '',
	promoted_to TEXT NOT NULL DEFAULT '',
	fen_after_move TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (game_id, move_number),
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_games_white_player ON games(white_player_id);
CREATE INDEX IF NOT EXISTS idx_games_black_player ON games(black_player_id);
`
