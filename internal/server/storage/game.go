package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordNewGame asynchronously records a new game
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO games (game_id, white_player_id, black_player_id, start_time_utc)
			VALUES (?, ?, ?, ?)`,
			record.GameID, record.WhitePlayerID, record.BlackPlayerID, record.StartTimeUTC,
		)
		return err
	})
}

// UpdateGamePlayers asynchronously records who sits on each side
func (s *Store) UpdateGamePlayers(gameID, whiteID, blackID string) {
	s.enqueue("game players", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET white_player_id = ?, black_player_id = ? WHERE game_id = ?`,
			whiteID, blackID, gameID,
		)
		return err
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, from_square, to_square, piece, capture, special,
			promoted_to, fen_after_move, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.MoveNumber, record.FromSquare, record.ToSquare,
			record.Piece, record.Capture, record.Special, record.PromotedTo,
			record.FENAfterMove, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// DeleteUndoneMoves asynchronously deletes moves numbered above
// afterMoveNumber, the redo branch a new move replaces
func (s *Store) DeleteUndoneMoves(gameID string, afterMoveNumber int) {
	s.enqueue("undo operation", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE game_id = ? AND move_number > ?`, gameID, afterMoveNumber)
		return err
	})
}

// UpdateGameResult asynchronously records how a game ended
func (s *Store) UpdateGameResult(gameID, result, detail string, endTime time.Time) {
	s.enqueue("game result", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET result = ?, result_detail = ?, end_time_utc = ? WHERE game_id = ?`,
			result, detail, endTime, gameID,
		)
		return err
	})
}

// QueryGames retrieves games with optional filtering. Empty or "*" matches all.
func (s *Store) QueryGames(gameID, playerID string) ([]GameRecord, error) {
	query := `SELECT game_id, white_player_id, black_player_id, start_time_utc,
		result, result_detail, end_time_utc
	FROM games WHERE 1=1`

	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}

	if playerID != "" && playerID != "*" {
		query += " AND (white_player_id = ? OR black_player_id = ?)"
		args = append(args, playerID, playerID)
	}

	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(
			&g.GameID, &g.WhitePlayerID, &g.BlackPlayerID, &g.StartTimeUTC,
			&g.Result, &g.ResultDetail, &g.EndTimeUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}

// QueryMoves returns the recorded moves of a game in play order
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT game_id, move_number, from_square, to_square, piece,
		capture, special, promoted_to, fen_after_move, player_color, move_time_utc
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(
			&m.GameID, &m.MoveNumber, &m.FromSquare, &m.ToSquare, &m.Piece,
			&m.Capture, &m.Special, &m.PromotedTo, &m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}
