package storage

import (
	"database/sql"
	"errors"
	"time"
)

// ErrSessionNotFound covers sessions that were never opened, were revoked or
// have expired
var ErrSessionNotFound = errors.New("session not found")

// A user holds at most one session; opening a new one takes over the row
const upsertSession = `
INSERT INTO sessions (session_id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	session_id = excluded.session_id,
	created_at = excluded.created_at,
	expires_at = excluded.expires_at`

// ReplaceSession stores record as the user's only session
func (s *Store) ReplaceSession(record SessionRecord) error {
	_, err := s.db.Exec(upsertSession, record.SessionID, record.UserID, record.CreatedAt, record.ExpiresAt)
	return err
}

// LookupSession returns the session if it is still open at now
func (s *Store) LookupSession(sessionID string, now time.Time) (*SessionRecord, error) {
	var rec SessionRecord
	err := s.db.QueryRow(`SELECT session_id, user_id, created_at, expires_at FROM sessions
		WHERE session_id = ? AND expires_at > ?`, sessionID, now).Scan(
		&rec.SessionID, &rec.UserID, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RevokeSession closes a session; revoking twice reports ErrSessionNotFound
func (s *Store) RevokeSession(sessionID string) error {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// PurgeExpiredSessions drops sessions that ended before now
func (s *Store) PurgeExpiredSessions(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
