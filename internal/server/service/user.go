package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"

	"luchess/internal/server/storage"
)

// ErrUserLimit is returned when no registration slot is left
var ErrUserLimit = errors.New("user limit reached")

// User represents a registered user account
type User struct {
	UserID      string
	Username    string
	Email       string
	AccountType string
	CreatedAt   time.Time
}

func userFromRecord(r *storage.UserRecord) *User {
	return &User{
		UserID:      r.UserID,
		Username:    r.Username,
		Email:       r.Email,
		AccountType: r.AccountType,
		CreatedAt:   r.CreatedAt,
	}
}

// CreateUser registers an account. The first PermanentSlots accounts are
// permanent; later ones are temporary and expire after TempUserTTL.
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	total, permanent, _, err := s.store.GetUserCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if total >= MaxUsers {
		return nil, ErrUserLimit
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Username:     strings.ToLower(username),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		AccountType:  "permanent",
		CreatedAt:    now,
	}
	if permanent >= PermanentSlots {
		expires := now.Add(TempUserTTL)
		record.AccountType = "temp"
		record.ExpiresAt = &expires
	}

	if err := s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return userFromRecord(&record), nil
}

// AuthenticateUser verifies credentials; identifier is a username or email
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var record *storage.UserRecord
	var err error
	if strings.Contains(identifier, "@") {
		record, err = s.store.GetUserByEmail(identifier)
	} else {
		record, err = s.store.GetUserByUsername(identifier)
	}

	if err != nil {
		// keep timing similar for unknown users
		auth.HashPassword(password)
		return nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return userFromRecord(record), nil
}

// UpdateLastLogin updates the last login timestamp for a user
func (s *Service) UpdateLastLogin(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.UpdateLastLogin(userID, time.Now().UTC())
}

// GetUserByID retrieves user information by user ID
func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	record, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return userFromRecord(record), nil
}

// GenerateUserToken opens a session for the user and returns a JWT carrying
// its ID in the sid claim. Any earlier session of the user is replaced.
func (s *Service) GenerateUserToken(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	sessionID := uuid.New().String()
	if err := s.store.ReplaceSession(storage.SessionRecord{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	claims := map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"sid":      sessionID,
	}

	return auth.GenerateHS256Token(s.jwtSecret, userID, claims, SessionTTL)
}

// ValidateToken verifies the JWT and that its session is still open
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	userID, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return "", nil, err
	}
	if s.store == nil {
		return userID, claims, nil
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", nil, errors.New("token has no session")
	}
	if _, err := s.store.LookupSession(sid, time.Now().UTC()); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return "", nil, errors.New("session expired or revoked")
		}
		return "", nil, fmt.Errorf("failed to check session: %w", err)
	}
	return userID, claims, nil
}

// Logout closes the session named by the token's sid claim
func (s *Service) Logout(claims map[string]any) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return errors.New("token has no session")
	}
	return s.store.RevokeSession(sid)
}
