package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"luchess/internal/server/game"
	"luchess/internal/server/storage"
)

const (
	MaxGames           = 1000
	MaxUsers           = 100
	PermanentSlots     = 10
	TempUserTTL        = 24 * time.Hour
	SessionTTL         = 7 * 24 * time.Hour
	GameIdleTTL        = 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameLimit          = errors.New("game limit reached")
	ErrStorageDisabled    = errors.New("storage disabled")
	ErrInvalidCount       = errors.New("count must be positive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrGameFull           = errors.New("both sides are taken")
	ErrNotCreator         = errors.New("only the creator may do this")
	ErrSignInRequired     = errors.New("sign in required")
)

// Service coordinates game sessions, users and storage
type Service struct {
	games     map[string]*entry
	mu        sync.RWMutex
	store     *storage.Store
	jwtSecret []byte
	waiter    *WaitRegistry
}

// entry isolates one game. Its mutex guards every read-modify-write of the
// session, so moves on different games never contend.
type entry struct {
	mu           sync.Mutex
	id           string
	game         *game.Game
	creator      string // empty for anonymous games
	white        string
	black        string
	result       *game.GameEnd
	lastActivity time.Time
}

// New creates a service; store may be nil to run in memory only
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*entry),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait registers a client to wait for game state changes
func (s *Service) RegisterWait(gameID string, moveCount int, ctx context.Context) <-chan struct{} {
	return s.waiter.RegisterWait(gameID, moveCount, ctx)
}

// WaitingRequests returns the number of parked long-poll requests
func (s *Service) WaitingRequests() int {
	return s.waiter.Waiting()
}

// GameCount returns the number of games held in memory
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	s.games = make(map[string]*entry)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob periodically drops idle games and expired users and sessions
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupIdleGames(time.Now().Add(-GameIdleTTL))
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupIdleGames(cutoff time.Time) int {
	s.mu.Lock()
	var idle []string
	for id, e := range s.games {
		e.mu.Lock()
		if e.lastActivity.Before(cutoff) {
			idle = append(idle, id)
			delete(s.games, id)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, id := range idle {
		s.waiter.RemoveGame(id)
	}
	if len(idle) > 0 {
		log.Printf("cleanup: removed %d idle games", len(idle))
	}
	return len(idle)
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}

	if deleted, err := s.store.DeleteExpiredTempUsers(); err != nil {
		log.Printf("cleanup: failed to delete expired users: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired temp users", deleted)
	}

	if deleted, err := s.store.PurgeExpiredSessions(time.Now().UTC()); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired sessions", deleted)
	}
}
