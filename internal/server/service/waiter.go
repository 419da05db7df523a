package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// WaitTimeout is the longest a long-poll request is held
	WaitTimeout = 25 * time.Second
)

// WaitRegistry parks long-poll requests until their game changes
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*waiter // by game ID
	timeout  time.Duration
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

type waiter struct {
	moveCount int // last count the client saw
	notify    chan struct{}
	once      sync.Once
}

// wake releases the client; safe to call more than once
func (w *waiter) wake() {
	w.once.Do(func() { close(w.notify) })
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*waiter),
		timeout:  WaitTimeout,
		shutdown: make(chan struct{}),
	}
}

// RegisterWait returns a channel that is closed when the game's move count
// differs from moveCount, the game is removed, the wait times out, ctx ends
// or the registry shuts down
func (r *WaitRegistry) RegisterWait(gameID string, moveCount int, ctx context.Context) <-chan struct{} {
	w := &waiter{moveCount: moveCount, notify: make(chan struct{})}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		w.wake()
		return w.notify
	}
	r.waiters[gameID] = append(r.waiters[gameID], w)
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
		case <-w.notify:
		case <-r.shutdown:
		}
		w.wake()
		r.remove(gameID, w)
	}()

	return w.notify
}

// NotifyGame wakes every waiter whose known move count is stale
func (r *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.waiters[gameID] {
		if w.moveCount != currentMoveCount {
			w.wake()
		}
	}
}

// RemoveGame wakes and forgets all waiters of a deleted game
func (r *WaitRegistry) RemoveGame(gameID string) {
	r.mu.Lock()
	list := r.waiters[gameID]
	delete(r.waiters, gameID)
	r.mu.Unlock()

	for _, w := range list {
		w.wake()
	}
}

// Pending returns the number of parked requests for a game
func (r *WaitRegistry) Pending(gameID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters[gameID])
}

// Waiting returns the number of parked requests across all games
func (r *WaitRegistry) Waiting() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, list := range r.waiters {
		n += len(list)
	}
	return n
}

func (r *WaitRegistry) remove(gameID string, w *waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.waiters[gameID]
	for i, x := range list {
		if x == w {
			r.waiters[gameID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.waiters[gameID]) == 0 {
		delete(r.waiters, gameID)
	}
}

// Shutdown releases every waiter and waits for their goroutines
func (r *WaitRegistry) Shutdown(timeout time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.shutdown)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("wait registry shutdown timed out")
	}
}
