package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luchess/internal/server/core"
	"luchess/internal/server/storage"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "chess.db"), false)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	svc := New(store, testSecret)
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	return svc, store
}

func sq(s string) core.Square {
	return core.MustSquare(s)
}

func TestCreateAndGetGame(t *testing.T) {
	svc := New(nil, testSecret)

	v, err := svc.CreateGame("u1")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "u1", v.White)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", v.FEN)
	assert.Equal(t, 0, v.MoveCount())
	assert.Equal(t, 1, svc.GameCount())

	got, err := svc.GetGame(v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.FEN, got.FEN)

	_, err = svc.GetGame("missing")
	assert.True(t, errors.Is(err, ErrGameNotFound))
	assert.Equal(t, "disabled", svc.GetStorageHealth())
}

func TestApplyMoveAndUndoRedo(t *testing.T) {
	svc := New(nil, testSecret)
	v, err := svc.CreateGame("")
	require.NoError(t, err)

	v, res, err := svc.ApplyMove(v.ID, sq("e2"), sq("e4"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, core.ColorBlack, v.State.CurrentColor)
	assert.Equal(t, 1, v.MoveCount())

	_, res, err = svc.ApplyMove(v.ID, sq("e4"), sq("e5"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "It's black's turn. You can't move a white piece.", res.Message)

	_, _, err = svc.ApplyMove(v.ID, sq("e7"), sq("e5"))
	require.NoError(t, err)

	v, err = svc.Undo(v.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, v.MoveCount())
	assert.Len(t, v.State.History, 2)

	v, err = svc.Redo(v.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.MoveCount())

	_, err = svc.Undo(v.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestSetPositionAndLegalMoves(t *testing.T) {
	svc := New(nil, testSecret)
	v, err := svc.CreateGame("")
	require.NoError(t, err)

	v, err = svc.SetPosition(v.ID, map[core.Square]core.Piece{
		sq("e1"): core.NewPiece(core.ColorWhite, core.King),
		sq("a7"): core.NewPiece(core.ColorWhite, core.Pawn),
		sq("h8"): core.NewPiece(core.ColorBlack, core.King),
	}, core.ColorWhite)
	require.NoError(t, err)
	assert.Equal(t, "7k/P7/8/8/8/8/8/4K3 w - - 0 1", v.FEN)

	moves, err := svc.LegalMoves(v.ID, sq("a7"))
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, sq("a8"), moves[0].To)

	all, err := svc.LegalMoves(v.ID, core.NoSquare)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestPromotionThroughService(t *testing.T) {
	svc := New(nil, testSecret)
	v, _ := svc.CreateGame("")
	_, err := svc.SetPosition(v.ID, map[core.Square]core.Piece{
		sq("e1"): core.NewPiece(core.ColorWhite, core.King),
		sq("b7"): core.NewPiece(core.ColorWhite, core.Pawn),
		sq("h5"): core.NewPiece(core.ColorBlack, core.King),
	}, core.ColorWhite)
	require.NoError(t, err)

	v, res, err := svc.ApplyMove(v.ID, sq("b7"), sq("b8"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.NotNil(t, v.State.Pending)
	assert.Equal(t, 0, v.MoveCount())

	v, res, err = svc.FinalizePromotion(v.ID, core.Queen, sq("b7"), sq("b8"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Nil(t, v.State.Pending)
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.Queen), v.State.Board.Get(sq("b8")))
}

func TestFoolsMateRecordsResult(t *testing.T) {
	svc, store := newTestService(t)
	v, err := svc.CreateGame("")
	require.NoError(t, err)

	for _, m := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		_, res, err := svc.ApplyMove(v.ID, sq(m[0]), sq(m[1]))
		require.NoError(t, err)
		require.True(t, res.Valid, res.Message)
	}

	v, err = svc.GetGame(v.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StateCheckmate, v.State.GameState)
	require.NotNil(t, v.Result)
	assert.Equal(t, core.ColorBlack, v.Result.Winner)

	assert.Eventually(t, func() bool {
		games, err := store.QueryGames(v.ID, "")
		if err != nil || len(games) != 1 {
			return false
		}
		moves, err := store.QueryMoves(v.ID)
		return err == nil && len(moves) == 4 && games[0].Result == "checkmate" && games[0].ResultDetail == "black"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "ok", svc.GetStorageHealth())
}

func TestMoveAfterUndoReplacesStoredMoves(t *testing.T) {
	svc, store := newTestService(t)
	v, _ := svc.CreateGame("")

	svc.ApplyMove(v.ID, sq("e2"), sq("e4"))
	svc.ApplyMove(v.ID, sq("e7"), sq("e5"))
	svc.Undo(v.ID, 1)
	_, res, err := svc.ApplyMove(v.ID, sq("c7"), sq("c5"))
	require.NoError(t, err)
	require.True(t, res.Valid)

	assert.Eventually(t, func() bool {
		moves, err := store.QueryMoves(v.ID)
		return err == nil && len(moves) == 2 && moves[1].FromSquare == "c7"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConcurrentGames(t *testing.T) {
	svc := New(nil, testSecret)

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		v, err := svc.CreateGame("")
		require.NoError(t, err)
		ids[i] = v.ID
	}

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, m := range [][2]string{{"g1", "f3"}, {"g8", "f6"}, {"f3", "g1"}, {"f6", "g8"}} {
				svc.ApplyMove(id, sq(m[0]), sq(m[1]))
			}
			svc.GetGame(id)
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		v, err := svc.GetGame(id)
		require.NoError(t, err)
		assert.Equal(t, 4, v.MoveCount())
	}
}

func TestGameLimitAndDelete(t *testing.T) {
	svc := New(nil, testSecret)
	for i := 0; i < MaxGames; i++ {
		_, err := svc.CreateGame("")
		require.NoError(t, err)
	}
	_, err := svc.CreateGame("")
	assert.ErrorIs(t, err, ErrGameLimit)

	v, err := svc.GetGame(firstID(svc))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteGame(v.ID, ""))
	assert.ErrorIs(t, svc.DeleteGame(v.ID, ""), ErrGameNotFound)
	assert.Equal(t, MaxGames-1, svc.GameCount())
}

func TestDeleteRestrictedToCreator(t *testing.T) {
	svc := New(nil, testSecret)
	v, err := svc.CreateGame("alice")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteGame(v.ID, ""), ErrNotCreator)
	assert.ErrorIs(t, svc.DeleteGame(v.ID, "bob"), ErrNotCreator)
	assert.Equal(t, 1, svc.GameCount())
	require.NoError(t, svc.DeleteGame(v.ID, "alice"))
	assert.Equal(t, 0, svc.GameCount())
}

func TestJoinGameSeatsBlack(t *testing.T) {
	svc, store := newTestService(t)
	v, err := svc.CreateGame("alice")
	require.NoError(t, err)

	_, err = svc.JoinGame(v.ID, "")
	assert.ErrorIs(t, err, ErrSignInRequired)

	v, err = svc.JoinGame(v.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", v.White)
	assert.Equal(t, "bob", v.Black)

	again, err := svc.JoinGame(v.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", again.Black)

	_, err = svc.JoinGame(v.ID, "carol")
	assert.ErrorIs(t, err, ErrGameFull)

	_, err = svc.JoinGame("missing", "bob")
	assert.ErrorIs(t, err, ErrGameNotFound)

	require.Eventually(t, func() bool {
		games, err := store.QueryGames(v.ID, "")
		return err == nil && len(games) == 1 && games[0].BlackPlayerID == "bob"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJoinAnonymousGameTakesWhite(t *testing.T) {
	svc := New(nil, testSecret)
	v, err := svc.CreateGame("")
	require.NoError(t, err)

	v, err = svc.JoinGame(v.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", v.White)
	assert.Empty(t, v.Black)
	require.NoError(t, svc.DeleteGame(v.ID, "bob"))
}

func firstID(svc *Service) string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	for id := range svc.games {
		return id
	}
	return ""
}

func TestCleanupIdleGames(t *testing.T) {
	svc := New(nil, testSecret)
	old, _ := svc.CreateGame("")
	fresh, _ := svc.CreateGame("")

	svc.games[old.ID].lastActivity = time.Now().Add(-2 * GameIdleTTL)

	assert.Equal(t, 1, svc.cleanupIdleGames(time.Now().Add(-GameIdleTTL)))
	_, err := svc.GetGame(old.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = svc.GetGame(fresh.ID)
	assert.NoError(t, err)
}

func TestWaitWakesOnMove(t *testing.T) {
	svc := New(nil, testSecret)
	v, _ := svc.CreateGame("")

	ch := svc.RegisterWait(v.ID, 0, context.Background())
	select {
	case <-ch:
		t.Fatal("woke before any move")
	case <-time.After(20 * time.Millisecond):
	}

	_, _, err := svc.ApplyMove(v.ID, sq("d2"), sq("d4"))
	require.NoError(t, err)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("waiter not notified")
	}
}

func TestWaitRegistry(t *testing.T) {
	t.Run("up to date waiter stays parked", func(t *testing.T) {
		r := NewWaitRegistry()
		ch := r.RegisterWait("g", 3, context.Background())
		r.NotifyGame("g", 3)
		select {
		case <-ch:
			t.Fatal("woke on same move count")
		case <-time.After(20 * time.Millisecond):
		}
		assert.Equal(t, 1, r.Pending("g"))
		r.RegisterWait("h", 0, context.Background())
		assert.Equal(t, 2, r.Waiting())
		require.NoError(t, r.Shutdown(time.Second))
		<-ch
	})

	t.Run("context cancel", func(t *testing.T) {
		r := NewWaitRegistry()
		ctx, cancel := context.WithCancel(context.Background())
		ch := r.RegisterWait("g", 0, ctx)
		cancel()
		<-ch
		assert.Eventually(t, func() bool { return r.Pending("g") == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("timeout", func(t *testing.T) {
		r := NewWaitRegistry()
		r.timeout = 10 * time.Millisecond
		<-r.RegisterWait("g", 0, context.Background())
	})

	t.Run("removed game", func(t *testing.T) {
		r := NewWaitRegistry()
		ch := r.RegisterWait("g", 0, context.Background())
		r.RemoveGame("g")
		<-ch
	})

	t.Run("after shutdown", func(t *testing.T) {
		r := NewWaitRegistry()
		require.NoError(t, r.Shutdown(time.Second))
		<-r.RegisterWait("g", 0, context.Background())
		require.NoError(t, r.Shutdown(time.Second))
	})
}

func TestUsersAndTokens(t *testing.T) {
	svc, _ := newTestService(t)

	u, err := svc.CreateUser("Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "permanent", u.AccountType)

	_, err = svc.CreateUser("alice", "other@example.com", "password123")
	assert.ErrorIs(t, err, storage.ErrUserExists)

	got, err := svc.AuthenticateUser("alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	_, err = svc.AuthenticateUser("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.AuthenticateUser("bob", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.UpdateLastLogin(u.UserID))

	token, err := svc.GenerateUserToken(u.UserID)
	require.NoError(t, err)

	userID, claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, userID)
	assert.Equal(t, "alice", claims["username"])

	require.NoError(t, svc.Logout(claims))
	_, _, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenReplacedByNewLogin(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.CreateUser("carol", "", "password123")
	require.NoError(t, err)

	first, err := svc.GenerateUserToken(u.UserID)
	require.NoError(t, err)
	second, err := svc.GenerateUserToken(u.UserID)
	require.NoError(t, err)

	_, _, err = svc.ValidateToken(first)
	assert.Error(t, err)
	_, _, err = svc.ValidateToken(second)
	assert.NoError(t, err)
}

func TestTempAccountsAfterPermanentSlots(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < PermanentSlots; i++ {
		u, err := svc.CreateUser("user"+string(rune('a'+i)), "", "password123")
		require.NoError(t, err)
		assert.Equal(t, "permanent", u.AccountType)
	}
	u, err := svc.CreateUser("latecomer", "", "password123")
	require.NoError(t, err)
	assert.Equal(t, "temp", u.AccountType)
}

func TestUsersNeedStorage(t *testing.T) {
	svc := New(nil, testSecret)
	_, err := svc.CreateUser("dave", "", "password123")
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.AuthenticateUser("dave", "password123")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
