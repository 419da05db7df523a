package session

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"luchess/internal/client/api"
	"luchess/internal/client/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ commands.Session = (*Session)(nil)

func TestSetCurrentGameDropsState(t *testing.T) {
	s := New("http://localhost:8080")
	s.SetCurrentGame("g1")
	s.SetGameState(&api.GameResponse{GameID: "g1"})
	s.SetPlayerColor("w")

	s.SetCurrentGame("g1")
	assert.NotNil(t, s.GetGameState())

	s.SetCurrentGame("g2")
	assert.Nil(t, s.GetGameState())
	assert.Empty(t, s.GetPlayerColor())

	s.SetGameState("not a game")
	assert.Nil(t, s.GetGameState())
}

func TestSetAuthTokenReachesClient(t *testing.T) {
	s := New("http://localhost:8080")
	s.SetAuthToken("tok")
	assert.Equal(t, "tok", s.Client.AuthToken)
	s.SetAuthToken("")
	assert.Empty(t, s.Client.AuthToken)
}

// fakeServer plays a fixed promotion scenario
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	pending := &api.PromotionInfo{From: "a7", To: "a8", Piece: "wp"}
	var promotedWith string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/games", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.GameResponse{
			GameID:           "3f0c8a52-5d3e-4d1a-9a57-6b8e2b0c1d11",
			Turn:             "w",
			State:            "active",
			CurrentMoveIndex: -1,
			Players:          api.PlayersResponse{White: "u1"},
		})
	})
	mux.HandleFunc("POST /api/v1/games/{id}/moves", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(api.GameResponse{
			GameID:           r.PathValue("id"),
			Turn:             "w",
			State:            "active",
			CurrentMoveIndex: -1,
			Pending:          pending,
		})
	})
	mux.HandleFunc("POST /api/v1/games/{id}/promotion", func(w http.ResponseWriter, r *http.Request) {
		var req api.PromotionRequest
		json.NewDecoder(r.Body).Decode(&req)
		promotedWith = req.Piece
		move := api.MoveInfo{From: req.From, To: req.To, Piece: "wp", Notation: "a7a8" + req.Piece, Special: "promotion", PromotedTo: "w" + req.Piece}
		json.NewEncoder(w).Encode(api.GameResponse{
			GameID:           r.PathValue("id"),
			Turn:             "b",
			State:            "active",
			CurrentMoveIndex: 0,
			Moves:            []api.MoveInfo{move},
			LastMove:         &move,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		assert.Equal(t, "r", promotedWith)
	})
	return srv
}

func TestRegistryPromotionFlow(t *testing.T) {
	srv := fakeServer(t)
	s := New(srv.URL)
	s.Client.Out = io.Discard
	s.SetCurrentUser("u1")

	r := commands.NewRegistry(s)

	r.Execute("new a7=wp e1=wk e8=bk")
	require.Equal(t, "3f0c8a52-5d3e-4d1a-9a57-6b8e2b0c1d11", s.GetCurrentGame())
	assert.Equal(t, "w", s.GetPlayerColor())
	assert.Equal(t, 0, s.GetLastMoveCount())

	r.Execute("move a7 a8")
	require.NotNil(t, s.GetGameState())
	require.NotNil(t, s.GetGameState().Pending)

	r.Execute("promote r")
	assert.Nil(t, s.GetGameState().Pending)
	assert.Equal(t, 1, s.GetLastMoveCount())
	assert.Equal(t, "b", s.GetGameState().Turn)
}

func TestRegistryJoinTakesSeatOrWatches(t *testing.T) {
	const full = "9b1d2c3e-0000-4000-8000-000000000001"
	const open = "9b1d2c3e-0000-4000-8000-000000000002"
	var joins int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/games/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		joins++
		if r.PathValue("id") == full {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "both sides are taken", Code: "GAME_FULL"})
			return
		}
		json.NewEncoder(w).Encode(api.GameResponse{
			GameID: r.PathValue("id"), Turn: "w", State: "active", CurrentMoveIndex: -1,
			Players: api.PlayersResponse{White: "u0", Black: "u1"},
		})
	})
	mux.HandleFunc("GET /api/v1/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.GameResponse{
			GameID: r.PathValue("id"), Turn: "b", State: "active", CurrentMoveIndex: 0,
			Moves:   []api.MoveInfo{{From: "e2", To: "e4", Piece: "wp", Notation: "e2e4"}},
			Players: api.PlayersResponse{White: "u0", Black: "u2"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(srv.URL)
	s.Client.Out = io.Discard
	r := commands.NewRegistry(s)

	// anonymous users only watch
	r.Execute("join " + open)
	assert.Equal(t, 0, joins)
	assert.Equal(t, open, s.GetCurrentGame())
	assert.Equal(t, 1, s.GetLastMoveCount())

	s.SetAuthToken("token")
	s.SetCurrentUser("u1")
	r.Execute("join " + open)
	assert.Equal(t, 1, joins)
	assert.Equal(t, "b", s.GetPlayerColor())

	r.Execute("j " + full)
	assert.Equal(t, 2, joins)
	assert.Equal(t, full, s.GetCurrentGame())
	assert.Empty(t, s.GetPlayerColor())
	assert.Equal(t, "b", s.GetGameState().Turn)
}
