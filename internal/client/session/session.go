// Package session holds the REPL client's state between commands.
package session

import (
	"luchess/internal/client/api"
)

// Session implements commands.Session
type Session struct {
	APIBaseURL       string
	Client           *api.Client
	Verbose          bool
	CurrentGame      string
	CurrentGameState *api.GameResponse
	CurrentUser      string
	Username         string
	AuthToken        string
	LastMoveCount    int
	PlayerColor      string
}

// New returns a session talking to baseURL
func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
	}
}

func (s *Session) GetAPIBaseURL() string { return s.APIBaseURL }

func (s *Session) SetAPIBaseURL(url string) { s.APIBaseURL = url }

func (s *Session) GetCurrentGame() string { return s.CurrentGame }

// SetCurrentGame switches games; the cached state belongs to the old one
func (s *Session) SetCurrentGame(id string) {
	if id != s.CurrentGame {
		s.CurrentGameState = nil
		s.PlayerColor = ""
	}
	s.CurrentGame = id
}

func (s *Session) GetCurrentUser() string { return s.CurrentUser }

func (s *Session) SetCurrentUser(id string) { s.CurrentUser = id }

func (s *Session) GetAuthToken() string { return s.AuthToken }

// SetAuthToken also updates the client so later requests carry the token
func (s *Session) SetAuthToken(token string) {
	s.AuthToken = token
	if s.Client != nil {
		s.Client.SetToken(token)
	}
}

func (s *Session) GetUsername() string { return s.Username }

func (s *Session) SetUsername(name string) { s.Username = name }

func (s *Session) GetLastMoveCount() int { return s.LastMoveCount }

func (s *Session) SetLastMoveCount(n int) { s.LastMoveCount = n }

func (s *Session) GetClient() any { return s.Client }

func (s *Session) IsVerbose() bool { return s.Verbose }

// SetGameState caches the last game response. Other types are ignored.
func (s *Session) SetGameState(state any) {
	if g, ok := state.(*api.GameResponse); ok {
		s.CurrentGameState = g
	}
}

func (s *Session) GetGameState() *api.GameResponse { return s.CurrentGameState }

func (s *Session) SetPlayerColor(color string) { s.PlayerColor = color }

func (s *Session) GetPlayerColor() string { return s.PlayerColor }
