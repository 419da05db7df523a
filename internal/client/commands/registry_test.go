package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luchess/internal/client/api"
)

// nopSession satisfies Session for registry wiring; handlers never run
type nopSession struct{}

func (nopSession) GetAPIBaseURL() string           { return "" }
func (nopSession) SetAPIBaseURL(string)            {}
func (nopSession) GetCurrentGame() string          { return "" }
func (nopSession) SetCurrentGame(string)           {}
func (nopSession) GetCurrentUser() string          { return "" }
func (nopSession) SetCurrentUser(string)           {}
func (nopSession) GetAuthToken() string            { return "" }
func (nopSession) SetAuthToken(string)             {}
func (nopSession) GetUsername() string             { return "" }
func (nopSession) SetUsername(string)              {}
func (nopSession) GetLastMoveCount() int           { return 0 }
func (nopSession) SetLastMoveCount(int)            {}
func (nopSession) GetClient() any                  { return nil }
func (nopSession) IsVerbose() bool                 { return false }
func (nopSession) SetGameState(any)                {}
func (nopSession) GetGameState() *api.GameResponse { return nil }
func (nopSession) SetPlayerColor(string)           {}
func (nopSession) GetPlayerColor() string          { return "" }

func names(cmds []*Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

func TestRegistryGroups(t *testing.T) {
	r := NewRegistry(nopSession{})

	assert.Equal(t, []string{"new", "join", "delete", "poll"}, names(r.Group(GroupGame)))
	assert.Equal(t, []string{"move", "promote", "moves", "show", "state"}, names(r.Group(GroupPlay)))
	assert.Equal(t, []string{"undo", "redo"}, names(r.Group(GroupHistory)))
	assert.Equal(t, []string{"register", "login", "logout", "whoami"}, names(r.Group(GroupAccount)))
	assert.Equal(t, []string{"health", "url", "raw", "clear", "help", "exit"}, names(r.Group(GroupUtility)))

	// every registered command lands in a help group
	total := 0
	for _, g := range groupOrder {
		total += len(r.Group(g))
	}
	assert.Equal(t, len(r.ordered), total)
}

func TestRegistryAliasesAreUnique(t *testing.T) {
	r := NewRegistry(nopSession{})
	seen := map[string]string{}
	for _, cmd := range r.ordered {
		require.NotEmpty(t, cmd.ShortName, cmd.Name)
		if prev, dup := seen[cmd.ShortName]; dup {
			t.Errorf("alias %q used by %s and %s", cmd.ShortName, prev, cmd.Name)
		}
		seen[cmd.ShortName] = cmd.Name

		got, ok := r.Lookup(cmd.ShortName)
		require.True(t, ok)
		assert.Same(t, cmd, got)
	}
}

func TestHelpOutput(t *testing.T) {
	r := NewRegistry(nopSession{})
	var buf bytes.Buffer
	r.out = &buf

	r.Execute("help")
	out := buf.String()
	for _, g := range groupOrder {
		assert.Contains(t, out, g+":")
	}
	assert.Contains(t, out, "promote")

	buf.Reset()
	r.Execute("? j")
	assert.Contains(t, buf.String(), "Usage: join <gameId>")

	buf.Reset()
	r.Execute("castle")
	assert.Contains(t, buf.String(), "Unknown command: castle")
}

func TestDescribeError(t *testing.T) {
	err := &api.StatusError{StatusCode: 409, Code: "GAME_FULL", Message: "both sides are taken"}
	assert.Equal(t, "both sides are taken (409)", describeError(err))
	assert.Equal(t, "request failed with status 500", describeError(&api.StatusError{StatusCode: 500}))
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{"localhost:8080", "http://localhost:8080", false},
		{"https://chess.example.com/api/v1", "https://chess.example.com", false},
		{"http://127.0.0.1:9000/", "http://127.0.0.1:9000", false},
		{"ftp://host", "", true},
		{"http://", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeBaseURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
