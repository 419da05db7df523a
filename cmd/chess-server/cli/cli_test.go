package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luchess/internal/server/export"
	"luchess/internal/server/storage"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := output
	output = &buf
	t.Cleanup(func() { output = prev })
	return &buf
}

func initDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chess.db")
	require.NoError(t, Run([]string{"init", "-path", path}))
	return path
}

func TestRunRequiresSubcommand(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, Run([]string{"bogus"}))
	assert.Error(t, Run([]string{"user"}))
	assert.Error(t, Run([]string{"query"}))
}

func TestUserCommands(t *testing.T) {
	out := captureOutput(t)
	path := initDB(t)

	require.NoError(t, Run([]string{"user", "add", "-path", path, "-username", "Admin", "-password", "password1"}))
	assert.Contains(t, out.String(), "Username: admin")

	assert.Error(t, Run([]string{"user", "add", "-path", path, "-username", "short", "-password", "abc"}))
	assert.Error(t, Run([]string{"user", "add", "-path", path, "-username", "x", "-hash", "not-a-hash"}))
	assert.Error(t, Run([]string{"user", "add", "-path", path, "-username", "admin", "-password", "password2"}))

	require.NoError(t, Run([]string{"user", "add", "-path", path, "-username", "guest", "-password", "password1", "-temp"}))
	require.NoError(t, Run([]string{"user", "set-password", "-path", path, "-username", "guest", "-password", "newpassword"}))

	out.Reset()
	require.NoError(t, Run([]string{"user", "list", "-path", path}))
	assert.Contains(t, out.String(), "admin")
	assert.Contains(t, out.String(), "temp")
	assert.Contains(t, out.String(), "Total users: 2")

	require.NoError(t, Run([]string{"user", "delete", "-path", path, "-username", "guest"}))
	assert.Error(t, Run([]string{"user", "delete", "-path", path, "-username", "guest"}))
}

func TestQueryMovesAndExport(t *testing.T) {
	out := captureOutput(t)
	path := initDB(t)

	store, err := storage.NewStore(path, false)
	require.NoError(t, err)
	start := time.Now().UTC()
	store.RecordNewGame(storage.GameRecord{GameID: "game-0001-abcdef", WhitePlayerID: "player-1", StartTimeUTC: start})
	store.RecordMove(storage.MoveRecord{
		GameID: "game-0001-abcdef", MoveNumber: 1, FromSquare: "e2", ToSquare: "e4", Piece: "wp",
		FENAfterMove: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		PlayerColor: "w", MoveTimeUTC: start,
	})
	// Close drains the write queue
	require.NoError(t, store.Close())

	require.NoError(t, Run([]string{"query", "-path", path}))
	assert.Contains(t, out.String(), "game-000...")
	assert.Contains(t, out.String(), "active")
	assert.Contains(t, out.String(), "Found 1 game(s)")

	out.Reset()
	require.NoError(t, Run([]string{"moves", "-path", path, "-gameId", "game-0001-abcdef"}))
	assert.Contains(t, out.String(), "e2e4")

	parquetPath := filepath.Join(t.TempDir(), "games.parquet")
	require.NoError(t, Run([]string{"export", "-path", path, "-out", parquetPath, "-parallel", "1"}))
	assert.Contains(t, out.String(), "Exported 1 game(s)")

	rows, err := export.ReadParquet(parquetPath, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "player-1", rows[0].White)
	require.Len(t, rows[0].Moves, 1)
	assert.Equal(t, "e4", rows[0].Moves[0].To)
}
