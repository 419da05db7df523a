package board

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luchess/internal/server/core"
)

func TestStart(t *testing.T) {
	b := Start()

	assert.Equal(t, 32, b.Count())
	assert.Equal(t, core.NewPiece(core.ColorWhite, core.King), b.Get(core.MustSquare("e1")))
	assert.Equal(t, core.NewPiece(core.ColorBlack, core.Queen), b.Get(core.MustSquare("d8")))
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR", b.Placement())

	sq, found := b.FindKing(core.ColorBlack)
	require.True(t, found)
	assert.Equal(t, "e8", sq.String())
}

func TestFromMap(t *testing.T) {
	b, err := FromMap(map[string]string{"e1": "wk", "e8": "bk", "d4": "wq"})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, "4k3/8/8/8/3Q4/8/8/4K3", b.Placement())

	_, err = FromMap(map[string]string{"z9": "wk"})
	assert.Error(t, err)
	_, err = FromMap(map[string]string{"e1": "wx"})
	assert.Error(t, err)
	_, err = FromMap(map[string]string{"e1": "WK"})
	assert.Error(t, err)
}

func TestCopySemantics(t *testing.T) {
	b := Start()
	c := b
	c.Move(core.MustSquare("e2"), core.MustSquare("e4"))

	assert.False(t, b.Get(core.MustSquare("e2")).IsEmpty())
	assert.True(t, c.Get(core.MustSquare("e2")).IsEmpty())
	assert.NotEqual(t, b.Key(), c.Key())
}

func TestOffBoardAccess(t *testing.T) {
	b := Empty()
	b.Set(core.NoSquare, core.NewPiece(core.ColorWhite, core.Rook))
	assert.Equal(t, 0, b.Count())
	assert.True(t, b.Get(core.NoSquare).IsEmpty())

	_, found := b.FindKing(core.ColorWhite)
	assert.False(t, found)
}

func TestASCII(t *testing.T) {
	b := Start()
	lines := strings.Split(strings.TrimRight(b.ASCII(), "\n"), "\n")

	require.Len(t, lines, 10)
	assert.Equal(t, "  a b c d e f g h", lines[0])
	assert.Equal(t, "8 r n b q k b n r 8", lines[1])
	assert.Equal(t, "4 . . . . . . . . 4", lines[5])
	assert.Equal(t, "1 R N B Q K B N R 1", lines[8])
	assert.Equal(t, lines[0], lines[9])
}

func TestJSON(t *testing.T) {
	b, err := FromMap(map[string]string{"e1": "wk", "e8": "bk"})
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"e1":"wk","e8":"bk"}`, string(data))

	var decoded Board
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, decoded)
}
