package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoveArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		from, to  string
		promotion string
		wantErr   bool
	}{
		{"joined", []string{"e2e4"}, "e2", "e4", "", false},
		{"split", []string{"e2", "e4"}, "e2", "e4", "", false},
		{"upper case", []string{"E2E4"}, "e2", "e4", "", false},
		{"promotion", []string{"e7e8q"}, "e7", "e8", "q", false},
		{"split promotion", []string{"b7", "a8n"}, "b7", "a8", "n", false},
		{"bad promotion piece", []string{"e7e8k"}, "", "", "", true},
		{"too short", []string{"e2"}, "", "", "", true},
		{"empty", nil, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, promotion, err := parseMoveArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.promotion, promotion)
		})
	}
}

func TestParsePositionArgs(t *testing.T) {
	req, err := parsePositionArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, req.Position)
	assert.Empty(t, req.Turn)

	req, err = parsePositionArgs([]string{"e1=wk", "E8=BK", "a7=wp", "turn=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"e1": "wk", "e8": "bk", "a7": "wp"}, req.Position)
	assert.Equal(t, "b", req.Turn)

	_, err = parsePositionArgs([]string{"e1"})
	assert.Error(t, err)

	_, err = parsePositionArgs([]string{"turn=x"})
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	n, err := parseCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = parseCount([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parseCount([]string{"0"})
	assert.Error(t, err)

	_, err = parseCount([]string{"two"})
	assert.Error(t, err)
}
