// Package board holds the 64-square position value shared by the rules and
// the game session.
package board

import (
	"encoding/json"
	"fmt"
	"strings"

	"luchess/internal/server/core"
)

// Board maps every square to a piece or the empty value. It is a plain array
// so assignment copies the whole position.
type Board [64]core.Piece

var backRank = [8]core.Kind{
	core.Rook, core.Knight, core.Bishop, core.Queen,
	core.King, core.Bishop, core.Knight, core.Rook,
}

// Start returns the standard starting position
func Start() Board {
	var b Board
	for f := 0; f < 8; f++ {
		b[core.NewSquare(f, 0)] = core.NewPiece(core.ColorWhite, backRank[f])
		b[core.NewSquare(f, 1)] = core.NewPiece(core.ColorWhite, core.Pawn)
		b[core.NewSquare(f, 6)] = core.NewPiece(core.ColorBlack, core.Pawn)
		b[core.NewSquare(f, 7)] = core.NewPiece(core.ColorBlack, backRank[f])
	}
	return b
}

// Empty returns a board with no pieces
func Empty() Board {
	return Board{}
}

// FromMap builds a board from square/piece tokens such as {"e1": "wk"}
func FromMap(m map[string]string) (Board, error) {
	var b Board
	for sqStr, pieceStr := range m {
		sq, err := core.ParseSquare(sqStr)
		if err != nil {
			return b, err
		}
		p, err := core.ParsePiece(pieceStr)
		if err != nil {
			return b, err
		}
		b[sq] = p
	}
	return b, nil
}

func (b *Board) Get(sq core.Square) core.Piece {
	if !sq.Valid() {
		return core.NoPiece
	}
	return b[sq]
}

func (b *Board) Set(sq core.Square, p core.Piece) {
	if sq.Valid() {
		b[sq] = p
	}
}

func (b *Board) Clear(sq core.Square) {
	b.Set(sq, core.NoPiece)
}

// Move relocates whatever stands on from to to, with no side effects
func (b *Board) Move(from, to core.Square) {
	p := b.Get(from)
	b.Clear(from)
	b.Set(to, p)
}

// FindKing returns the square of the given color's king
func (b *Board) FindKing(c core.Color) (core.Square, bool) {
	for sq, p := range b {
		if p.Is(c, core.King) {
			return core.Square(sq), true
		}
	}
	return core.NoSquare, false
}

// Count returns the number of occupied squares
func (b *Board) Count() int {
	n := 0
	for _, p := range b {
		if !p.IsEmpty() {
			n++
		}
	}
	return n
}

// Key serializes the occupancy of every square. Equal keys mean equal
// positions for repetition purposes.
func (b *Board) Key() string {
	var sb strings.Builder
	sb.Grow(64)
	for _, p := range b {
		if p.IsEmpty() {
			sb.WriteByte('.')
			continue
		}
		sb.WriteByte(p.FENLetter())
	}
	return sb.String()
}

// Placement returns the piece-placement field of a FEN record
func (b *Board) Placement() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			p := b[core.NewSquare(f, r)]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.FENLetter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ASCII renders the board from white's side, rank 8 first, with file letters
// above and below
func (b *Board) ASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for r := 7; r >= 0; r-- {
		sb.WriteString(fmt.Sprintf("%d ", r+1))
		for f := 0; f < 8; f++ {
			p := b[core.NewSquare(f, r)]
			if p.IsEmpty() {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(p.FENLetter())
			}
			if f < 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", r+1))
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

// Map returns the occupied squares as square/piece tokens
func (b *Board) Map() map[string]string {
	m := make(map[string]string, 32)
	for sq, p := range b {
		if !p.IsEmpty() {
			m[core.Square(sq).String()] = p.String()
		}
	}
	return m
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Map())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
