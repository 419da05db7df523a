package core

import (
	"encoding/json"
	"fmt"
)

type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

// Opposite returns the other side
func (c Color) Opposite() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

func (c Color) String() string {
	return string(c)
}

// Name returns the lowercase color name used in rejection messages
func (c Color) Name() string {
	if c == ColorWhite {
		return "white"
	}
	return "black"
}

// Title returns the capitalized color name
func (c Color) Title() string {
	if c == ColorWhite {
		return "White"
	}
	return "Black"
}

func (c Color) Valid() bool {
	return c == ColorWhite || c == ColorBlack
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "w", "white":
		return ColorWhite, nil
	case "b", "black":
		return ColorBlack, nil
	}
	return 0, fmt.Errorf("invalid color: %q", s)
}

type Kind byte

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: '-', Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

// Letter returns the lowercase piece letter
func (k Kind) Letter() byte {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return '?'
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// KindFromLetter maps p, n, b, r, q, k (either case) to a Kind
func KindFromLetter(ch byte) (Kind, bool) {
	if ch >= 'A' && ch <= 'Z' {
		ch += 'a' - 'A'
	}
	for k, l := range kindLetters {
		if k != int(NoKind) && l == ch {
			return Kind(k), true
		}
	}
	return NoKind, false
}

// Piece is a (color, kind) pair. The zero value is an empty square.
type Piece struct {
	Color Color
	Kind  Kind
}

// NoPiece is the empty square
var NoPiece = Piece{}

func NewPiece(c Color, k Kind) Piece {
	return Piece{Color: c, Kind: k}
}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

// Is reports whether p has the given color and kind
func (p Piece) Is(c Color, k Kind) bool {
	return p.Color == c && p.Kind == k
}

// String returns the two-letter token ("wp", "bk"), or "" for an empty square
func (p Piece) String() string {
	if p.IsEmpty() {
		return ""
	}
	return string([]byte{byte(p.Color), p.Kind.Letter()})
}

// FENLetter returns the piece letter in FEN case: uppercase for white
func (p Piece) FENLetter() byte {
	l := p.Kind.Letter()
	if p.Color == ColorWhite {
		return l - ('a' - 'A')
	}
	return l
}

// ParsePiece parses the two-letter token produced by String
func ParsePiece(s string) (Piece, error) {
	if len(s) != 2 {
		return NoPiece, fmt.Errorf("invalid piece: %q", s)
	}
	c := Color(s[0])
	if !c.Valid() {
		return NoPiece, fmt.Errorf("invalid piece color: %q", s)
	}
	k, ok := KindFromLetter(s[1])
	if !ok || s[1] < 'a' {
		return NoPiece, fmt.Errorf("invalid piece kind: %q", s)
	}
	return Piece{Color: c, Kind: k}, nil
}

func (p Piece) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

func (p *Piece) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NoPiece
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePiece(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
