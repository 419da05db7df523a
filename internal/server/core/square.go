package core

import (
	"encoding/json"
	"fmt"
)

// Square indexes the board from a1 (0) to h8 (63), rank-major
type Square int8

const NoSquare Square = -1

// NewSquare builds a square from 0-based file and rank
func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// MustSquare parses s and panics on malformed input
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

// File returns the 0-based file (a=0)
func (s Square) File() int {
	return int(s) % 8
}

// Rank returns the 0-based rank (rank 1 = 0)
func (s Square) Rank() int {
	return int(s) / 8
}

// Offset returns the square shifted by df files and dr ranks, or NoSquare off the board
func (s Square) Offset(df, dr int) Square {
	return NewSquare(s.File()+df, s.Rank()+dr)
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

func (s Square) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Square) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sq, err := ParseSquare(str)
	if err != nil {
		return err
	}
	*s = sq
	return nil
}
