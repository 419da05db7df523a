// Package rules decides move legality, resolves special moves and detects
// terminal positions. Every function here is pure: it reads the board and
// history it is given and never mutates them.
package rules

import (
	"encoding/json"
	"fmt"

	"luchess/internal/server/core"
)

const (
	// MaxMovesToCheck bounds the repetition lookback
	MaxMovesToCheck = 8
	// ThreefoldRepetitionCount is the occurrence count that ends the game
	ThreefoldRepetitionCount = 3
	// FiftyMoveHalfMoves is fifty moves per side
	FiftyMoveHalfMoves = 100
)

type SpecialKind int

const (
	EnPassant SpecialKind = iota + 1
	Castling
	Promotion
)

func (k SpecialKind) String() string {
	switch k {
	case EnPassant:
		return "enPassant"
	case Castling:
		return "castling"
	case Promotion:
		return "promotion"
	default:
		return ""
	}
}

func ParseSpecialKind(s string) (SpecialKind, error) {
	switch s {
	case "enPassant":
		return EnPassant, nil
	case "castling":
		return Castling, nil
	case "promotion":
		return Promotion, nil
	}
	return 0, fmt.Errorf("invalid special move: %q", s)
}

// SpecialMove is the side effect attached to a move. Only the fields of its
// Kind are set; use the constructors.
type SpecialMove struct {
	Kind SpecialKind
	// EnPassant: square of the pawn taken
	Captured core.Square
	// Castling: rook relocation
	RookFrom core.Square
	RookTo   core.Square
	// Promotion: replacement piece
	PromotedTo core.Piece
}

func NewEnPassant(captured core.Square) *SpecialMove {
	return &SpecialMove{Kind: EnPassant, Captured: captured, RookFrom: core.NoSquare, RookTo: core.NoSquare}
}

func NewCastling(rookFrom, rookTo core.Square) *SpecialMove {
	return &SpecialMove{Kind: Castling, Captured: core.NoSquare, RookFrom: rookFrom, RookTo: rookTo}
}

func NewPromotion(promotedTo core.Piece) *SpecialMove {
	return &SpecialMove{Kind: Promotion, Captured: core.NoSquare, RookFrom: core.NoSquare, RookTo: core.NoSquare, PromotedTo: promotedTo}
}

type specialJSON struct {
	Type                string       `json:"type"`
	CapturedPieceSquare *core.Square `json:"capturedPieceSquare,omitempty"`
	RookFromSquare      *core.Square `json:"rookFromSquare,omitempty"`
	RookToSquare        *core.Square `json:"rookToSquare,omitempty"`
	PromotedTo          *core.Piece  `json:"promotedTo,omitempty"`
}

func (s SpecialMove) MarshalJSON() ([]byte, error) {
	out := specialJSON{Type: s.Kind.String()}
	switch s.Kind {
	case EnPassant:
		out.CapturedPieceSquare = &s.Captured
	case Castling:
		out.RookFromSquare = &s.RookFrom
		out.RookToSquare = &s.RookTo
	case Promotion:
		out.PromotedTo = &s.PromotedTo
	default:
		return nil, fmt.Errorf("unknown special move kind %d", s.Kind)
	}
	return json.Marshal(out)
}

func (s *SpecialMove) UnmarshalJSON(data []byte) error {
	var in specialJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseSpecialKind(in.Type)
	if err != nil {
		return err
	}
	switch kind {
	case EnPassant:
		if in.CapturedPieceSquare == nil {
			return fmt.Errorf("enPassant requires capturedPieceSquare")
		}
		*s = *NewEnPassant(*in.CapturedPieceSquare)
	case Castling:
		if in.RookFromSquare == nil || in.RookToSquare == nil {
			return fmt.Errorf("castling requires rookFromSquare and rookToSquare")
		}
		*s = *NewCastling(*in.RookFromSquare, *in.RookToSquare)
	case Promotion:
		if in.PromotedTo == nil {
			return fmt.Errorf("promotion requires promotedTo")
		}
		*s = *NewPromotion(*in.PromotedTo)
	}
	return nil
}

// Move is one history entry
type Move struct {
	From    core.Square  `json:"from"`
	To      core.Square  `json:"to"`
	Piece   core.Piece   `json:"piece"`
	Capture bool         `json:"capture,omitempty"`
	Special *SpecialMove `json:"specialMove,omitempty"`
}

// Notation returns the coordinate form, "e2e4" or "e7e8q"
func (m Move) Notation() string {
	s := m.From.String() + m.To.String()
	if m.Special != nil && m.Special.Kind == Promotion {
		s += string(m.Special.PromotedTo.Kind.Letter())
	}
	return s
}

// Result is the outcome of a validation. Rejections carry a message.
type Result struct {
	Valid   bool
	Message string
	Special *SpecialMove
}

func accept() Result {
	return Result{Valid: true}
}

func acceptSpecial(s *SpecialMove) Result {
	return Result{Valid: true, Special: s}
}

func reject(msg string) Result {
	return Result{Message: msg}
}
