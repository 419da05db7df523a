package rules

import "luchess/internal/server/core"

// ValidateKnight accepts the eight L-shaped jumps. Knights are never blocked.
func ValidateKnight(from, to core.Square) Result {
	df := abs(to.File() - from.File())
	dr := abs(to.Rank() - from.Rank())
	if (df == 1 && dr == 2) || (df == 2 && dr == 1) {
		return accept()
	}
	return reject("Knight can only move in an L-shape")
}
