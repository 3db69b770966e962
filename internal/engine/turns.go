// internal/engine/turns.go
package engine

import "github.com/google/uuid"

// hintPasses is how many full passes of the turn order the hint phase runs.
const hintPasses = 2

// ActivePlayer returns the player whose hint turn it is. Total over its
// domain: an empty turn order means no active player (uuid.Nil).
func ActivePlayer(turnOrder []uuid.UUID, currentTurn int) uuid.UUID {
	if len(turnOrder) == 0 {
		return uuid.Nil
	}
	return turnOrder[currentTurn%len(turnOrder)]
}

// hintsComplete reports whether advancing past currentTurn finishes the hint
// phase: every player has had exactly hintPasses opportunities.
func hintsComplete(turnOrder []uuid.UUID, currentTurn int) bool {
	return currentTurn+1 >= hintPasses*len(turnOrder)
}
