// internal/engine/scoring.go
package engine

import (
	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

// Score deltas for the various round outcomes.
const (
	imposterEvadePoints    = 1 // imposter survives the vote
	imposterGuessPoints    = 2 // caught imposter guesses the word
	civilianCatchPoints    = 1 // civilians when the imposter is caught or leaves
	emergencyInitiatorWin  = 2
	emergencyCivilianWin   = 1
	emergencyInitiatorLoss = -1
)

// settlement accumulates the score deltas of one completion path and applies
// them through the store's atomic increment. Every mutation funnels through
// here; no caller ever writes a score directly.
type settlement struct {
	deltas map[uuid.UUID]int
	order  []uuid.UUID
}

func newSettlement() *settlement {
	return &settlement{deltas: make(map[uuid.UUID]int)}
}

func (s *settlement) add(playerID uuid.UUID, delta int) {
	if _, seen := s.deltas[playerID]; !seen {
		s.order = append(s.order, playerID)
	}
	s.deltas[playerID] += delta
}

// apply commits every accumulated delta inside the transaction.
func (s *settlement) apply(tx Tx) error {
	for _, id := range s.order {
		if d := s.deltas[id]; d != 0 {
			if err := tx.AddScore(id, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// payload renders the deltas for event payloads.
func (s *settlement) payload() map[string]int {
	out := make(map[string]int, len(s.deltas))
	for id, d := range s.deltas {
		out[id.String()] = d
	}
	return out
}

// creditOnlineCivilians awards delta to every online non-imposter player.
func creditOnlineCivilians(s *settlement, players []*models.Player, imposterID uuid.UUID, delta int) {
	for _, p := range players {
		if p.IsOnline && p.ID != imposterID {
			s.add(p.ID, delta)
		}
	}
}
