// internal/engine/betting.go
package engine

import (
	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

const (
	minBetAmount = 1
	maxBetAmount = 3
	// betWinMultiplier is the gross payout factor on a winning bet: the
	// stake comes back doubled. The net score delta is +stake.
	betWinMultiplier = 2
)

// validateBet checks every placement rule except uniqueness, which the store
// constraint enforces at insert time.
func validateBet(round *models.Round, bettor *models.Player, targetID uuid.UUID, amount int) error {
	if round.Status != models.StatusBetting && round.Status != models.StatusVoting {
		return ErrWrongPhase
	}
	if bettor.ID == round.ImposterID {
		return ErrImposterBet
	}
	if bettor.ID == targetID {
		return ErrSelfBet
	}
	if amount < minBetAmount || amount > maxBetAmount {
		return ErrBetAmountRange
	}
	if bettor.Score < amount {
		return ErrInsufficientScore
	}
	return nil
}

// settleBets resolves every still-open bet for the round: winners bet on the
// imposter. Bets already carrying a payout (forfeited or refunded during a
// removal) are left alone. Runs inside the same transaction that commits the
// completing vote, so it executes exactly once per round.
func settleBets(tx Tx, round *models.Round) ([]map[string]interface{}, error) {
	bets, err := tx.BetsByRound(round.ID)
	if err != nil {
		return nil, err
	}
	results := make([]map[string]interface{}, 0, len(bets))
	for _, b := range bets {
		if b.Payout != nil {
			continue
		}
		won := b.TargetID == round.ImposterID
		payout := 0
		delta := -b.Amount
		if won {
			payout = b.Amount * betWinMultiplier
			delta = b.Amount
		}
		if err := tx.SetBetPayout(round.ID, b.BettorID, payout, won); err != nil {
			return nil, err
		}
		if err := tx.AddScore(b.BettorID, delta); err != nil {
			return nil, err
		}
		results = append(results, map[string]interface{}{
			"bettor_id": b.BettorID.String(),
			"target_id": b.TargetID.String(),
			"amount":    b.Amount,
			"payout":    payout,
			"won":       won,
		})
	}
	return results, nil
}

// betQuorumMet reports whether every online player eligible to bet has one
// committed. The imposter never bets, so they are excluded.
func betQuorumMet(bets []*models.Bet, players []*models.Player, imposterID uuid.UUID) bool {
	eligible := make(map[uuid.UUID]bool)
	total := 0
	for _, p := range players {
		if p.IsOnline && p.ID != imposterID {
			eligible[p.ID] = true
			total++
		}
	}
	if total == 0 {
		return false
	}
	committed := 0
	for _, b := range bets {
		if eligible[b.BettorID] {
			committed++
		}
	}
	return committed >= total
}
