// internal/models/bet.go
package models

import "github.com/google/uuid"

// Bet is a wager that TargetID is the imposter. Unique per (RoundID,
// BettorID). Payout stays nil until the round settles: gross 2x the stake on
// a win, 0 on a loss or refund, -amount when forfeited by removal.
type Bet struct {
	RoundID  uuid.UUID `json:"round_id"`
	BettorID uuid.UUID `json:"bettor_id"`
	TargetID uuid.UUID `json:"target_id"`
	Amount   int       `json:"amount"`
	Payout   *int      `json:"payout,omitempty"`
	Won      bool      `json:"won"`
}
