// internal/models/vote.go
package models

import "github.com/google/uuid"

// Vote is one player's accusation for a round. Unique per (RoundID, VoterID);
// the store enforces the constraint so concurrent duplicates race to a single
// winner.
type Vote struct {
	RoundID   uuid.UUID `json:"round_id"`
	VoterID   uuid.UUID `json:"voter_id"`
	SuspectID uuid.UUID `json:"suspect_id"`
}
