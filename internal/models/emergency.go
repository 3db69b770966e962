// internal/models/emergency.go
package models

import "github.com/google/uuid"

// EmergencyVote records the one-shot early vote a civilian can trigger during
// the hint phase. Unique per RoundID: a second initiation attempt loses the
// insert race and surfaces as "already in progress".
type EmergencyVote struct {
	RoundID     uuid.UUID `json:"round_id"`
	InitiatorID uuid.UUID `json:"initiator_id"`
}
