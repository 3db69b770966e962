// internal/models/hint.go
package models

import "github.com/google/uuid"

// Hint is one word-association clue given during the hint phase. TurnIndex is
// the round's CurrentTurn at submission time.
type Hint struct {
	RoundID   uuid.UUID `json:"round_id"`
	PlayerID  uuid.UUID `json:"player_id"`
	Text      string    `json:"text"`
	TurnIndex int       `json:"turn_index"`
}
