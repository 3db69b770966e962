// internal/models/round.go
package models

import "github.com/google/uuid"

// RoundStatus represents the phase of a round. Transitions follow a fixed
// directed graph and never move backward; see CanTransitionTo.
type RoundStatus string

const (
	StatusInProgress      RoundStatus = "IN_PROGRESS"
	StatusHintsComplete   RoundStatus = "HINTS_COMPLETE"
	StatusBetting         RoundStatus = "BETTING"
	StatusVoting          RoundStatus = "VOTING"
	StatusEmergencyVoting RoundStatus = "EMERGENCY_VOTING"
	StatusGuessing        RoundStatus = "GUESSING"
	StatusComplete        RoundStatus = "COMPLETE"
)

// String returns the string representation of the status.
func (s RoundStatus) String() string {
	return string(s)
}

// validTransitions is the exhaustive phase graph. Anything absent here is
// rejected by the engine.
var validTransitions = map[RoundStatus][]RoundStatus{
	StatusInProgress:      {StatusHintsComplete, StatusBetting, StatusVoting, StatusEmergencyVoting, StatusComplete},
	StatusHintsComplete:   {StatusBetting, StatusVoting, StatusEmergencyVoting, StatusComplete},
	StatusBetting:         {StatusVoting, StatusComplete},
	StatusVoting:          {StatusGuessing, StatusComplete},
	StatusEmergencyVoting: {StatusComplete},
	StatusGuessing:        {StatusComplete},
	StatusComplete:        {},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s RoundStatus) CanTransitionTo(target RoundStatus) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the round can no longer change.
func (s RoundStatus) Terminal() bool {
	return s == StatusComplete
}

// Round represents one word round in a lobby. The imposter is the lone player
// without the secret word. TurnOrder is a random permutation of the player ids
// at start time; the imposter is always a member of it.
type Round struct {
	ID          uuid.UUID   `json:"id"`
	LobbyID     uuid.UUID   `json:"lobby_id"`
	RoundNumber int         `json:"round_number"`
	Word        string      `json:"-"`
	Category    string      `json:"category"`
	ImposterID  uuid.UUID   `json:"-"`
	TurnOrder   []uuid.UUID `json:"turn_order"`
	CurrentTurn int         `json:"current_turn"`
	Status      RoundStatus `json:"status"`
}
