// internal/engine/events.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// EventType is an enum-like type for broadcasting round events.
type EventType string

const (
	EventRoleAssigned       EventType = "role_assigned" // private, per player
	EventGameStarted        EventType = "game_started"
	EventHintSubmitted      EventType = "hint_submitted"
	EventTurnChanged        EventType = "turn_changed"
	EventBettingStarted     EventType = "betting_started"
	EventVotingStarted      EventType = "voting_started"
	EventVoteCast           EventType = "vote_cast"
	EventBetPlaced          EventType = "bet_placed"
	EventVotingComplete     EventType = "voting_complete"
	EventBetResults         EventType = "bet_results"
	EventRoundResults       EventType = "round_results"
	EventGameOver           EventType = "game_over"
	EventPlayerRemoved      EventType = "player_removed"
	EventHostChanged        EventType = "host_changed"
	EventEmergencyInitiated EventType = "emergency_vote_initiated"
	EventEmergencyStarted   EventType = "emergency_voting_started"
	EventGameRestarted      EventType = "game_restarted"
)

// Event is the wire shape for one outbound notification.
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Outbound pairs an event with the topic it should be published on. Events
// are collected inside the transaction and published only after it commits.
type Outbound struct {
	Topic string
	Event Event
}

// LobbyTopic is the public channel every member of a lobby subscribes to.
func LobbyTopic(lobbyID uuid.UUID) string {
	return fmt.Sprintf("lobby:%s", lobbyID)
}

// PlayerTopic is the private channel for one player (role reveals, turn
// prompts).
func PlayerTopic(lobbyID, playerID uuid.UUID) string {
	return fmt.Sprintf("lobby:%s:player:%s", lobbyID, playerID)
}

// Broadcaster delivers committed events to clients. Publish is
// fire-and-forget, at-least-once, with no cross-topic ordering guarantee; the
// engine never blocks on delivery to decide internal state.
type Broadcaster interface {
	Publish(topic string, ev Event)
}

// WordSupplier hands out the secret word for a new round.
type WordSupplier interface {
	NextWord() (word, category string)
}
