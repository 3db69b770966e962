package models

import "github.com/google/uuid"

// Player is a lobby member. Players are never hard-deleted: "removal" only
// flips IsOnline so historical votes, bets and hints keep their references.
type Player struct {
	ID       uuid.UUID `json:"id"`
	LobbyID  uuid.UUID `json:"lobby_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	IsOnline bool      `json:"is_online"`
}
