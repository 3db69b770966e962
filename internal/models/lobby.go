// internal/models/lobby.go
package models

import "github.com/google/uuid"

// Lobby represents a row in the lobbies table. The host user holds the
// administration rights: start round, restart game, remove players.
type Lobby struct {
	ID           uuid.UUID `json:"id"`
	HostID       uuid.UUID `json:"host_id"`
	Name         string    `json:"name"`
	Private      bool      `json:"private"`
	PasscodeHash string    `json:"-"`

	// Settings holds the host-configurable game options, see settings.go.
	Settings LobbySettings `json:"settings"`
}
