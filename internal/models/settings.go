// internal/models/settings.go
package models

// LobbySettings captures the host-configurable game options for a lobby,
// copied onto each round when it starts.
type LobbySettings struct {
	// BettingEnabled opens a betting window between the hint and voting phases.
	BettingEnabled bool `json:"betting_enabled"`

	// MaxPlayers caps the lobby size (0 => no limit).
	MaxPlayers int `json:"max_players"`
}
