// internal/engine/state.go
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

// Snapshot is the authoritative lobby state a reconnecting client replaces
// its local mirror with. Secret fields (word, imposter) are filtered per
// viewer; they open up once the round completes.
type Snapshot struct {
	Lobby   *models.Lobby    `json:"lobby"`
	Players []*models.Player `json:"players"`
	Round   *models.Round    `json:"round,omitempty"`
	Hints   []*models.Hint   `json:"hints,omitempty"`

	ActivePlayer uuid.UUID   `json:"active_player,omitempty"`
	Voted        []uuid.UUID `json:"voted,omitempty"`
	Bet          []uuid.UUID `json:"bet,omitempty"`

	YourRole string `json:"your_role,omitempty"`
	YourWord string `json:"your_word,omitempty"`
	Word     string `json:"word,omitempty"`
	Category string `json:"category,omitempty"`
	Imposter string `json:"imposter_id,omitempty"`
}

// State assembles the snapshot for one viewer.
func (e *Engine) State(ctx context.Context, lobbyID, viewerID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{}
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		lobby, err := tx.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		snap.Lobby = lobby
		if snap.Players, err = tx.PlayersByLobby(lobbyID); err != nil {
			return err
		}
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			if errors.Is(err, ErrNoActiveRound) {
				return nil
			}
			return err
		}
		snap.Round = round
		snap.Category = round.Category
		if round.Status == models.StatusInProgress {
			snap.ActivePlayer = ActivePlayer(round.TurnOrder, round.CurrentTurn)
		}
		if snap.Hints, err = tx.HintsByRound(round.ID); err != nil {
			return err
		}
		votes, err := tx.VotesByRound(round.ID)
		if err != nil {
			return err
		}
		for _, v := range votes {
			snap.Voted = append(snap.Voted, v.VoterID)
		}
		bets, err := tx.BetsByRound(round.ID)
		if err != nil {
			return err
		}
		for _, b := range bets {
			snap.Bet = append(snap.Bet, b.BettorID)
		}

		if viewerID == round.ImposterID {
			snap.YourRole = "imposter"
		} else {
			snap.YourRole = "civilian"
			snap.YourWord = round.Word
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
