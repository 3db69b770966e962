// internal/engine/roster.go
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

// RemovePlayer marks a player offline and applies every mid-round adjustment
// as one atomic unit: round termination when the imposter leaves, turn-order
// splicing during hints, quorum re-checks during voting, bet forfeiture and
// refunds, and host transfer. Players are never hard-deleted, so historical
// votes, bets and hints stay referentially intact.
func (e *Engine) RemovePlayer(ctx context.Context, lobbyID, hostID, targetID uuid.UUID) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		lobby, err := tx.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		if lobby.HostID != hostID {
			return ErrNotHost
		}
		target, err := memberPlayer(tx, lobbyID, targetID)
		if err != nil {
			return err
		}
		if !target.IsOnline {
			return ErrInvalidInput
		}

		players, err := tx.PlayersByLobby(lobbyID)
		if err != nil {
			return err
		}
		online := 0
		for _, p := range players {
			if p.IsOnline {
				online++
			}
		}
		if online-1 < 3 {
			return ErrNotEnoughPlayers
		}

		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			if !errors.Is(err, ErrNoActiveRound) {
				return err
			}
			round = nil
			// Removal is disallowed while the latest round sits at COMPLETE;
			// before any round has run it is a plain kick.
			n, err := tx.RoundCount(lobbyID)
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrWrongPhase
			}
		}

		if err := tx.SetPlayerOnline(targetID, false); err != nil {
			return err
		}
		events = append(events, public(lobbyID, EventPlayerRemoved, map[string]interface{}{
			"player_id": targetID.String(),
			"name":      target.Name,
		}))

		if targetID == lobby.HostID {
			newHost, err := e.transferHost(tx, lobby, targetID, players)
			if err != nil {
				return err
			}
			events = append(events, public(lobbyID, EventHostChanged, map[string]interface{}{
				"host_id": newHost.String(),
			}))
		}

		if round == nil {
			return nil
		}

		// Open bets by the removed player forfeit their stake; open bets on
		// them are refunded flat.
		betResults, err := adjustBetsForRemoval(tx, round, targetID)
		if err != nil {
			return err
		}

		if targetID == round.ImposterID {
			return e.endRoundImposterGone(tx, round, players, betResults, &events)
		}

		if len(betResults) > 0 {
			events = append(events, public(lobbyID, EventBetResults, map[string]interface{}{
				"results": betResults,
			}))
		}

		switch round.Status {
		case models.StatusInProgress:
			return e.spliceTurnOrder(tx, round, targetID, &events)
		case models.StatusBetting:
			done, err := e.maybeCloseBetting(tx, round)
			if err != nil {
				return err
			}
			if done {
				events = append(events, public(lobbyID, EventVotingStarted, map[string]interface{}{
					"round_id": round.ID.String(),
				}))
			}
		case models.StatusVoting, models.StatusEmergencyVoting:
			// The quorum shrank; already-committed votes may now satisfy it.
			votes, err := tx.VotesByRound(round.ID)
			if err != nil {
				return err
			}
			remaining, err := tx.PlayersByLobby(lobbyID)
			if err != nil {
				return err
			}
			if !voteQuorumMet(votes, remaining) {
				return nil
			}
			if round.Status == models.StatusEmergencyVoting {
				return e.resolveEmergency(tx, round, remaining, votes, &events)
			}
			return e.resolveVoting(tx, round, remaining, votes, &events)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// transferHost hands the lobby to an arbitrary remaining online player.
func (e *Engine) transferHost(tx Tx, lobby *models.Lobby, leavingID uuid.UUID, players []*models.Player) (uuid.UUID, error) {
	for _, p := range players {
		if p.IsOnline && p.ID != leavingID {
			if err := tx.SetLobbyHost(lobby.ID, p.ID); err != nil {
				return uuid.Nil, err
			}
			return p.ID, nil
		}
	}
	return uuid.Nil, ErrNotEnoughPlayers
}

// adjustBetsForRemoval applies the removal rules to open bets: bets placed BY
// the removed player lose their stake immediately (payout -amount), bets
// placed ON them settle flat (payout 0, no score change).
func adjustBetsForRemoval(tx Tx, round *models.Round, removedID uuid.UUID) ([]map[string]interface{}, error) {
	bets, err := tx.BetsByRound(round.ID)
	if err != nil {
		return nil, err
	}
	var results []map[string]interface{}
	for _, b := range bets {
		if b.Payout != nil {
			continue
		}
		switch {
		case b.BettorID == removedID:
			if err := tx.SetBetPayout(round.ID, b.BettorID, -b.Amount, false); err != nil {
				return nil, err
			}
			if err := tx.AddScore(b.BettorID, -b.Amount); err != nil {
				return nil, err
			}
			results = append(results, map[string]interface{}{
				"bettor_id": b.BettorID.String(),
				"target_id": b.TargetID.String(),
				"amount":    b.Amount,
				"payout":    -b.Amount,
				"won":       false,
				"forfeit":   true,
			})
		case b.TargetID == removedID:
			if err := tx.SetBetPayout(round.ID, b.BettorID, 0, false); err != nil {
				return nil, err
			}
			results = append(results, map[string]interface{}{
				"bettor_id": b.BettorID.String(),
				"target_id": b.TargetID.String(),
				"amount":    b.Amount,
				"payout":    0,
				"won":       false,
				"refunded":  true,
			})
		}
	}
	return results, nil
}

// endRoundImposterGone terminates the round when the imposter is removed.
// During GUESSING it counts as forfeiture of the guess; in every other phase
// it is a civilian victory. Either way each online civilian scores a point.
func (e *Engine) endRoundImposterGone(tx Tx, round *models.Round, players []*models.Player, betResults []map[string]interface{}, events *[]Outbound) error {
	reason := "imposter left"
	caught := false
	if round.Status == models.StatusGuessing {
		reason = "forfeit"
		caught = true
	}
	if err := tx.TransitionRound(round.ID, round.Status, models.StatusComplete); err != nil {
		return err
	}

	s := newSettlement()
	creditOnlineCivilians(s, players, round.ImposterID, civilianCatchPoints)
	if err := s.apply(tx); err != nil {
		return err
	}

	// Any bets still open settle against the revealed imposter. Bets on the
	// imposter were just refunded above, so what is left loses.
	settled, err := settleBets(tx, round)
	if err != nil {
		return err
	}
	betResults = append(betResults, settled...)
	if len(betResults) > 0 {
		*events = append(*events, public(round.LobbyID, EventBetResults, map[string]interface{}{
			"results": betResults,
		}))
	}
	return e.finishRound(tx, round, s, reason, caught, events)
}

// spliceTurnOrder removes a player from the hint rotation. The unchanged turn
// counter naturally points at the next remaining player; when the removed
// seat sat strictly before the current one, the counter steps back to keep
// the relative position.
func (e *Engine) spliceTurnOrder(tx Tx, round *models.Round, removedID uuid.UUID, events *[]Outbound) error {
	idx := -1
	for i, id := range round.TurnOrder {
		if id == removedID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	curIdx := round.CurrentTurn % len(round.TurnOrder)
	newOrder := make([]uuid.UUID, 0, len(round.TurnOrder)-1)
	newOrder = append(newOrder, round.TurnOrder[:idx]...)
	newOrder = append(newOrder, round.TurnOrder[idx+1:]...)

	cur := round.CurrentTurn
	if idx < curIdx {
		cur--
	}
	if err := tx.SetRoundTurnOrder(round.ID, newOrder, cur); err != nil {
		return err
	}
	*events = append(*events, public(round.LobbyID, EventTurnChanged, map[string]interface{}{
		"active_player": ActivePlayer(newOrder, cur).String(),
		"current_turn":  cur,
	}))
	return nil
}
