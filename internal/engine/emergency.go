// internal/engine/emergency.go
package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

// InitiateEmergencyVote lets a civilian cut the hint phase short and send the
// round straight into an all-hands vote. One per round: a second caller gets
// "already in progress", from the status check or, under a concurrent race,
// from the unique constraint on the emergency row.
func (e *Engine) InitiateEmergencyVote(ctx context.Context, lobbyID, initiatorID uuid.UUID) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			return err
		}
		if round.Status == models.StatusEmergencyVoting {
			return ErrEmergencyActive
		}
		if round.Status != models.StatusInProgress && round.Status != models.StatusHintsComplete {
			return ErrWrongPhase
		}
		initiator, err := memberPlayer(tx, lobbyID, initiatorID)
		if err != nil {
			return err
		}
		if !initiator.IsOnline {
			return ErrNotInLobby
		}
		if initiatorID == round.ImposterID {
			return ErrImposterPanic
		}
		if err := tx.InsertEmergencyVote(&models.EmergencyVote{
			RoundID:     round.ID,
			InitiatorID: initiatorID,
		}); err != nil {
			return err
		}
		// Normal turn progression freezes here.
		if err := tx.TransitionRound(round.ID, round.Status, models.StatusEmergencyVoting); err != nil {
			return err
		}
		events = append(events,
			public(lobbyID, EventEmergencyInitiated, map[string]interface{}{
				"initiator_id": initiatorID.String(),
			}),
			public(lobbyID, EventEmergencyStarted, map[string]interface{}{
				"round_id": round.ID.String(),
			}),
		)
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// resolveEmergency finishes an emergency vote with its asymmetric stakes. If
// the imposter is caught the initiator gets 2, every other civilian 1, and
// the imposter nothing; otherwise the initiator pays 1 and the imposter gains
// 1. The round always completes here: no guessing turn, no bet settlement.
func (e *Engine) resolveEmergency(tx Tx, round *models.Round, players []*models.Player, votes []*models.Vote, events *[]Outbound) error {
	ev, err := tx.EmergencyVoteByRound(round.ID)
	if err != nil {
		return err
	}
	tally := TallyVotes(votes)
	caught := tally.VotedOut != uuid.Nil && tally.VotedOut == round.ImposterID

	if err := tx.TransitionRound(round.ID, models.StatusEmergencyVoting, models.StatusComplete); err != nil {
		return err
	}

	s := newSettlement()
	if caught {
		s.add(ev.InitiatorID, emergencyInitiatorWin)
		for _, p := range players {
			if p.IsOnline && p.ID != round.ImposterID && p.ID != ev.InitiatorID {
				s.add(p.ID, emergencyCivilianWin)
			}
		}
	} else {
		s.add(ev.InitiatorID, emergencyInitiatorLoss)
		s.add(round.ImposterID, imposterEvadePoints)
	}
	if err := s.apply(tx); err != nil {
		return err
	}

	votedOut := ""
	if tally.VotedOut != uuid.Nil {
		votedOut = tally.VotedOut.String()
	}
	*events = append(*events, public(round.LobbyID, EventVotingComplete, map[string]interface{}{
		"vote_counts":      countsPayload(tally.Counts),
		"voted_out_player": votedOut,
		"winners":          idStrings(tally.Winners),
		"imposter_caught":  caught,
		"emergency":        true,
	}))

	reason := "emergency vote caught the imposter"
	if !caught {
		reason = "emergency vote missed"
	}
	return e.finishRound(tx, round, s, reason, caught, events)
}
