// internal/engine/lifecycle.go
package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/imposterhq/imposter/internal/models"
)

// Engine is the round orchestration core. Every public operation runs inside
// one store transaction; outbound events are collected during the transaction
// and published strictly after it commits.
type Engine struct {
	store     Store
	broadcast Broadcaster
	words     WordSupplier
	log       *logrus.Logger
}

// New builds an Engine. A nil broadcaster disables event delivery (useful in
// tests that only check state).
func New(store Store, broadcast Broadcaster, words WordSupplier, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{store: store, broadcast: broadcast, words: words, log: log}
}

// BetPlacement is an optional bet co-located with a vote.
type BetPlacement struct {
	TargetID uuid.UUID `json:"target_id"`
	Amount   int       `json:"amount"`
}

func (e *Engine) publish(events []Outbound) {
	if e.broadcast == nil {
		return
	}
	for _, ob := range events {
		e.broadcast.Publish(ob.Topic, ob.Event)
	}
}

func public(lobbyID uuid.UUID, typ EventType, payload map[string]interface{}) Outbound {
	return Outbound{Topic: LobbyTopic(lobbyID), Event: Event{Type: typ, Payload: payload}}
}

func private(lobbyID, playerID uuid.UUID, typ EventType, payload map[string]interface{}) Outbound {
	return Outbound{Topic: PlayerTopic(lobbyID, playerID), Event: Event{Type: typ, Payload: payload}}
}

// memberPlayer loads a player and verifies lobby membership.
func memberPlayer(tx Tx, lobbyID, playerID uuid.UUID) (*models.Player, error) {
	p, err := tx.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if p.LobbyID != lobbyID {
		return nil, ErrNotInLobby
	}
	return p, nil
}

// StartRound assigns the imposter and turn order at random, persists the new
// round and deals out the private role events. Only the host may start, the
// lobby needs at least three online players and no other non-complete round.
func (e *Engine) StartRound(ctx context.Context, lobbyID, callerID uuid.UUID) (*models.Round, error) {
	var (
		round  *models.Round
		events []Outbound
	)
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		lobby, err := tx.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		if lobby.HostID != callerID {
			return ErrNotHost
		}
		players, err := tx.PlayersByLobby(lobbyID)
		if err != nil {
			return err
		}
		var online []*models.Player
		for _, p := range players {
			if p.IsOnline {
				online = append(online, p)
			}
		}
		if len(online) < 3 {
			return ErrNotEnoughPlayers
		}
		if _, err := tx.ActiveRound(lobbyID); err == nil {
			return ErrRoundInProgress
		} else if !errors.Is(err, ErrNoActiveRound) {
			return err
		}
		prior, err := tx.RoundCount(lobbyID)
		if err != nil {
			return err
		}

		word, category := e.words.NextWord()
		turnOrder := make([]uuid.UUID, len(online))
		for i, p := range online {
			turnOrder[i] = p.ID
		}
		rand.Shuffle(len(turnOrder), func(i, j int) {
			turnOrder[i], turnOrder[j] = turnOrder[j], turnOrder[i]
		})
		imposterID := turnOrder[rand.Intn(len(turnOrder))]

		round = &models.Round{
			ID:          uuid.New(),
			LobbyID:     lobbyID,
			RoundNumber: prior + 1,
			Word:        word,
			Category:    category,
			ImposterID:  imposterID,
			TurnOrder:   turnOrder,
			CurrentTurn: 0,
			Status:      models.StatusInProgress,
		}
		if err := tx.InsertRound(round); err != nil {
			return err
		}

		for _, p := range online {
			role := "civilian"
			var roleWord interface{} = word
			if p.ID == imposterID {
				role = "imposter"
				roleWord = nil
			}
			events = append(events, private(lobbyID, p.ID, EventRoleAssigned, map[string]interface{}{
				"round_id": round.ID.String(),
				"role":     role,
				"word":     roleWord,
				"category": category,
			}))
		}
		events = append(events, public(lobbyID, EventGameStarted, map[string]interface{}{
			"round_id":      round.ID.String(),
			"round_number":  round.RoundNumber,
			"turn_order":    idStrings(turnOrder),
			"active_player": ActivePlayer(turnOrder, 0).String(),
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(events)
	return round, nil
}

// SubmitHint appends the active player's hint. After two full passes the
// round advances to the betting window (when enabled) or straight to voting.
func (e *Engine) SubmitHint(ctx context.Context, lobbyID, playerID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrInvalidInput
	}
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			return err
		}
		if round.Status != models.StatusInProgress {
			return ErrWrongPhase
		}
		if ActivePlayer(round.TurnOrder, round.CurrentTurn) != playerID {
			return ErrNotYourTurn
		}
		if _, err := memberPlayer(tx, lobbyID, playerID); err != nil {
			return err
		}
		if err := tx.InsertHint(&models.Hint{
			RoundID:   round.ID,
			PlayerID:  playerID,
			Text:      text,
			TurnIndex: round.CurrentTurn,
		}); err != nil {
			return err
		}
		events = append(events, public(lobbyID, EventHintSubmitted, map[string]interface{}{
			"player_id":  playerID.String(),
			"text":       text,
			"turn_index": round.CurrentTurn,
		}))

		if !hintsComplete(round.TurnOrder, round.CurrentTurn) {
			next := round.CurrentTurn + 1
			if err := tx.SetRoundTurn(round.ID, next); err != nil {
				return err
			}
			events = append(events, public(lobbyID, EventTurnChanged, map[string]interface{}{
				"active_player": ActivePlayer(round.TurnOrder, next).String(),
				"current_turn":  next,
			}))
			return nil
		}

		lobby, err := tx.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		if lobby.Settings.BettingEnabled {
			if err := tx.TransitionRound(round.ID, models.StatusInProgress, models.StatusBetting); err != nil {
				return err
			}
			events = append(events, public(lobbyID, EventBettingStarted, map[string]interface{}{
				"round_id": round.ID.String(),
			}))
		} else {
			if err := tx.TransitionRound(round.ID, models.StatusInProgress, models.StatusVoting); err != nil {
				return err
			}
			events = append(events, public(lobbyID, EventVotingStarted, map[string]interface{}{
				"round_id": round.ID.String(),
			}))
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// PlaceBet wagers that targetID is the imposter. Accepted during the betting
// window and during voting, never during an emergency vote. The (round,
// bettor) uniqueness constraint is the final race-safety net: concurrent
// identical requests race to insert and exactly one wins.
func (e *Engine) PlaceBet(ctx context.Context, lobbyID, bettorID, targetID uuid.UUID, amount int) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			return err
		}
		bettor, err := memberPlayer(tx, lobbyID, bettorID)
		if err != nil {
			return err
		}
		if _, err := memberPlayer(tx, lobbyID, targetID); err != nil {
			return err
		}
		if err := placeBetTx(tx, round, bettor, targetID, amount); err != nil {
			return err
		}
		events = append(events, public(lobbyID, EventBetPlaced, map[string]interface{}{
			"bettor_id": bettorID.String(),
		}))

		// An all-in betting window closes itself early.
		if round.Status == models.StatusBetting {
			done, err := e.maybeCloseBetting(tx, round)
			if err != nil {
				return err
			}
			if done {
				events = append(events, public(lobbyID, EventVotingStarted, map[string]interface{}{
					"round_id": round.ID.String(),
				}))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// placeBetTx validates and inserts one bet inside the caller's transaction.
func placeBetTx(tx Tx, round *models.Round, bettor *models.Player, targetID uuid.UUID, amount int) error {
	if err := validateBet(round, bettor, targetID, amount); err != nil {
		return err
	}
	return tx.InsertBet(&models.Bet{
		RoundID:  round.ID,
		BettorID: bettor.ID,
		TargetID: targetID,
		Amount:   amount,
	})
}

// maybeCloseBetting advances BETTING to VOTING once every eligible online
// bettor has committed a bet.
func (e *Engine) maybeCloseBetting(tx Tx, round *models.Round) (bool, error) {
	bets, err := tx.BetsByRound(round.ID)
	if err != nil {
		return false, err
	}
	players, err := tx.PlayersByLobby(round.LobbyID)
	if err != nil {
		return false, err
	}
	if !betQuorumMet(bets, players, round.ImposterID) {
		return false, nil
	}
	if err := tx.TransitionRound(round.ID, models.StatusBetting, models.StatusVoting); err != nil {
		return false, err
	}
	return true, nil
}

// CompleteBettingPhase force-closes the betting window. It re-validates the
// phase before transitioning, so a stale or duplicated timer fire is a
// harmless no-op once the phase has already advanced.
func (e *Engine) CompleteBettingPhase(ctx context.Context, lobbyID uuid.UUID) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			if errors.Is(err, ErrNoActiveRound) {
				return nil
			}
			return err
		}
		if round.Status != models.StatusBetting {
			return nil
		}
		if err := tx.TransitionRound(round.ID, models.StatusBetting, models.StatusVoting); err != nil {
			return err
		}
		events = append(events, public(lobbyID, EventVotingStarted, map[string]interface{}{
			"round_id": round.ID.String(),
		}))
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// CastVote records one vote (optionally carrying a co-located bet) and, when
// it is the vote that completes the quorum, performs the transition and
// settlement in the same transaction. Everyone online votes, the imposter
// included. Self-votes are rejected on every entry point.
func (e *Engine) CastVote(ctx context.Context, lobbyID, voterID, suspectID uuid.UUID, bet *BetPlacement) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			return err
		}
		if round.Status != models.StatusVoting && round.Status != models.StatusEmergencyVoting {
			return ErrWrongPhase
		}
		voter, err := memberPlayer(tx, lobbyID, voterID)
		if err != nil {
			return err
		}
		if !voter.IsOnline {
			return ErrNotInLobby
		}
		if _, err := memberPlayer(tx, lobbyID, suspectID); err != nil {
			return err
		}
		if voterID == suspectID {
			return ErrSelfVote
		}

		// The co-located bet commits with the vote or not at all: a late
		// validation failure here rolls the vote back too.
		if bet != nil {
			if round.Status == models.StatusEmergencyVoting {
				return ErrWrongPhase
			}
			if _, err := memberPlayer(tx, lobbyID, bet.TargetID); err != nil {
				return err
			}
			if err := placeBetTx(tx, round, voter, bet.TargetID, bet.Amount); err != nil {
				return err
			}
			events = append(events, public(lobbyID, EventBetPlaced, map[string]interface{}{
				"bettor_id": voterID.String(),
			}))
		}

		if err := tx.InsertVote(&models.Vote{
			RoundID:   round.ID,
			VoterID:   voterID,
			SuspectID: suspectID,
		}); err != nil {
			return err
		}
		events = append(events, public(lobbyID, EventVoteCast, map[string]interface{}{
			"voter_id": voterID.String(),
		}))

		votes, err := tx.VotesByRound(round.ID)
		if err != nil {
			return err
		}
		players, err := tx.PlayersByLobby(lobbyID)
		if err != nil {
			return err
		}
		if !voteQuorumMet(votes, players) {
			return nil
		}
		if round.Status == models.StatusEmergencyVoting {
			return e.resolveEmergency(tx, round, players, votes, &events)
		}
		return e.resolveVoting(tx, round, players, votes, &events)
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// resolveVoting finishes the normal voting phase: plurality tally, bet
// settlement, and either a guessing turn for the caught imposter or an evade
// payout. The TransitionRound compare-and-set makes this exactly-once no
// matter how many requests observe the full quorum.
func (e *Engine) resolveVoting(tx Tx, round *models.Round, players []*models.Player, votes []*models.Vote, events *[]Outbound) error {
	tally := TallyVotes(votes)
	caught := tally.VotedOut != uuid.Nil && tally.VotedOut == round.ImposterID

	next := models.StatusComplete
	if caught {
		next = models.StatusGuessing
	}
	if err := tx.TransitionRound(round.ID, models.StatusVoting, next); err != nil {
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
	}))

	// Payouts settle the instant the completing vote commits, caught or not.
	betResults, err := settleBets(tx, round)
	if err != nil {
		return err
	}
	if len(betResults) > 0 {
		*events = append(*events, public(round.LobbyID, EventBetResults, map[string]interface{}{
			"results": betResults,
		}))
	}

	if caught {
		// The imposter now gets a shot at the word.
		*events = append(*events, private(round.LobbyID, round.ImposterID, EventTurnChanged, map[string]interface{}{
			"action": "guess",
		}))
		return nil
	}

	s := newSettlement()
	s.add(round.ImposterID, imposterEvadePoints)
	if err := s.apply(tx); err != nil {
		return err
	}
	return e.finishRound(tx, round, s, "imposter evaded", false, events)
}

// SubmitGuess lets a caught imposter try the secret word. A correct guess
// scores the imposter; a miss scores every online civilian.
func (e *Engine) SubmitGuess(ctx context.Context, lobbyID, playerID uuid.UUID, guess string) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		round, err := tx.ActiveRound(lobbyID)
		if err != nil {
			return err
		}
		if round.Status != models.StatusGuessing {
			return ErrWrongPhase
		}
		if playerID != round.ImposterID {
			return ErrNotImposter
		}
		players, err := tx.PlayersByLobby(lobbyID)
		if err != nil {
			return err
		}

		correct := strings.EqualFold(strings.TrimSpace(guess), round.Word)
		s := newSettlement()
		if correct {
			s.add(round.ImposterID, imposterGuessPoints)
		} else {
			creditOnlineCivilians(s, players, round.ImposterID, civilianCatchPoints)
		}
		if err := tx.TransitionRound(round.ID, models.StatusGuessing, models.StatusComplete); err != nil {
			return err
		}
		if err := s.apply(tx); err != nil {
			return err
		}
		reason := "imposter guessed the word"
		if !correct {
			reason = "imposter guessed wrong"
		}
		return e.finishRound(tx, round, s, reason, true, &events)
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// RestartGame wipes scores and round history for the lobby, keeping the
// player roster intact. Host only.
func (e *Engine) RestartGame(ctx context.Context, lobbyID, callerID uuid.UUID) error {
	var events []Outbound
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		events = events[:0]
		lobby, err := tx.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		if lobby.HostID != callerID {
			return ErrNotHost
		}
		if err := tx.ResetScores(lobbyID); err != nil {
			return err
		}
		if err := tx.DeleteRoundHistory(lobbyID); err != nil {
			return err
		}
		events = append(events, public(lobbyID, EventGameRestarted, nil))
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(events)
	return nil
}

// finishRound emits the closing events for a round. The status transition has
// already been committed by the caller; scores read here include the applied
// settlement.
func (e *Engine) finishRound(tx Tx, round *models.Round, s *settlement, reason string, caught bool, events *[]Outbound) error {
	payload := map[string]interface{}{
		"round_id":    round.ID.String(),
		"imposter_id": round.ImposterID.String(),
		"word":        round.Word,
		"category":    round.Category,
		"caught":      caught,
		"reason":      reason,
	}
	if s != nil {
		payload["score_deltas"] = s.payload()
	}
	*events = append(*events, public(round.LobbyID, EventRoundResults, payload))

	players, err := tx.PlayersByLobby(round.LobbyID)
	if err != nil {
		return err
	}
	scores := make(map[string]int, len(players))
	for _, p := range players {
		scores[p.ID.String()] = p.Score
	}
	*events = append(*events, public(round.LobbyID, EventGameOver, map[string]interface{}{
		"round_id": round.ID.String(),
		"scores":   scores,
	}))
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
