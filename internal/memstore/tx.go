// internal/memstore/tx.go
package memstore

import (
	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

// memTx implements engine.Tx against the store maps. The store mutex is held
// for the whole transaction, so these methods never lock.
type memTx struct {
	s *Store
}

func (t *memTx) GetLobby(lobbyID uuid.UUID) (*models.Lobby, error) {
	l, ok := t.s.lobbies[lobbyID]
	if !ok {
		return nil, engine.ErrLobbyNotFound
	}
	return copyLobby(l), nil
}

func (t *memTx) SetLobbyHost(lobbyID, hostID uuid.UUID) error {
	l, ok := t.s.lobbies[lobbyID]
	if !ok {
		return engine.ErrLobbyNotFound
	}
	l.HostID = hostID
	return nil
}

func (t *memTx) GetPlayer(playerID uuid.UUID) (*models.Player, error) {
	p, ok := t.s.players[playerID]
	if !ok {
		return nil, engine.ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

func (t *memTx) PlayersByLobby(lobbyID uuid.UUID) ([]*models.Player, error) {
	var out []*models.Player
	for _, p := range t.s.players {
		if p.LobbyID == lobbyID {
			out = append(out, copyPlayer(p))
		}
	}
	return out, nil
}

func (t *memTx) SetPlayerOnline(playerID uuid.UUID, online bool) error {
	p, ok := t.s.players[playerID]
	if !ok {
		return engine.ErrPlayerNotFound
	}
	p.IsOnline = online
	return nil
}

func (t *memTx) AddScore(playerID uuid.UUID, delta int) error {
	p, ok := t.s.players[playerID]
	if !ok {
		return engine.ErrPlayerNotFound
	}
	p.Score += delta
	return nil
}

func (t *memTx) ResetScores(lobbyID uuid.UUID) error {
	for _, p := range t.s.players {
		if p.LobbyID == lobbyID {
			p.Score = 0
		}
	}
	return nil
}

func (t *memTx) ActiveRound(lobbyID uuid.UUID) (*models.Round, error) {
	for _, r := range t.s.rounds {
		if r.LobbyID == lobbyID && !r.Status.Terminal() {
			return copyRound(r), nil
		}
	}
	return nil, engine.ErrNoActiveRound
}

func (t *memTx) RoundCount(lobbyID uuid.UUID) (int, error) {
	n := 0
	for _, r := range t.s.rounds {
		if r.LobbyID == lobbyID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertRound(round *models.Round) error {
	for _, r := range t.s.rounds {
		if r.LobbyID == round.LobbyID && !r.Status.Terminal() {
			return engine.ErrRoundInProgress
		}
	}
	t.s.rounds[round.ID] = copyRound(round)
	return nil
}

func (t *memTx) SetRoundTurn(roundID uuid.UUID, currentTurn int) error {
	r, ok := t.s.rounds[roundID]
	if !ok {
		return engine.ErrNoActiveRound
	}
	r.CurrentTurn = currentTurn
	return nil
}

func (t *memTx) SetRoundTurnOrder(roundID uuid.UUID, turnOrder []uuid.UUID, currentTurn int) error {
	r, ok := t.s.rounds[roundID]
	if !ok {
		return engine.ErrNoActiveRound
	}
	r.TurnOrder = append([]uuid.UUID(nil), turnOrder...)
	r.CurrentTurn = currentTurn
	return nil
}

func (t *memTx) TransitionRound(roundID uuid.UUID, from, to models.RoundStatus) error {
	r, ok := t.s.rounds[roundID]
	if !ok {
		return engine.ErrNoActiveRound
	}
	if r.Status != from || !from.CanTransitionTo(to) {
		return engine.ErrWrongPhase
	}
	r.Status = to
	return nil
}

func (t *memTx) DeleteRoundHistory(lobbyID uuid.UUID) error {
	for id, r := range t.s.rounds {
		if r.LobbyID != lobbyID {
			continue
		}
		delete(t.s.rounds, id)
		delete(t.s.hints, id)
		delete(t.s.votes, id)
		delete(t.s.bets, id)
		delete(t.s.emergencies, id)
	}
	return nil
}

func (t *memTx) InsertHint(hint *models.Hint) error {
	t.s.hints[hint.RoundID] = append(t.s.hints[hint.RoundID], copyHint(hint))
	return nil
}

func (t *memTx) HintsByRound(roundID uuid.UUID) ([]*models.Hint, error) {
	return copySlice(t.s.hints[roundID], copyHint), nil
}

func (t *memTx) InsertVote(vote *models.Vote) error {
	for _, v := range t.s.votes[vote.RoundID] {
		if v.VoterID == vote.VoterID {
			return engine.ErrAlreadyVoted
		}
	}
	t.s.votes[vote.RoundID] = append(t.s.votes[vote.RoundID], copyVote(vote))
	return nil
}

func (t *memTx) VotesByRound(roundID uuid.UUID) ([]*models.Vote, error) {
	return copySlice(t.s.votes[roundID], copyVote), nil
}

func (t *memTx) InsertBet(bet *models.Bet) error {
	for _, b := range t.s.bets[bet.RoundID] {
		if b.BettorID == bet.BettorID {
			return engine.ErrAlreadyBet
		}
	}
	t.s.bets[bet.RoundID] = append(t.s.bets[bet.RoundID], copyBet(bet))
	return nil
}

func (t *memTx) BetsByRound(roundID uuid.UUID) ([]*models.Bet, error) {
	return copySlice(t.s.bets[roundID], copyBet), nil
}

func (t *memTx) SetBetPayout(roundID, bettorID uuid.UUID, payout int, won bool) error {
	for _, b := range t.s.bets[roundID] {
		if b.BettorID == bettorID {
			p := payout
			b.Payout = &p
			b.Won = won
			return nil
		}
	}
	return engine.ErrInvalidInput
}

func (t *memTx) InsertEmergencyVote(ev *models.EmergencyVote) error {
	if _, ok := t.s.emergencies[ev.RoundID]; ok {
		return engine.ErrEmergencyActive
	}
	cp := *ev
	t.s.emergencies[ev.RoundID] = &cp
	return nil
}

func (t *memTx) EmergencyVoteByRound(roundID uuid.UUID) (*models.EmergencyVote, error) {
	ev, ok := t.s.emergencies[roundID]
	if !ok {
		return nil, engine.ErrNoActiveRound
	}
	cp := *ev
	return &cp, nil
}
