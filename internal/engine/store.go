// internal/engine/store.go
package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

// Store is the transactional persistence collaborator the engine runs on.
// RunInTx executes fn inside one serializable transaction: either every write
// fn performs commits, or none do. Implementations must guarantee that two
// transactions which both read and then write the same round cannot both
// commit (serializable isolation, or the compare-and-set TransitionRound).
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of storage operations available inside one transaction. All
// constraint violations surface as the engine's sentinel errors (ErrAlreadyVoted,
// ErrAlreadyBet, ErrEmergencyActive, ErrRoundInProgress) so the caller never
// sees driver-level errors.
type Tx interface {
	// lobbies
	GetLobby(lobbyID uuid.UUID) (*models.Lobby, error)
	SetLobbyHost(lobbyID, hostID uuid.UUID) error

	// players
	GetPlayer(playerID uuid.UUID) (*models.Player, error)
	PlayersByLobby(lobbyID uuid.UUID) ([]*models.Player, error)
	SetPlayerOnline(playerID uuid.UUID, online bool) error
	// AddScore applies a delta against the committed score, never a local
	// read-modify-write. The single choke point for score mutation.
	AddScore(playerID uuid.UUID, delta int) error
	ResetScores(lobbyID uuid.UUID) error

	// rounds
	// ActiveRound returns the lobby's sole non-complete round, or
	// ErrNoActiveRound.
	ActiveRound(lobbyID uuid.UUID) (*models.Round, error)
	// RoundCount returns how many rounds the lobby has ever had, complete or
	// not.
	RoundCount(lobbyID uuid.UUID) (int, error)
	// InsertRound fails with ErrRoundInProgress when the lobby already has a
	// non-complete round.
	InsertRound(round *models.Round) error
	SetRoundTurn(roundID uuid.UUID, currentTurn int) error
	SetRoundTurnOrder(roundID uuid.UUID, turnOrder []uuid.UUID, currentTurn int) error
	// TransitionRound is a compare-and-set: it moves the round from exactly
	// the given status to the next one, or fails with ErrWrongPhase. This is
	// what makes completion detection exactly-once under concurrency.
	TransitionRound(roundID uuid.UUID, from, to models.RoundStatus) error
	// DeleteRoundHistory removes every round and its votes, bets, hints and
	// emergency votes for the lobby. The player roster is untouched.
	DeleteRoundHistory(lobbyID uuid.UUID) error

	// hints
	InsertHint(hint *models.Hint) error
	HintsByRound(roundID uuid.UUID) ([]*models.Hint, error)

	// votes
	InsertVote(vote *models.Vote) error
	VotesByRound(roundID uuid.UUID) ([]*models.Vote, error)

	// bets
	InsertBet(bet *models.Bet) error
	BetsByRound(roundID uuid.UUID) ([]*models.Bet, error)
	SetBetPayout(roundID, bettorID uuid.UUID, payout int, won bool) error

	// emergency votes
	InsertEmergencyVote(ev *models.EmergencyVote) error
	EmergencyVoteByRound(roundID uuid.UUID) (*models.EmergencyVote, error)
}
