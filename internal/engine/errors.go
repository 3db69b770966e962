// internal/engine/errors.go
package engine

import "errors"

// Domain errors surfaced by engine operations. Handlers map these to HTTP
// statuses; the store implementations map driver-level constraint violations
// onto the conflict sentinels so concurrent duplicates always resolve to one
// winner and N-1 of these.
var (
	// validation
	ErrInvalidInput      = errors.New("invalid input")
	ErrSelfVote          = errors.New("cannot vote for yourself")
	ErrSelfBet           = errors.New("cannot bet on yourself")
	ErrBetAmountRange    = errors.New("bet amount must be between 1 and 3")
	ErrInsufficientScore = errors.New("insufficient points for bet")

	// authorization
	ErrNotHost       = errors.New("only the host can do that")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrWrongPhase    = errors.New("wrong phase for that action")
	ErrNotInLobby    = errors.New("player does not belong to this lobby")
	ErrImposterBet   = errors.New("the imposter cannot bet")
	ErrNotImposter   = errors.New("only the imposter can guess")
	ErrImposterPanic = errors.New("the imposter cannot call an emergency vote")

	// state conflicts
	ErrAlreadyVoted     = errors.New("already voted this round")
	ErrAlreadyBet       = errors.New("already placed a bet this round")
	ErrEmergencyActive  = errors.New("emergency vote already in progress")
	ErrRoundInProgress  = errors.New("a round is already in progress")
	ErrNameTaken        = errors.New("name already taken in this lobby")
	ErrNoActiveRound    = errors.New("no active round")
	ErrNotEnoughPlayers = errors.New("at least 3 players are required")

	// resource not found
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrPlayerNotFound = errors.New("player not found")
)
