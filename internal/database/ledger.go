// internal/database/ledger.go
package database

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

func (t *pgTx) InsertHint(hint *models.Hint) error {
	q := `INSERT INTO hints (round_id, player_id, text, turn_index) VALUES ($1, $2, $3, $4)`
	_, err := t.tx.Exec(t.ctx, q, hint.RoundID, hint.PlayerID, hint.Text, hint.TurnIndex)
	return err
}

func (t *pgTx) HintsByRound(roundID uuid.UUID) ([]*models.Hint, error) {
	q := `SELECT round_id, player_id, text, turn_index FROM hints WHERE round_id=$1 ORDER BY turn_index`
	rows, err := t.tx.Query(t.ctx, q, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hints []*models.Hint
	for rows.Next() {
		var h models.Hint
		if err := rows.Scan(&h.RoundID, &h.PlayerID, &h.Text, &h.TurnIndex); err != nil {
			return nil, err
		}
		hints = append(hints, &h)
	}
	return hints, rows.Err()
}

func (t *pgTx) InsertVote(vote *models.Vote) error {
	q := `INSERT INTO votes (round_id, voter_id, suspect_id) VALUES ($1, $2, $3)`
	_, err := t.tx.Exec(t.ctx, q, vote.RoundID, vote.VoterID, vote.SuspectID)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (t *pgTx) VotesByRound(roundID uuid.UUID) ([]*models.Vote, error) {
	q := `SELECT round_id, voter_id, suspect_id FROM votes WHERE round_id=$1`
	rows, err := t.tx.Query(t.ctx, q, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []*models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.RoundID, &v.VoterID, &v.SuspectID); err != nil {
			return nil, err
		}
		votes = append(votes, &v)
	}
	return votes, rows.Err()
}

func (t *pgTx) InsertBet(bet *models.Bet) error {
	q := `INSERT INTO bets (round_id, bettor_id, target_id, amount) VALUES ($1, $2, $3, $4)`
	_, err := t.tx.Exec(t.ctx, q, bet.RoundID, bet.BettorID, bet.TargetID, bet.Amount)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (t *pgTx) BetsByRound(roundID uuid.UUID) ([]*models.Bet, error) {
	q := `SELECT round_id, bettor_id, target_id, amount, payout, won FROM bets WHERE round_id=$1`
	rows, err := t.tx.Query(t.ctx, q, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var b models.Bet
		if err := rows.Scan(&b.RoundID, &b.BettorID, &b.TargetID, &b.Amount, &b.Payout, &b.Won); err != nil {
			return nil, err
		}
		bets = append(bets, &b)
	}
	return bets, rows.Err()
}

func (t *pgTx) SetBetPayout(roundID, bettorID uuid.UUID, payout int, won bool) error {
	_, err := t.tx.Exec(t.ctx,
		`UPDATE bets SET payout=$1, won=$2 WHERE round_id=$3 AND bettor_id=$4`,
		payout, won, roundID, bettorID,
	)
	return err
}

func (t *pgTx) InsertEmergencyVote(ev *models.EmergencyVote) error {
	q := `INSERT INTO emergency_votes (round_id, initiator_id) VALUES ($1, $2)`
	_, err := t.tx.Exec(t.ctx, q, ev.RoundID, ev.InitiatorID)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (t *pgTx) EmergencyVoteByRound(roundID uuid.UUID) (*models.EmergencyVote, error) {
	var ev models.EmergencyVote
	q := `SELECT round_id, initiator_id FROM emergency_votes WHERE round_id=$1`
	err := t.tx.QueryRow(t.ctx, q, roundID).Scan(&ev.RoundID, &ev.InitiatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNoActiveRound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
