// internal/database/round.go
package database

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

const roundColumns = `id, lobby_id, round_number, word, category, imposter_id, turn_order, current_turn, status`

func scanRound(row pgx.Row) (*models.Round, error) {
	var r models.Round
	var status string
	err := row.Scan(
		&r.ID, &r.LobbyID, &r.RoundNumber, &r.Word, &r.Category,
		&r.ImposterID, &r.TurnOrder, &r.CurrentTurn, &status,
	)
	if err != nil {
		return nil, err
	}
	r.Status = models.RoundStatus(status)
	return &r, nil
}

func (t *pgTx) ActiveRound(lobbyID uuid.UUID) (*models.Round, error) {
	q := `SELECT ` + roundColumns + ` FROM rounds WHERE lobby_id=$1 AND status <> $2`
	round, err := scanRound(t.tx.QueryRow(t.ctx, q, lobbyID, string(models.StatusComplete)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNoActiveRound
	}
	return round, err
}

func (t *pgTx) RoundCount(lobbyID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(t.ctx, `SELECT COUNT(*) FROM rounds WHERE lobby_id=$1`, lobbyID).Scan(&n)
	return n, err
}

func (t *pgTx) InsertRound(round *models.Round) error {
	q := `
		INSERT INTO rounds (` + roundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := t.tx.Exec(t.ctx, q,
		round.ID, round.LobbyID, round.RoundNumber, round.Word, round.Category,
		round.ImposterID, round.TurnOrder, round.CurrentTurn, string(round.Status),
	)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (t *pgTx) SetRoundTurn(roundID uuid.UUID, currentTurn int) error {
	_, err := t.tx.Exec(t.ctx, `UPDATE rounds SET current_turn=$1 WHERE id=$2`, currentTurn, roundID)
	return err
}

func (t *pgTx) SetRoundTurnOrder(roundID uuid.UUID, turnOrder []uuid.UUID, currentTurn int) error {
	_, err := t.tx.Exec(t.ctx,
		`UPDATE rounds SET turn_order=$1, current_turn=$2 WHERE id=$3`,
		turnOrder, currentTurn, roundID,
	)
	return err
}

// TransitionRound is a compare-and-set on the status column: zero affected
// rows means another transaction already moved the round on, and the caller's
// transaction rolls back untouched.
func (t *pgTx) TransitionRound(roundID uuid.UUID, from, to models.RoundStatus) error {
	if !from.CanTransitionTo(to) {
		return engine.ErrWrongPhase
	}
	tag, err := t.tx.Exec(t.ctx,
		`UPDATE rounds SET status=$1 WHERE id=$2 AND status=$3`,
		string(to), roundID, string(from),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrWrongPhase
	}
	return nil
}

func (t *pgTx) DeleteRoundHistory(lobbyID uuid.UUID) error {
	// Dependent rows cascade from rounds.
	_, err := t.tx.Exec(t.ctx, `DELETE FROM rounds WHERE lobby_id=$1`, lobbyID)
	return err
}
