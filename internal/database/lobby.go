// internal/database/lobby.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

// pgTx implements engine.Tx over one open pgx transaction.
type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *pgTx) GetLobby(lobbyID uuid.UUID) (*models.Lobby, error) {
	var l models.Lobby
	q := `
		SELECT id, host_id, name, private, passcode_hash, betting_enabled, max_players
		FROM lobbies WHERE id = $1
	`
	err := t.tx.QueryRow(t.ctx, q, lobbyID).Scan(
		&l.ID, &l.HostID, &l.Name, &l.Private, &l.PasscodeHash,
		&l.Settings.BettingEnabled, &l.Settings.MaxPlayers,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrLobbyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *pgTx) SetLobbyHost(lobbyID, hostID uuid.UUID) error {
	_, err := t.tx.Exec(t.ctx, `UPDATE lobbies SET host_id=$1 WHERE id=$2`, hostID, lobbyID)
	return err
}

func (t *pgTx) GetPlayer(playerID uuid.UUID) (*models.Player, error) {
	var p models.Player
	q := `SELECT id, lobby_id, name, score, is_online FROM players WHERE id = $1`
	err := t.tx.QueryRow(t.ctx, q, playerID).Scan(&p.ID, &p.LobbyID, &p.Name, &p.Score, &p.IsOnline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) PlayersByLobby(lobbyID uuid.UUID) ([]*models.Player, error) {
	q := `SELECT id, lobby_id, name, score, is_online FROM players WHERE lobby_id = $1 ORDER BY name`
	rows, err := t.tx.Query(t.ctx, q, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.LobbyID, &p.Name, &p.Score, &p.IsOnline); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (t *pgTx) SetPlayerOnline(playerID uuid.UUID, online bool) error {
	_, err := t.tx.Exec(t.ctx, `UPDATE players SET is_online=$1 WHERE id=$2`, online, playerID)
	return err
}

// AddScore is an atomic increment against the committed value, never a local
// read-modify-write.
func (t *pgTx) AddScore(playerID uuid.UUID, delta int) error {
	_, err := t.tx.Exec(t.ctx, `UPDATE players SET score = score + $1 WHERE id=$2`, delta, playerID)
	return err
}

func (t *pgTx) ResetScores(lobbyID uuid.UUID) error {
	_, err := t.tx.Exec(t.ctx, `UPDATE players SET score = 0 WHERE lobby_id=$1`, lobbyID)
	return err
}
