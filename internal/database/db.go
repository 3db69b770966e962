// internal/database/db.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

// Store is the Postgres-backed engine.Store. Transactions run serializable so
// that completion detection and the settlement that follows it commit as one
// unit; the unique constraints in schema.go are the final race-safety net for
// duplicate submissions.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore wraps a connected pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// RunInTx runs fn inside one serializable transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		return fn(&pgTx{ctx: ctx, tx: tx})
	})
}

// mapConstraintErr translates a unique-constraint violation into the matching
// domain error, so concurrent duplicate submissions surface as "already
// voted" / "already bet" instead of a driver error.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "votes_round_voter_key":
		return engine.ErrAlreadyVoted
	case "bets_round_bettor_key":
		return engine.ErrAlreadyBet
	case "emergency_votes_pkey":
		return engine.ErrEmergencyActive
	case "rounds_one_active_per_lobby":
		return engine.ErrRoundInProgress
	case "players_lobby_name_key":
		return engine.ErrNameTaken
	}
	return err
}

// --- lobby-surface helpers used by the HTTP layer (not part of engine.Tx) ---

// CreateLobby inserts a lobby row.
func (s *Store) CreateLobby(ctx context.Context, lobby *models.Lobby) error {
	q := `
		INSERT INTO lobbies (id, host_id, name, private, passcode_hash, betting_enabled, max_players)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.Pool.Exec(ctx, q,
		lobby.ID, lobby.HostID, lobby.Name, lobby.Private, lobby.PasscodeHash,
		lobby.Settings.BettingEnabled, lobby.Settings.MaxPlayers,
	)
	return err
}

// GetLobby fetches a lobby outside any engine transaction.
func (s *Store) GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error) {
	var l models.Lobby
	q := `
		SELECT id, host_id, name, private, passcode_hash, betting_enabled, max_players
		FROM lobbies WHERE id = $1
	`
	err := s.Pool.QueryRow(ctx, q, lobbyID).Scan(
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

// AddPlayer inserts a lobby member; the (lobby_id, name) constraint rejects
// duplicate names.
func (s *Store) AddPlayer(ctx context.Context, player *models.Player) error {
	q := `
		INSERT INTO players (id, lobby_id, name, score, is_online)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.Pool.Exec(ctx, q, player.ID, player.LobbyID, player.Name, player.Score, player.IsOnline)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}
