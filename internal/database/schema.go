// internal/database/schema.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema carries every invariant-bearing constraint the engine leans on:
// one vote per (round, voter), one bet per (round, bettor), one emergency
// vote per round, one non-complete round per lobby, unique names per lobby.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS lobbies (
		id UUID PRIMARY KEY,
		host_id UUID NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		private BOOLEAN NOT NULL DEFAULT FALSE,
		passcode_hash TEXT NOT NULL DEFAULT '',
		betting_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		max_players INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		lobby_id UUID NOT NULL REFERENCES lobbies(id),
		name TEXT NOT NULL,
		score INT NOT NULL DEFAULT 0,
		is_online BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT players_lobby_name_key UNIQUE (lobby_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS rounds (
		id UUID PRIMARY KEY,
		lobby_id UUID NOT NULL REFERENCES lobbies(id),
		round_number INT NOT NULL,
		word TEXT NOT NULL,
		category TEXT NOT NULL,
		imposter_id UUID NOT NULL REFERENCES players(id),
		turn_order UUID[] NOT NULL,
		current_turn INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS rounds_one_active_per_lobby
		ON rounds (lobby_id) WHERE status <> 'COMPLETE'`,
	`CREATE TABLE IF NOT EXISTS hints (
		round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
		player_id UUID NOT NULL REFERENCES players(id),
		text TEXT NOT NULL,
		turn_index INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
		voter_id UUID NOT NULL REFERENCES players(id),
		suspect_id UUID NOT NULL REFERENCES players(id),
		CONSTRAINT votes_round_voter_key UNIQUE (round_id, voter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
		bettor_id UUID NOT NULL REFERENCES players(id),
		target_id UUID NOT NULL REFERENCES players(id),
		amount INT NOT NULL CHECK (amount BETWEEN 1 AND 3),
		payout INT,
		won BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT bets_round_bettor_key UNIQUE (round_id, bettor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS emergency_votes (
		round_id UUID PRIMARY KEY REFERENCES rounds(id) ON DELETE CASCADE,
		initiator_id UUID NOT NULL REFERENCES players(id)
	)`,
}

// Migrate applies the schema statements in one transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
