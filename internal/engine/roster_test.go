// internal/engine/roster_test.go
package engine_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/memstore"
	"github.com/imposterhq/imposter/internal/models"
)

func TestRemovePlayerValidation(t *testing.T) {
	store, eng, lobby, players, _ := setupLobby(t, 4, false)
	ctx := context.Background()

	t.Run("host only", func(t *testing.T) {
		err := eng.RemovePlayer(ctx, lobby.ID, players[1].ID, players[2].ID)
		assert.ErrorIs(t, err, engine.ErrNotHost)
	})

	t.Run("cannot drop below three online players mid-game", func(t *testing.T) {
		require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
			return tx.SetPlayerOnline(players[3].ID, false)
		}))
		err := eng.RemovePlayer(ctx, lobby.ID, players[0].ID, players[2].ID)
		assert.ErrorIs(t, err, engine.ErrNotEnoughPlayers)
		require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
			return tx.SetPlayerOnline(players[3].ID, true)
		}))
	})

	t.Run("removal between rounds is rejected", func(t *testing.T) {
		// Play a full round to completion first.
		_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
		require.NoError(t, err)
		completeHints(t, eng, store, lobby.ID)
		round := activeRound(t, store, lobby.ID)
		civs, imposter := civiliansOf(round, players)
		for _, c := range civs {
			suspect := civs[0]
			if c.ID == suspect.ID {
				suspect = civs[1]
			}
			require.NoError(t, eng.CastVote(ctx, lobby.ID, c.ID, suspect.ID, nil))
		}
		require.NoError(t, eng.CastVote(ctx, lobby.ID, imposter.ID, civs[1].ID, nil))
		require.True(t, roundComplete(t, store, lobby.ID))

		err = eng.RemovePlayer(ctx, lobby.ID, players[0].ID, players[1].ID)
		assert.ErrorIs(t, err, engine.ErrWrongPhase)
	})
}

func TestRemovePlayerBeforeAnyRound(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, false)
	ctx := context.Background()

	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, players[0].ID, players[2].ID))
	assert.NotEmpty(t, mb.byType(engine.EventPlayerRemoved))

	var target *models.Player
	require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
		p, err := tx.GetPlayer(players[2].ID)
		target = p
		return err
	}))
	assert.False(t, target.IsOnline)
}

func TestRemoveHostTransfersHost(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, false)
	ctx := context.Background()

	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, players[0].ID, players[0].ID))

	var got *models.Lobby
	require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
		l, err := tx.GetLobby(lobby.ID)
		got = l
		return err
	}))
	assert.NotEqual(t, players[0].ID, got.HostID)

	evs := mb.byType(engine.EventHostChanged)
	require.Len(t, evs, 1)
	assert.Equal(t, got.HostID.String(), evs[0].Payload["host_id"])
}

func TestRemoveCivilianDuringHintsSplicesTurnOrder(t *testing.T) {
	store, eng, lobby, players, _ := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	round := activeRound(t, store, lobby.ID)
	civs, _ := civiliansOf(round, players)

	// Remove a civilian who is not the host.
	var target *models.Player
	for _, c := range civs {
		if c.ID != lobby.HostID {
			target = c
			break
		}
	}
	require.NotNil(t, target)

	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, lobby.HostID, target.ID))

	round = activeRound(t, store, lobby.ID)
	assert.Len(t, round.TurnOrder, 3)
	assert.NotContains(t, round.TurnOrder, target.ID)
	assert.Equal(t, models.StatusInProgress, round.Status)

	// The remaining rotation still terminates cleanly.
	completeHints(t, eng, store, lobby.ID)
	assert.Equal(t, models.StatusVoting, activeRound(t, store, lobby.ID).Status)
}

func TestRemoveImposterEndsRound(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)

	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, lobby.HostID, imposter.ID))

	assert.True(t, roundComplete(t, store, lobby.ID))
	for _, c := range civs {
		assert.Equal(t, startingScore+1, score(t, store, c.ID))
	}

	evs := mb.byType(engine.EventRoundResults)
	require.Len(t, evs, 1)
	assert.Equal(t, "imposter left", evs[0].Payload["reason"])
	assert.Equal(t, false, evs[0].Payload["caught"])
}

func TestRemoveImposterDuringGuessingIsForfeit(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	completeHints(t, eng, store, lobby.ID)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)

	for _, c := range civs {
		require.NoError(t, eng.CastVote(ctx, lobby.ID, c.ID, imposter.ID, nil))
	}
	require.NoError(t, eng.CastVote(ctx, lobby.ID, imposter.ID, civs[0].ID, nil))
	require.Equal(t, models.StatusGuessing, activeRound(t, store, lobby.ID).Status)
	mb.clear()

	host := hostOf(t, store, lobby.ID)
	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, host, imposter.ID))

	assert.True(t, roundComplete(t, store, lobby.ID))
	evs := mb.byType(engine.EventRoundResults)
	require.Len(t, evs, 1)
	assert.Equal(t, "forfeit", evs[0].Payload["reason"])
	assert.Equal(t, true, evs[0].Payload["caught"])
}

// hostOf reads the lobby's current host.
func hostOf(t *testing.T, store *memstore.Store, lobbyID uuid.UUID) uuid.UUID {
	t.Helper()
	var host uuid.UUID
	require.NoError(t, store.RunInTx(context.Background(), func(tx engine.Tx) error {
		l, err := tx.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		host = l.HostID
		return nil
	}))
	return host
}

func TestRemoveVoterShrinksQuorum(t *testing.T) {
	store, eng, lobby, players, _ := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	completeHints(t, eng, store, lobby.ID)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)

	// Three of four vote for the imposter; the last seat never votes.
	require.NoError(t, eng.CastVote(ctx, lobby.ID, civs[0].ID, imposter.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, civs[1].ID, imposter.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, imposter.ID, civs[0].ID, nil))
	require.Equal(t, models.StatusVoting, activeRound(t, store, lobby.ID).Status)

	// Removing the holdout shrinks the quorum to the three committed votes
	// and resolves the round in the same transaction.
	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, lobby.HostID, civs[2].ID))
	require.Equal(t, models.StatusGuessing, activeRound(t, store, lobby.ID).Status)
}

func TestRemovalAdjustsBets(t *testing.T) {
	store, eng, lobby, round, players, mb := startBettingRound(t)
	ctx := context.Background()
	civs, imposter := civiliansOf(round, players)

	bettor, target := civs[0], civs[1]
	require.NoError(t, eng.PlaceBet(ctx, lobby.ID, bettor.ID, target.ID, 2))
	require.NoError(t, eng.PlaceBet(ctx, lobby.ID, target.ID, imposter.ID, 3))
	require.NoError(t, eng.CompleteBettingPhase(ctx, lobby.ID))
	mb.clear()

	targetBefore := score(t, store, target.ID)
	bettorBefore := score(t, store, bettor.ID)

	// Removing the target forfeits their own bet and refunds the bet on them.
	require.NoError(t, eng.RemovePlayer(ctx, lobby.ID, lobby.HostID, target.ID))

	assert.Equal(t, targetBefore-3, score(t, store, target.ID), "removed player forfeits their stake")
	assert.Equal(t, bettorBefore, score(t, store, bettor.ID), "bet on the removed player refunds flat")

	evs := mb.byType(engine.EventBetResults)
	require.Len(t, evs, 1)
	results := evs[0].Payload["results"].([]map[string]interface{})
	require.Len(t, results, 2)
}
