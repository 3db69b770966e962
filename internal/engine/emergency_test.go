// internal/engine/emergency_test.go
package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

func TestInitiateEmergencyVote(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)

	t.Run("the imposter cannot pull the alarm", func(t *testing.T) {
		err := eng.InitiateEmergencyVote(ctx, lobby.ID, imposter.ID)
		assert.ErrorIs(t, err, engine.ErrImposterPanic)
	})

	require.NoError(t, eng.InitiateEmergencyVote(ctx, lobby.ID, civs[0].ID))
	round = activeRound(t, store, lobby.ID)
	assert.Equal(t, models.StatusEmergencyVoting, round.Status)
	assert.NotEmpty(t, mb.byType(engine.EventEmergencyInitiated))
	assert.NotEmpty(t, mb.byType(engine.EventEmergencyStarted))

	t.Run("a second alarm reports the one already ringing", func(t *testing.T) {
		err := eng.InitiateEmergencyVote(ctx, lobby.ID, civs[1].ID)
		assert.ErrorIs(t, err, engine.ErrEmergencyActive)
	})

	t.Run("hints freeze during the emergency", func(t *testing.T) {
		active := engine.ActivePlayer(round.TurnOrder, round.CurrentTurn)
		err := eng.SubmitHint(ctx, lobby.ID, active, "frozen out")
		assert.ErrorIs(t, err, engine.ErrWrongPhase)
	})

	t.Run("no bets during an emergency vote", func(t *testing.T) {
		err := eng.CastVote(ctx, lobby.ID, civs[1].ID, imposter.ID, &engine.BetPlacement{
			TargetID: imposter.ID,
			Amount:   1,
		})
		assert.ErrorIs(t, err, engine.ErrWrongPhase)
	})
}

func TestEmergencyVoteCatchScoring(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)
	initiator := civs[0]

	require.NoError(t, eng.InitiateEmergencyVote(ctx, lobby.ID, initiator.ID))

	impBefore := score(t, store, imposter.ID)
	for _, c := range civs {
		require.NoError(t, eng.CastVote(ctx, lobby.ID, c.ID, imposter.ID, nil))
	}
	require.NoError(t, eng.CastVote(ctx, lobby.ID, imposter.ID, initiator.ID, nil))

	// No guessing turn after an emergency catch: the round is over.
	assert.True(t, roundComplete(t, store, lobby.ID))

	assert.Equal(t, startingScore+2, score(t, store, initiator.ID))
	assert.Equal(t, startingScore+1, score(t, store, civs[1].ID))
	assert.Equal(t, startingScore+1, score(t, store, civs[2].ID))
	assert.Equal(t, impBefore, score(t, store, imposter.ID))

	evs := mb.byType(engine.EventVotingComplete)
	require.Len(t, evs, 1)
	assert.Equal(t, true, evs[0].Payload["emergency"])
	assert.Equal(t, true, evs[0].Payload["imposter_caught"])
}

func TestEmergencyVoteMissScoring(t *testing.T) {
	store, eng, lobby, players, _ := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)
	initiator := civs[0]

	require.NoError(t, eng.InitiateEmergencyVote(ctx, lobby.ID, initiator.ID))

	// The alarm misfires: everyone turns on the initiator.
	require.NoError(t, eng.CastVote(ctx, lobby.ID, civs[1].ID, initiator.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, civs[2].ID, initiator.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, imposter.ID, initiator.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, initiator.ID, civs[1].ID, nil))

	assert.True(t, roundComplete(t, store, lobby.ID))
	assert.Equal(t, startingScore-1, score(t, store, initiator.ID))
	assert.Equal(t, startingScore+1, score(t, store, imposter.ID))
	assert.Equal(t, startingScore, score(t, store, civs[1].ID))
	assert.Equal(t, startingScore, score(t, store, civs[2].ID))
}
