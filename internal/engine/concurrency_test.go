// internal/engine/concurrency_test.go
package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

func TestConcurrentDuplicateVotes(t *testing.T) {
	store, eng, lobby, players, _ := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	completeHints(t, eng, store, lobby.ID)
	round := activeRound(t, store, lobby.ID)
	civs, _ := civiliansOf(round, players)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = eng.CastVote(ctx, lobby.ID, civs[0].ID, round.ImposterID, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, engine.ErrAlreadyVoted)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of the racing votes commits")

	var votes []*models.Vote
	require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
		vs, err := tx.VotesByRound(round.ID)
		votes = vs
		return err
	}))
	assert.Len(t, votes, 1)
}

func TestConcurrentCompletingVotesSettleOnce(t *testing.T) {
	store, eng, lobby, players, mb := setupLobby(t, 4, true)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	completeHints(t, eng, store, lobby.ID)
	round := activeRound(t, store, lobby.ID)
	civs, imposter := civiliansOf(round, players)

	// One winning bet, then close the window.
	require.NoError(t, eng.PlaceBet(ctx, lobby.ID, civs[0].ID, imposter.ID, 3))
	require.NoError(t, eng.CompleteBettingPhase(ctx, lobby.ID))
	before := score(t, store, civs[0].ID)
	mb.clear()

	// The first three votes commit serially; the final quorum-completing
	// votes race.
	require.NoError(t, eng.CastVote(ctx, lobby.ID, civs[0].ID, imposter.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, civs[1].ID, imposter.ID, nil))
	require.NoError(t, eng.CastVote(ctx, lobby.ID, imposter.ID, civs[0].ID, nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := eng.CastVote(ctx, lobby.ID, civs[2].ID, imposter.ID, nil)
			// Losers of the race see a duplicate vote, or a phase that has
			// already advanced past voting.
			if err != nil && !errors.Is(err, engine.ErrAlreadyVoted) && !errors.Is(err, engine.ErrWrongPhase) {
				t.Errorf("unexpected race error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, models.StatusGuessing, activeRound(t, store, lobby.ID).Status)

	// The winning bet paid exactly once: +3, never +6.
	assert.Equal(t, before+3, score(t, store, civs[0].ID))
	assert.Len(t, mb.byType(engine.EventVotingComplete), 1)
	assert.Len(t, mb.byType(engine.EventBetResults), 1)
}

func TestFailedTransactionRollsBackEverything(t *testing.T) {
	store, eng, lobby, players, _ := setupLobby(t, 4, false)
	ctx := context.Background()

	_, err := eng.StartRound(ctx, lobby.ID, players[0].ID)
	require.NoError(t, err)
	completeHints(t, eng, store, lobby.ID)
	round := activeRound(t, store, lobby.ID)
	civs, _ := civiliansOf(round, players)

	// A vote carrying a broken bet fails late, after the bet insert point;
	// neither the vote nor any score change may survive.
	scoresBefore := make(map[string]int)
	for _, p := range players {
		scoresBefore[p.ID.String()] = score(t, store, p.ID)
	}

	err = eng.CastVote(ctx, lobby.ID, civs[0].ID, round.ImposterID, &engine.BetPlacement{
		TargetID: civs[0].ID, // self-bet, rejected
		Amount:   1,
	})
	require.ErrorIs(t, err, engine.ErrSelfBet)

	var votes []*models.Vote
	var bets []*models.Bet
	require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
		if votes, err = tx.VotesByRound(round.ID); err != nil {
			return err
		}
		bets, err = tx.BetsByRound(round.ID)
		return err
	}))
	assert.Empty(t, votes)
	assert.Empty(t, bets)
	for _, p := range players {
		assert.Equal(t, scoresBefore[p.ID.String()], score(t, store, p.ID))
	}
}
