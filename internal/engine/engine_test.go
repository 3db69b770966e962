// internal/engine/engine_test.go
package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/memstore"
	"github.com/imposterhq/imposter/internal/models"
)

// mockBroadcaster collects published events instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	topics map[string][]engine.Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{topics: make(map[string][]engine.Event)}
}

func (mb *mockBroadcaster) Publish(topic string, ev engine.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.topics[topic] = append(mb.topics[topic], ev)
}

// byType returns every recorded event of the given type, any topic.
func (mb *mockBroadcaster) byType(typ engine.EventType) []engine.Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []engine.Event
	for _, evs := range mb.topics {
		for _, ev := range evs {
			if ev.Type == typ {
				out = append(out, ev)
			}
		}
	}
	return out
}

// onTopic returns the events recorded for one topic.
func (mb *mockBroadcaster) onTopic(topic string) []engine.Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return append([]engine.Event(nil), mb.topics[topic]...)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.topics = make(map[string][]engine.Event)
}

// staticWords always deals the same word.
type staticWords struct{}

func (staticWords) NextWord() (string, string) { return "penguin", "Animals" }

// startingScore gives everyone enough points to bet with.
const startingScore = 5

// setupLobby builds a store, engine and lobby with numPlayers online members.
// players[0] is the host.
func setupLobby(t *testing.T, numPlayers int, betting bool) (*memstore.Store, *engine.Engine, *models.Lobby, []*models.Player, *mockBroadcaster) {
	t.Helper()

	store := memstore.New()
	ctx := context.Background()

	lobby := &models.Lobby{
		ID:   uuid.New(),
		Name: "test lobby",
		Settings: models.LobbySettings{
			BettingEnabled: betting,
		},
	}

	players := make([]*models.Player, numPlayers)
	for i := range players {
		players[i] = &models.Player{
			ID:       uuid.New(),
			LobbyID:  lobby.ID,
			Name:     "player-" + string(rune('a'+i)),
			IsOnline: true,
		}
	}
	lobby.HostID = players[0].ID

	require.NoError(t, store.CreateLobby(ctx, lobby))
	for _, p := range players {
		require.NoError(t, store.AddPlayer(ctx, p))
	}
	require.NoError(t, store.RunInTx(ctx, func(tx engine.Tx) error {
		for _, p := range players {
			if err := tx.AddScore(p.ID, startingScore); err != nil {
				return err
			}
		}
		return nil
	}))

	mb := newMockBroadcaster()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	eng := engine.New(store, mb, staticWords{}, logger)

	return store, eng, lobby, players, mb
}

// activeRound reads the lobby's current round.
func activeRound(t *testing.T, store *memstore.Store, lobbyID uuid.UUID) *models.Round {
	t.Helper()
	var round *models.Round
	err := store.RunInTx(context.Background(), func(tx engine.Tx) error {
		r, err := tx.ActiveRound(lobbyID)
		round = r
		return err
	})
	require.NoError(t, err)
	return round
}

// roundComplete reports whether the lobby has no active round left.
func roundComplete(t *testing.T, store *memstore.Store, lobbyID uuid.UUID) bool {
	t.Helper()
	err := store.RunInTx(context.Background(), func(tx engine.Tx) error {
		_, err := tx.ActiveRound(lobbyID)
		return err
	})
	return errors.Is(err, engine.ErrNoActiveRound)
}

// score reads one player's committed score.
func score(t *testing.T, store *memstore.Store, playerID uuid.UUID) int {
	t.Helper()
	var got int
	err := store.RunInTx(context.Background(), func(tx engine.Tx) error {
		p, err := tx.GetPlayer(playerID)
		if err != nil {
			return err
		}
		got = p.Score
		return nil
	})
	require.NoError(t, err)
	return got
}

// completeHints drives the hint phase to its end by always submitting for the
// active player.
func completeHints(t *testing.T, eng *engine.Engine, store *memstore.Store, lobbyID uuid.UUID) {
	t.Helper()
	for {
		round := activeRound(t, store, lobbyID)
		if round.Status != models.StatusInProgress {
			return
		}
		active := engine.ActivePlayer(round.TurnOrder, round.CurrentTurn)
		require.NoError(t, eng.SubmitHint(context.Background(), lobbyID, active, "a hint"))
	}
}

// civiliansOf splits the roster around the round's imposter.
func civiliansOf(round *models.Round, players []*models.Player) (civilians []*models.Player, imposter *models.Player) {
	for _, p := range players {
		if p.ID == round.ImposterID {
			imposter = p
		} else {
			civilians = append(civilians, p)
		}
	}
	return civilians, imposter
}
