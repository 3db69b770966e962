// internal/memstore/memstore.go
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

// Store is an in-memory engine.Store used by the memory driver and the engine
// tests. One mutex serializes every transaction, which trivially satisfies
// the serializable-isolation contract; a failed transaction restores the
// pre-transaction snapshot so partial writes never leak.
type Store struct {
	mu sync.Mutex

	lobbies     map[uuid.UUID]*models.Lobby
	players     map[uuid.UUID]*models.Player
	rounds      map[uuid.UUID]*models.Round
	hints       map[uuid.UUID][]*models.Hint
	votes       map[uuid.UUID][]*models.Vote
	bets        map[uuid.UUID][]*models.Bet
	emergencies map[uuid.UUID]*models.EmergencyVote
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		lobbies:     make(map[uuid.UUID]*models.Lobby),
		players:     make(map[uuid.UUID]*models.Player),
		rounds:      make(map[uuid.UUID]*models.Round),
		hints:       make(map[uuid.UUID][]*models.Hint),
		votes:       make(map[uuid.UUID][]*models.Vote),
		bets:        make(map[uuid.UUID][]*models.Bet),
		emergencies: make(map[uuid.UUID]*models.EmergencyVote),
	}
}

// RunInTx serializes fn under the store mutex and rolls every write back when
// fn fails.
func (s *Store) RunInTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type state struct {
	lobbies     map[uuid.UUID]*models.Lobby
	players     map[uuid.UUID]*models.Player
	rounds      map[uuid.UUID]*models.Round
	hints       map[uuid.UUID][]*models.Hint
	votes       map[uuid.UUID][]*models.Vote
	bets        map[uuid.UUID][]*models.Bet
	emergencies map[uuid.UUID]*models.EmergencyVote
}

func (s *Store) snapshot() state {
	snap := state{
		lobbies:     make(map[uuid.UUID]*models.Lobby, len(s.lobbies)),
		players:     make(map[uuid.UUID]*models.Player, len(s.players)),
		rounds:      make(map[uuid.UUID]*models.Round, len(s.rounds)),
		hints:       make(map[uuid.UUID][]*models.Hint, len(s.hints)),
		votes:       make(map[uuid.UUID][]*models.Vote, len(s.votes)),
		bets:        make(map[uuid.UUID][]*models.Bet, len(s.bets)),
		emergencies: make(map[uuid.UUID]*models.EmergencyVote, len(s.emergencies)),
	}
	for id, l := range s.lobbies {
		snap.lobbies[id] = copyLobby(l)
	}
	for id, p := range s.players {
		snap.players[id] = copyPlayer(p)
	}
	for id, r := range s.rounds {
		snap.rounds[id] = copyRound(r)
	}
	for id, hs := range s.hints {
		snap.hints[id] = copySlice(hs, copyHint)
	}
	for id, vs := range s.votes {
		snap.votes[id] = copySlice(vs, copyVote)
	}
	for id, bs := range s.bets {
		snap.bets[id] = copySlice(bs, copyBet)
	}
	for id, ev := range s.emergencies {
		cp := *ev
		snap.emergencies[id] = &cp
	}
	return snap
}

func (s *Store) restore(snap state) {
	s.lobbies = snap.lobbies
	s.players = snap.players
	s.rounds = snap.rounds
	s.hints = snap.hints
	s.votes = snap.votes
	s.bets = snap.bets
	s.emergencies = snap.emergencies
}

func copyLobby(l *models.Lobby) *models.Lobby {
	cp := *l
	return &cp
}

func copyPlayer(p *models.Player) *models.Player {
	cp := *p
	return &cp
}

func copyRound(r *models.Round) *models.Round {
	cp := *r
	cp.TurnOrder = append([]uuid.UUID(nil), r.TurnOrder...)
	return &cp
}

func copyHint(h *models.Hint) *models.Hint {
	cp := *h
	return &cp
}

func copyVote(v *models.Vote) *models.Vote {
	cp := *v
	return &cp
}

func copyBet(b *models.Bet) *models.Bet {
	cp := *b
	if b.Payout != nil {
		p := *b.Payout
		cp.Payout = &p
	}
	return &cp
}

func copySlice[T any](in []*T, cp func(*T) *T) []*T {
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = cp(v)
	}
	return out
}

// --- lobby-surface helpers used by the HTTP layer (not part of engine.Tx) ---

// CreateLobby inserts a lobby.
func (s *Store) CreateLobby(ctx context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.ID] = copyLobby(lobby)
	return nil
}

// GetLobby fetches a lobby outside any engine transaction.
func (s *Store) GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, engine.ErrLobbyNotFound
	}
	return copyLobby(l), nil
}

// AddPlayer inserts a lobby member, enforcing name uniqueness per lobby.
func (s *Store) AddPlayer(ctx context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[player.LobbyID]; !ok {
		return engine.ErrLobbyNotFound
	}
	for _, p := range s.players {
		if p.LobbyID == player.LobbyID && p.Name == player.Name {
			return engine.ErrNameTaken
		}
	}
	s.players[player.ID] = copyPlayer(player)
	return nil
}
