// internal/handlers/round.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/engine"
)

// caller authenticates the request and returns the acting player and lobby.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (playerID, lobbyID uuid.UUID, ok bool) {
	sess, lobbyID, err := s.session(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	playerID, err = playerUUID(sess)
	if err != nil {
		http.Error(w, "invalid player id in token", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return playerID, lobbyID, true
}

// StartRoundHandler starts a new round. Host only.
func (s *Server) StartRoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		round, err := s.Engine.StartRound(r.Context(), lobbyID, playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, round)
	}
}

// SubmitHintHandler records the active player's hint.
func (s *Server) SubmitHintHandler() http.HandlerFunc {
	type request struct {
		Text string `json:"text"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad hint payload", http.StatusBadRequest)
			return
		}
		if err := s.Engine.SubmitHint(r.Context(), lobbyID, playerID, req.Text); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PlaceBetHandler records a standalone bet during the betting window.
func (s *Server) PlaceBetHandler() http.HandlerFunc {
	type request struct {
		TargetID uuid.UUID `json:"target_id"`
		Amount   int       `json:"amount"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad bet payload", http.StatusBadRequest)
			return
		}
		if err := s.Engine.PlaceBet(r.Context(), lobbyID, playerID, req.TargetID, req.Amount); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CompleteBettingHandler force-closes the betting window. Host only.
func (s *Server) CompleteBettingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		if err := s.requireHost(r, lobbyID, playerID); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := s.Engine.CompleteBettingPhase(r.Context(), lobbyID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CastVoteHandler records a vote, optionally carrying a co-located bet.
func (s *Server) CastVoteHandler() http.HandlerFunc {
	type request struct {
		SuspectID uuid.UUID            `json:"suspect_id"`
		Bet       *engine.BetPlacement `json:"bet,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad vote payload", http.StatusBadRequest)
			return
		}
		if err := s.Engine.CastVote(r.Context(), lobbyID, playerID, req.SuspectID, req.Bet); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// EmergencyVoteHandler interrupts the hint phase with an emergency vote.
func (s *Server) EmergencyVoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		if err := s.Engine.InitiateEmergencyVote(r.Context(), lobbyID, playerID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SubmitGuessHandler lets a caught imposter guess the word.
func (s *Server) SubmitGuessHandler() http.HandlerFunc {
	type request struct {
		Guess string `json:"guess"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad guess payload", http.StatusBadRequest)
			return
		}
		if err := s.Engine.SubmitGuess(r.Context(), lobbyID, playerID, req.Guess); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RestartGameHandler wipes scores and round history. Host only.
func (s *Server) RestartGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		if err := s.Engine.RestartGame(r.Context(), lobbyID, playerID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RemovePlayerHandler kicks a player from the lobby. Host only.
func (s *Server) RemovePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		targetID, err := uuid.Parse(chi.URLParam(r, "playerID"))
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}
		if err := s.Engine.RemovePlayer(r.Context(), lobbyID, playerID, targetID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// StateHandler returns the viewer-scoped lobby snapshot.
func (s *Server) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, lobbyID, ok := s.caller(w, r)
		if !ok {
			return
		}
		snap, err := s.Engine.State(r.Context(), lobbyID, playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// requireHost verifies the caller is the lobby host.
func (s *Server) requireHost(r *http.Request, lobbyID, playerID uuid.UUID) error {
	lobby, err := s.Store.GetLobby(r.Context(), lobbyID)
	if err != nil {
		return err
	}
	if lobby.HostID != playerID {
		return engine.ErrNotHost
	}
	return nil
}
