// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/auth"
	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/models"
)

// createLobbyRequest is the body for POST /lobby.
type createLobbyRequest struct {
	Name       string                `json:"name"`
	PlayerName string                `json:"player_name"`
	Private    bool                  `json:"private"`
	Passcode   string                `json:"passcode"`
	Settings   *models.LobbySettings `json:"settings"`
}

// joinLobbyRequest is the body for POST /lobby/{id}/join.
type joinLobbyRequest struct {
	PlayerName string `json:"player_name"`
	Passcode   string `json:"passcode"`
}

// lobbyResponse echoes the created membership back to the client. The token
// is also set as the auth_token cookie.
type lobbyResponse struct {
	Lobby    *models.Lobby  `json:"lobby"`
	Player   *models.Player `json:"player"`
	Token    string         `json:"token"`
	IsHost   bool           `json:"is_host"`
	WSPath   string         `json:"ws_path"`
	JoinPath string         `json:"join_path,omitempty"`
}

// CreateLobbyHandler creates a lobby and registers the caller as its host.
func (s *Server) CreateLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad lobby request payload", http.StatusBadRequest)
			return
		}
		req.PlayerName = trimName(req.PlayerName)
		if req.PlayerName == "" {
			http.Error(w, "player_name is required", http.StatusBadRequest)
			return
		}
		if req.Private && req.Passcode == "" {
			http.Error(w, "private lobby requires a passcode", http.StatusBadRequest)
			return
		}

		lobby := &models.Lobby{
			ID:      uuid.New(),
			Name:    req.Name,
			Private: req.Private,
		}
		if req.Settings != nil {
			lobby.Settings = *req.Settings
		}
		if req.Private {
			hash, err := auth.HashPasscode(req.Passcode, auth.Params)
			if err != nil {
				s.Log.Warnf("failed to hash passcode: %v", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			lobby.PasscodeHash = hash
		}

		host := &models.Player{
			ID:       uuid.New(),
			LobbyID:  lobby.ID,
			Name:     req.PlayerName,
			IsOnline: true,
		}
		lobby.HostID = host.ID

		if err := s.Store.CreateLobby(r.Context(), lobby); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := s.Store.AddPlayer(r.Context(), host); err != nil {
			writeDomainError(w, err)
			return
		}

		token, err := setAuthCookie(w, host.ID, lobby.ID)
		if err != nil {
			s.Log.Warnf("failed to mint session token: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, lobbyResponse{
			Lobby:    lobby,
			Player:   host,
			Token:    token,
			IsHost:   true,
			WSPath:   "/lobby/" + lobby.ID.String() + "/ws",
			JoinPath: "/lobby/" + lobby.ID.String() + "/join",
		})
	}
}

// JoinLobbyHandler adds a player to an existing lobby. Private lobbies
// require the passcode chosen by the host.
func (s *Server) JoinLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID, err := uuid.Parse(chi.URLParam(r, "lobbyID"))
		if err != nil {
			http.Error(w, "invalid lobby id", http.StatusBadRequest)
			return
		}

		var req joinLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad join request payload", http.StatusBadRequest)
			return
		}
		req.PlayerName = trimName(req.PlayerName)
		if req.PlayerName == "" {
			http.Error(w, "player_name is required", http.StatusBadRequest)
			return
		}

		lobby, err := s.Store.GetLobby(r.Context(), lobbyID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if lobby.Private {
			ok, err := auth.VerifyPasscode(req.Passcode, lobby.PasscodeHash)
			if err != nil || !ok {
				http.Error(w, "wrong passcode", http.StatusForbidden)
				return
			}
		}

		if lobby.Settings.MaxPlayers > 0 {
			full, err := s.lobbyFull(r, lobbyID, lobby.Settings.MaxPlayers)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			if full {
				http.Error(w, "lobby is full", http.StatusConflict)
				return
			}
		}

		player := &models.Player{
			ID:       uuid.New(),
			LobbyID:  lobbyID,
			Name:     req.PlayerName,
			IsOnline: true,
		}
		if err := s.Store.AddPlayer(r.Context(), player); err != nil {
			writeDomainError(w, err)
			return
		}

		token, err := setAuthCookie(w, player.ID, lobbyID)
		if err != nil {
			s.Log.Warnf("failed to mint session token: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, lobbyResponse{
			Lobby:  lobby,
			Player: player,
			Token:  token,
			IsHost: lobby.HostID == player.ID,
			WSPath: "/lobby/" + lobbyID.String() + "/ws",
		})
	}
}

// lobbyFull counts current members against the configured cap.
func (s *Server) lobbyFull(r *http.Request, lobbyID uuid.UUID, max int) (bool, error) {
	var count int
	err := s.Store.RunInTx(r.Context(), func(tx engine.Tx) error {
		players, err := tx.PlayersByLobby(lobbyID)
		if err != nil {
			return err
		}
		count = len(players)
		return nil
	})
	return count >= max, err
}
