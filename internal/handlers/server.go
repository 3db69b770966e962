// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/imposterhq/imposter/internal/auth"
	"github.com/imposterhq/imposter/internal/broadcast"
	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/middleware"
	"github.com/imposterhq/imposter/internal/models"

	"github.com/google/uuid"
)

// Store is the persistence surface the HTTP layer needs: the transactional
// engine store plus the lobby membership helpers.
type Store interface {
	engine.Store
	CreateLobby(ctx context.Context, lobby *models.Lobby) error
	GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error)
	AddPlayer(ctx context.Context, player *models.Player) error
}

// Server wires the round engine and event hub into HTTP and WebSocket handlers.
type Server struct {
	Engine *engine.Engine
	Store  Store
	Hub    *broadcast.Hub
	Auth   engine.LobbyAuthorizer
	Log    *logrus.Logger
}

func NewServer(eng *engine.Engine, store Store, hub *broadcast.Hub, log *logrus.Logger) *Server {
	return &Server{
		Engine: eng,
		Store:  store,
		Hub:    hub,
		Auth:   engine.StoreAuthorizer{Store: store},
		Log:    log,
	}
}

// Routes builds the chi router for the whole API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(s.Log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/lobby", s.CreateLobbyHandler())
	r.Route("/lobby/{lobbyID}", func(r chi.Router) {
		r.Post("/join", s.JoinLobbyHandler())
		r.Get("/ws", s.LobbyWSHandler())
		r.Get("/state", s.StateHandler())

		r.Post("/round/start", s.StartRoundHandler())
		r.Post("/round/hint", s.SubmitHintHandler())
		r.Post("/round/bet", s.PlaceBetHandler())
		r.Post("/round/bet/close", s.CompleteBettingHandler())
		r.Post("/round/vote", s.CastVoteHandler())
		r.Post("/round/emergency", s.EmergencyVoteHandler())
		r.Post("/round/guess", s.SubmitGuessHandler())
		r.Post("/restart", s.RestartGameHandler())

		r.Delete("/players/{playerID}", s.RemovePlayerHandler())
	})

	return r
}

// session authenticates the request via the auth_token cookie and checks that
// the token was minted for the lobby named in the URL.
func (s *Server) session(r *http.Request) (auth.Session, uuid.UUID, error) {
	lobbyID, err := uuid.Parse(chi.URLParam(r, "lobbyID"))
	if err != nil {
		return auth.Session{}, uuid.Nil, errors.New("invalid lobby id")
	}

	cookieHeader := r.Header.Get("Cookie")
	token := extractCookieToken(cookieHeader, "auth_token")
	if token == "" {
		// WS clients that cannot set cookies pass the token as a query param.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return auth.Session{}, uuid.Nil, errors.New("missing auth_token")
	}

	sess, err := auth.AuthenticateJWT(token)
	if err != nil {
		return auth.Session{}, uuid.Nil, err
	}
	if sess.LobbyID != lobbyID.String() {
		return auth.Session{}, uuid.Nil, errors.New("token was issued for another lobby")
	}
	return sess, lobbyID, nil
}

// playerUUID parses the session subject.
func playerUUID(sess auth.Session) (uuid.UUID, error) {
	return uuid.Parse(sess.PlayerID)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps engine sentinel errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, engine.ErrLobbyNotFound),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, engine.ErrNoActiveRound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotHost),
		errors.Is(err, engine.ErrNotImposter),
		errors.Is(err, engine.ErrImposterPanic),
		errors.Is(err, engine.ErrNotInLobby):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrRoundInProgress),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrAlreadyVoted),
		errors.Is(err, engine.ErrAlreadyBet),
		errors.Is(err, engine.ErrEmergencyActive),
		errors.Is(err, engine.ErrNameTaken):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidInput),
		errors.Is(err, engine.ErrSelfVote),
		errors.Is(err, engine.ErrSelfBet),
		errors.Is(err, engine.ErrImposterBet),
		errors.Is(err, engine.ErrBetAmountRange),
		errors.Is(err, engine.ErrInsufficientScore),
		errors.Is(err, engine.ErrNotEnoughPlayers):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// setAuthCookie issues the session token for a player in a lobby.
func setAuthCookie(w http.ResponseWriter, playerID, lobbyID uuid.UUID) (string, error) {
	token, err := auth.CreateJWT(playerID.String(), lobbyID.String())
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// trimName normalizes a display name.
func trimName(name string) string {
	return strings.TrimSpace(name)
}
