// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/imposterhq/imposter/internal/broadcast"
	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/middleware"
)

// LobbyWSHandler upgrades the connection and streams game events to the
// player. The subscription covers the lobby-wide topic plus the player's
// private topic, so role reveals only reach their owner.
func (s *Server) LobbyWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		sess, lobbyID, err := s.session(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		playerID, err := playerUUID(sess)
		if err != nil {
			http.Error(w, "invalid player id in token", http.StatusBadRequest)
			return
		}

		if _, err := s.Store.GetLobby(r.Context(), lobbyID); err != nil {
			writeDomainError(w, err)
			return
		}

		// A token alone is not enough: players removed from the roster still
		// hold valid JWTs until they expire.
		member, err := s.Auth.BelongsToLobby(r.Context(), lobbyID, playerID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "not a member of this lobby", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"imposter"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			s.Log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "imposter" {
			c.Close(BadSubprotocolError, "client must speak the imposter subprotocol")
			return
		}

		middleware.LogWebSocketConnect(s.Log, remoteAddr, r.URL.Path)

		sub := s.Hub.Subscribe(
			engine.LobbyTopic(lobbyID),
			engine.PlayerTopic(lobbyID, playerID),
		)
		defer sub.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go wsWritePump(ctx, c, sub, s.Log, playerID)

		err = wsReadPump(ctx, c, s.Log, lobbyID, playerID)
		middleware.LogWebSocketDisconnect(s.Log, remoteAddr, r.URL.Path, err)
	}
}

// wsReadPump drains incoming frames until the client disconnects. The wire
// protocol is server-push; the only client frame acted upon is "ping".
func wsReadPump(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, lobbyID, playerID uuid.UUID) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("Lobby %s: non-text frame from player %v, ignoring", lobbyID, playerID)
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("Lobby %s: invalid json from player %v: %v", lobbyID, playerID, err)
			continue
		}
		if action, _ := packet["type"].(string); action == "ping" {
			data, _ := json.Marshal(map[string]string{"type": "pong"})
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// wsWritePump forwards hub events to the socket and pings periodically.
func wsWritePump(ctx context.Context, c *websocket.Conn, sub *broadcast.Subscription, logger *logrus.Logger, playerID uuid.UUID) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal event for player %v: %v", playerID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for player %v: %v", playerID, err)
				return
			}
		}
	}
}
