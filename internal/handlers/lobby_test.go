// internal/handlers/lobby_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imposterhq/imposter/internal/auth"
	"github.com/imposterhq/imposter/internal/broadcast"
	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/memstore"
)

type staticWords struct{}

func (staticWords) NextWord() (string, string) { return "penguin", "Animals" }

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	auth.Init() // ephemeral keys

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := memstore.New()
	hub := broadcast.NewHub(logger)
	eng := engine.New(store, hub, staticWords{}, logger)
	srv := NewServer(eng, store, hub, logger)
	return srv, srv.Routes()
}

func TestCreateLobby(t *testing.T) {
	_, router := newTestServer(t)

	body := `{"name":"game night","player_name":"ada","settings":{"betting_enabled":true}}`
	req := httptest.NewRequest("POST", "/lobby", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp lobbyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.Lobby.ID)
	assert.Equal(t, resp.Player.ID, resp.Lobby.HostID)
	assert.True(t, resp.IsHost)
	assert.True(t, resp.Lobby.Settings.BettingEnabled)
	assert.NotEmpty(t, resp.Token)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "auth_token", cookies[0].Name)
}

func TestCreateLobbyRequiresPlayerName(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest("POST", "/lobby", bytes.NewBufferString(`{"name":"x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinLobby(t *testing.T) {
	_, router := newTestServer(t)

	// Host creates a private lobby.
	body := `{"name":"secret club","player_name":"ada","private":true,"passcode":"hunter2"}`
	req := httptest.NewRequest("POST", "/lobby", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created lobbyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	joinPath := "/lobby/" + created.Lobby.ID.String() + "/join"

	t.Run("wrong passcode is rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", joinPath, bytes.NewBufferString(`{"player_name":"bob","passcode":"wrong"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("correct passcode joins", func(t *testing.T) {
		req := httptest.NewRequest("POST", joinPath, bytes.NewBufferString(`{"player_name":"bob","passcode":"hunter2"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var joined lobbyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
		assert.False(t, joined.IsHost)
		assert.Equal(t, created.Lobby.ID, joined.Player.LobbyID)
	})

	t.Run("duplicate display names are rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", joinPath, bytes.NewBufferString(`{"player_name":"bob","passcode":"hunter2"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestRoundEndpointsRequireAuth(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest("POST", "/lobby/"+uuid.NewString()+"/round/start", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenScopedToLobby(t *testing.T) {
	_, router := newTestServer(t)

	create := func(name string) lobbyResponse {
		body := `{"name":"l","player_name":"` + name + `"}`
		req := httptest.NewRequest("POST", "/lobby", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp lobbyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	first := create("ada")
	second := create("bob")

	// A token minted for the first lobby cannot act in the second.
	req := httptest.NewRequest("POST", "/lobby/"+second.Lobby.ID.String()+"/round/start", nil)
	req.Header.Set("Cookie", "auth_token="+first.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartRoundOverHTTP(t *testing.T) {
	_, router := newTestServer(t)

	create := httptest.NewRequest("POST", "/lobby", bytes.NewBufferString(`{"name":"l","player_name":"ada"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, create)
	require.Equal(t, http.StatusCreated, w.Code)
	var host lobbyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &host))

	joinPath := "/lobby/" + host.Lobby.ID.String() + "/join"
	for _, name := range []string{"bob", "eve"} {
		req := httptest.NewRequest("POST", joinPath, bytes.NewBufferString(`{"player_name":"`+name+`"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	startPath := "/lobby/" + host.Lobby.ID.String() + "/round/start"
	req := httptest.NewRequest("POST", startPath, nil)
	req.Header.Set("Cookie", "auth_token="+host.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("starting twice maps to 409", func(t *testing.T) {
		req := httptest.NewRequest("POST", startPath, nil)
		req.Header.Set("Cookie", "auth_token="+host.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("state endpoint never serializes round secrets", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/lobby/"+host.Lobby.ID.String()+"/state", nil)
		req.Header.Set("Cookie", "auth_token="+host.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "imposter_id")

		var snap engine.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		require.NotNil(t, snap.Round)
		assert.Empty(t, snap.Round.Word) // json:"-"
	})
}
