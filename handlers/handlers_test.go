package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/handlers"
	"github.com/Dosada05/matchday/realtime"
	"github.com/Dosada05/matchday/routes"
	"github.com/Dosada05/matchday/services"
	"github.com/Dosada05/matchday/session"
)

type testServer struct {
	*httptest.Server
	manager *session.Manager
	dir     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hub := realtime.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	manager := session.NewManager(session.Options{
		Seed:       3,
		Simulation: services.SimulationConfig{Workers: 2},
		Notifier:   hub,
	}, logger)
	t.Cleanup(func() { manager.Close() })

	router := chi.NewRouter()
	routes.SetupRoutes(router, logger,
		handlers.NewSaveHandler(manager),
		handlers.NewGameHandler(manager),
		handlers.NewWebSocketHandler(hub, manager),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, manager: manager, dir: t.TempDir()}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	if resp.ContentLength != 0 {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp.StatusCode, decoded
}

func (s *testServer) newGame(t *testing.T) map[string]interface{} {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/saves", map[string]interface{}{
		"path":       filepath.Join(s.dir, "career.db"),
		"name":       "career",
		"start_date": "2025-08-01",
		"world": map[string]interface{}{
			"nations":          []string{"Testland"},
			"clubs_per_nation": 4,
			"players_per_club": 14,
		},
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body
}

func TestOperationsRequireLoadedSave(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/advance", "/season-end"} {
		status, body := srv.do(t, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusConflict, status, path)
		assert.Contains(t, body["error"], "no save is loaded")
	}
	status, _ := srv.do(t, http.MethodGet, "/clubs/1/balance", nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestGameFlow(t *testing.T) {
	srv := newTestServer(t)
	game := srv.newGame(t)

	fixtures := game["fixtures"].(map[string]interface{})
	competitions := fixtures["competitions"].([]interface{})
	require.Len(t, competitions, 1)
	competitionID := int64(competitions[0].(map[string]interface{})["competition_id"].(float64))
	seasonID := int64(fixtures["season_id"].(float64))

	status, body := srv.do(t, http.MethodPost, "/advance", nil)
	require.Equal(t, http.StatusOK, status, body)
	day := body["day"].(map[string]interface{})
	assert.Equal(t, float64(2), day["matches_played"])
	assert.Equal(t, "2025-08-02", day["new_date"])

	status, body = srv.do(t, http.MethodGet, "/clock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-08-02", body["clock"].(map[string]interface{})["current_date"])

	status, body = srv.do(t, http.MethodGet, fmt.Sprintf("/competitions/%d/seasons/%d/standings", competitionID, seasonID), nil)
	require.Equal(t, http.StatusOK, status)
	table := body["standings"].([]interface{})
	require.Len(t, table, 4)
	first := table[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["position"])
	clubID := int64(first["club_id"].(float64))

	status, body = srv.do(t, http.MethodGet, fmt.Sprintf("/competitions/%d/seasons/%d/standings?club_id=%d", competitionID, seasonID, clubID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["history"], 1)

	// Generating again leaves the scheduled league alone.
	status, body = srv.do(t, http.MethodPost, fmt.Sprintf("/seasons/%d/fixtures", seasonID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["matches_created"])

	status, body = srv.do(t, http.MethodGet, fmt.Sprintf("/clubs/%d/balance", clubID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["balance"])

	status, _ = srv.do(t, http.MethodGet, "/clubs/999999/balance", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = srv.do(t, http.MethodPost, "/season-end", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body["error"], "has not been reached")
}

func TestSimulateMatchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.newGame(t)

	status, body := srv.do(t, http.MethodPost, "/matches/1/simulate", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["match_id"])
	assert.NotEmpty(t, body["match_log"])

	status, _ = srv.do(t, http.MethodPost, "/matches/1/simulate", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = srv.do(t, http.MethodGet, "/matches/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["stats"], 22)

	status, _ = srv.do(t, http.MethodPost, "/matches/424242/simulate", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = srv.do(t, http.MethodPost, "/matches/abc/simulate", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoadSave(t *testing.T) {
	srv := newTestServer(t)
	game := srv.newGame(t)
	require.NoError(t, srv.manager.Close())

	status, body := srv.do(t, http.MethodPost, "/saves/load", map[string]interface{}{
		"path": filepath.Join(srv.dir, "career.db"),
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, game["save_id"], body["save_id"])

	status, body = srv.do(t, http.MethodPost, "/saves/load", map[string]interface{}{"path": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "path is required", body["error"])

	status, body = srv.do(t, http.MethodPost, "/saves/load", map[string]interface{}{"path": "x", "extra": true})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unknown key")
}

func TestWebSocketReceivesDayAdvanced(t *testing.T) {
	srv := newTestServer(t)
	srv.newGame(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	s, err := srv.manager.Current()
	require.NoError(t, err)

	// Registration goes through the hub loop, keep advancing until the
	// client has joined and a day notification arrives.
	deadline := time.Now().Add(5 * time.Second)
	got := make(chan services.Notification, 16)
	go func() {
		for {
			var n services.Notification
			if err := conn.ReadJSON(&n); err != nil {
				close(got)
				return
			}
			got <- n
		}
	}()

	for time.Now().Before(deadline) {
		_, err := s.Services.Days.AdvanceOneDay(context.Background(), s.ID)
		require.NoError(t, err)
		for drained := false; !drained; {
			select {
			case n, ok := <-got:
				require.True(t, ok)
				if n.Type == services.MessageDayAdvanced {
					return
				}
			case <-time.After(50 * time.Millisecond):
				drained = true
			}
		}
	}
	t.Fatal("no DAY_ADVANCED notification received")
}
