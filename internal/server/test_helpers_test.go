package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"story-cards/internal/config"
	"story-cards/internal/db"
	"story-cards/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn, err := db.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	catalog := make(game.StaticCatalog, 100)
	for i := range catalog {
		id := fmt.Sprintf("card-%03d", i)
		catalog[i] = game.CardInfo{ID: id, ImageURL: "/cards/" + id + ".png"}
	}
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	engine := game.New(conn, catalog, cfg, zap.NewNop(), game.WithRand(rand.New(rand.NewPCG(3, 5))))
	ts := newTestServer(t, New(engine, cfg, zap.NewNop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	decodeInto(t, resp, &body)
	return body
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		body := decodeBody(t, resp)
		t.Fatalf("expected status %d, got %d: %v", status, resp.StatusCode, body)
	}
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, code, body["code"], "body: %v", body)
}
