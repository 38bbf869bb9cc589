package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"story-cards/internal/game"

	"github.com/stretchr/testify/require"
)

type player struct {
	ID    string
	Name  string
	Token string
}

func guest(t *testing.T, ts *httptest.Server, name string) player {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/auth/guest", "", map[string]string{"name": name})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	return player{
		ID:    body["player_id"].(string),
		Name:  body["name"].(string),
		Token: body["token"].(string),
	}
}

func createRoom(t *testing.T, ts *httptest.Server, host player, payload map[string]any) game.RoomView {
	t.Helper()
	if payload == nil {
		payload = map[string]any{"name": "HTTP Table"}
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", host.Token, payload)
	expectStatus(t, resp, http.StatusCreated)
	var view game.RoomView
	decodeInto(t, resp, &view)
	return view
}

func joinRoom(t *testing.T, ts *httptest.Server, code string, p player) game.RoomView {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/join", p.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var view game.RoomView
	decodeInto(t, resp, &view)
	return view
}

func setReady(t *testing.T, ts *httptest.Server, code string, p player) bool {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/ready", p.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	return decodeBody(t, resp)["ready"].(bool)
}

func fetchGame(t *testing.T, ts *httptest.Server, code string, p player) game.GameView {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/game/"+code, p.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var view game.GameView
	decodeInto(t, resp, &view)
	return view
}

// startGame seats count players (the first is host), readies them and starts the game.
func startGame(t *testing.T, ts *httptest.Server, count int) (string, []player) {
	t.Helper()
	names := []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Edsger"}
	players := make([]player, 0, count)
	for i := 0; i < count; i++ {
		players = append(players, guest(t, ts, names[i]))
	}
	code := createRoom(t, ts, players[0], nil).Code
	for _, p := range players[1:] {
		joinRoom(t, ts, code, p)
		require.True(t, setReady(t, ts, code, p))
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/start", players[0].Token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	return code, players
}

func splitStoryteller(t *testing.T, ts *httptest.Server, code string, players []player) (player, []player) {
	t.Helper()
	var storyteller player
	var others []player
	for _, p := range players {
		if fetchGame(t, ts, code, p).Round.IsStoryteller {
			storyteller = p
			continue
		}
		others = append(others, p)
	}
	require.NotEmpty(t, storyteller.Token)
	return storyteller, others
}
