package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"story-cards/internal/config"
	"story-cards/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testCatalog(size int) StaticCatalog {
	cards := make(StaticCatalog, size)
	for i := range cards {
		id := fmt.Sprintf("card-%03d", i)
		cards[i] = CardInfo{ID: id, ImageURL: "/cards/" + id + ".png"}
	}
	return cards
}

func newTestEngine(t *testing.T, catalogSize int) (*Engine, *gorm.DB) {
	t.Helper()
	return newTestEngineWithConfig(t, catalogSize, config.Default())
}

func newTestEngineWithConfig(t *testing.T, catalogSize int, cfg config.Config) (*Engine, *gorm.DB) {
	t.Helper()
	conn, err := db.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	engine := New(conn, testCatalog(catalogSize), cfg, zap.NewNop(),
		WithRand(rand.New(rand.NewPCG(7, 11))))
	return engine, conn
}

func actors(n int) []Actor {
	out := make([]Actor, n)
	for i := range out {
		out[i] = Actor{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	return out
}

func createRoom(t *testing.T, e *Engine, host Actor, settings RoomSettings) string {
	t.Helper()
	if settings.Name == "" {
		settings.Name = "Test Table"
	}
	code, err := e.CreateRoom(context.Background(), host, settings)
	require.NoError(t, err)
	return code
}

// startedRoom creates a room with n players, readies everyone and starts it.
func startedRoom(t *testing.T, e *Engine, n int, settings RoomSettings) (string, []Actor) {
	t.Helper()
	ctx := context.Background()
	players := actors(n)
	code := createRoom(t, e, players[0], settings)
	for _, p := range players[1:] {
		require.NoError(t, e.Join(ctx, code, p))
		ready, err := e.SetReady(ctx, code, p)
		require.NoError(t, err)
		require.True(t, ready)
	}
	require.NoError(t, e.Start(ctx, code, players[0]))
	return code, players
}

func gameView(t *testing.T, e *Engine, code string, actor Actor) GameView {
	t.Helper()
	view, err := e.Game(context.Background(), code, actor)
	require.NoError(t, err)
	return view
}

func storytellerOf(t *testing.T, e *Engine, code string, players []Actor) (Actor, []Actor) {
	t.Helper()
	var storyteller Actor
	var others []Actor
	found := false
	for _, p := range players {
		view := gameView(t, e, code, p)
		require.NotNil(t, view.Round)
		if view.Round.IsStoryteller {
			storyteller = p
			found = true
			continue
		}
		others = append(others, p)
	}
	require.True(t, found, "no storyteller in room %s", code)
	return storyteller, others
}

func firstCard(t *testing.T, e *Engine, code string, actor Actor) string {
	t.Helper()
	view := gameView(t, e, code, actor)
	require.NotEmpty(t, view.Hand)
	return view.Hand[0].ID
}

// playToVoting gives a clue and submits a card for every other player. It returns the storyteller,
// the storyteller's card and the card each other player submitted.
func playToVoting(t *testing.T, e *Engine, code string, players []Actor) (Actor, string, []Actor, map[string]string) {
	t.Helper()
	ctx := context.Background()
	storyteller, others := storytellerOf(t, e, code, players)
	storyCard := firstCard(t, e, code, storyteller)
	require.NoError(t, e.SubmitClue(ctx, code, storyteller, storyCard, "whisper"))
	played := make(map[string]string, len(others))
	for _, p := range others {
		card := firstCard(t, e, code, p)
		require.NoError(t, e.SubmitCard(ctx, code, p, card))
		played[p.ID] = card
	}
	return storyteller, storyCard, others, played
}

func scores(t *testing.T, e *Engine, code string, viewer Actor) map[string]int {
	t.Helper()
	view := gameView(t, e, code, viewer)
	out := make(map[string]int, len(view.Room.Participants))
	for _, p := range view.Room.Participants {
		out[p.Name] = p.Score
	}
	return out
}
