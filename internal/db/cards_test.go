package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCardsSkipsHeaderAndBlankRows(t *testing.T) {
	input := "filename,image_url,id\n" +
		"owl.png,/cards/owl.png,card-owl\n" +
		",/cards/none.png\n" +
		"fox.png, /cards/fox.png\n" +
		"lonely\n"
	records, err := readCards(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "card-owl", records[0].ID)
	assert.Equal(t, "/cards/fox.png", records[1].ImageURL)
	assert.NotEmpty(t, records[1].ID)
}

func TestLoadCardCatalogUpsertsByFilename(t *testing.T) {
	conn, err := OpenMemory(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	path := filepath.Join(t.TempDir(), "cards.csv")
	require.NoError(t, os.WriteFile(path, []byte("filename,image_url,id\nowl.png,/a/owl.png,owl\nfox.png,/a/fox.png,fox\n"), 0o644))
	loaded, err := LoadCardCatalog(conn, path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	require.NoError(t, os.WriteFile(path, []byte("filename,image_url,id\nowl.png,/b/owl.png,other\n"), 0o644))
	_, err = LoadCardCatalog(conn, path)
	require.NoError(t, err)

	cards, err := ActiveCards(conn)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "fox", cards[0].ID)
	assert.Equal(t, "owl", cards[1].ID)
	assert.Equal(t, "/b/owl.png", cards[1].ImageURL)
}
