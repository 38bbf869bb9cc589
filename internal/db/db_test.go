package db

import (
	"path/filepath"
	"sync"
	"testing"

	"story-cards/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestSQLiteDSNAddsLockingDefaults(t *testing.T) {
	assert.Equal(t,
		"/tmp/cards.db?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL",
		SQLiteDSN("/tmp/cards.db"))
	assert.Equal(t,
		"file:x?mode=memory&cache=shared&_txlock=immediate&_busy_timeout=5000",
		SQLiteDSN("file:x?mode=memory&cache=shared"))
	assert.Equal(t,
		"file:dev.db?_busy_timeout=100&_txlock=immediate&_journal_mode=WAL",
		SQLiteDSN("file:dev.db?_busy_timeout=100"))
}

func openSharedFile(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	cfg := config.Default()
	cfg.DatabaseURL = "sqlite:" + filepath.Join(t.TempDir(), "shared.db")
	cfg.DBMaxOpenConns = conns
	cfg.DBMaxIdleConns = conns
	conn, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(conn))
	return conn
}

func TestSQLiteTransactionsSerialiseAcrossConnections(t *testing.T) {
	conn := openSharedFile(t, 8)
	room := Room{
		Code:           "ABCDEF",
		Name:           "Counter",
		Status:         RoomWaiting,
		HostIdentityID: "host",
		DeckCardIDs:    datatypes.JSONSlice[string]{},
	}
	require.NoError(t, conn.Create(&room).Error)

	const writers = 24
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = conn.Transaction(func(tx *gorm.DB) error {
				var current Room
				if err := tx.First(&current, room.ID).Error; err != nil {
					return err
				}
				return tx.Model(&Room{}).Where("id = ?", room.ID).
					Update("current_round", current.CurrentRound+1).Error
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var got Room
	require.NoError(t, conn.First(&got, room.ID).Error)
	assert.Equal(t, writers, got.CurrentRound)
}
