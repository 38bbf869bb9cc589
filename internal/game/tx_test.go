package game

import (
	"context"
	"errors"
	"testing"

	"story-cards/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMutateRetriesThenReportsTransientConflict(t *testing.T) {
	e, _ := newTestEngine(t, 100)
	code := createRoom(t, e, actors(1)[0], RoomSettings{})

	attempts := 0
	err := e.mutate(context.Background(), code, func(tx *gorm.DB, room *db.Room) error {
		attempts++
		return errStaleRound
	})
	assert.ErrorIs(t, err, ErrTransientConflict)
	assert.True(t, Retryable(err))
	assert.Equal(t, e.retries+1, attempts)
}

func TestMutateRecoversAfterConflict(t *testing.T) {
	e, _ := newTestEngine(t, 100)
	code := createRoom(t, e, actors(1)[0], RoomSettings{})

	attempts := 0
	err := e.mutate(context.Background(), code, func(tx *gorm.DB, room *db.Room) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestMutateDoesNotRetryDomainErrors(t *testing.T) {
	e, _ := newTestEngine(t, 100)
	code := createRoom(t, e, actors(1)[0], RoomSettings{})

	attempts := 0
	err := e.mutate(context.Background(), code, func(tx *gorm.DB, room *db.Room) error {
		attempts++
		return ErrWrongPhase
	})
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.Equal(t, 1, attempts)
}

func TestMutateMapsUniqueViolations(t *testing.T) {
	e, _ := newTestEngine(t, 100)
	code := createRoom(t, e, actors(1)[0], RoomSettings{})

	err := e.mutate(context.Background(), code, func(tx *gorm.DB, room *db.Room) error {
		return &pgconn.PgError{Code: "23505"}
	})
	assert.ErrorIs(t, err, ErrAlreadyActed)
}

func TestAdvancePhaseRejectsStaleVersion(t *testing.T) {
	e, conn := newTestEngine(t, 100)
	code, _ := startedRoom(t, e, 3, RoomSettings{})
	room, err := findRoom(conn, code)
	require.NoError(t, err)
	var round db.Round
	require.NoError(t, conn.First(&round, *room.CurrentRoundID).Error)

	stale := round
	require.NoError(t, advancePhase(conn, &round, db.PhasePlayerSubmission, nil))
	assert.Equal(t, 1, round.Version)
	assert.ErrorIs(t, advancePhase(conn, &stale, db.PhasePlayerSubmission, nil), errStaleRound)
	assert.ErrorIs(t, advancePhase(conn, &round, db.PhaseResults, nil), ErrWrongPhase)
}

func TestRetryClassification(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: "55P03"}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isRetryable(errors.New("database is locked")))
	assert.False(t, isRetryable(ErrForbidden))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: votes.round_id")))
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, "card_not_in_hand", Kind(ErrCardNotInHand))
	assert.Equal(t, "transient_conflict", Kind(errors.Join(errors.New("ctx"), ErrTransientConflict)))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
	assert.False(t, Retryable(ErrWrongPhase))
}
