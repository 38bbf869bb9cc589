package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"story-cards/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errStaleRound means a conditional phase write matched no row: another transaction moved the
// round first.
var errStaleRound = errors.New("round changed concurrently")

type mutation func(tx *gorm.DB, room *db.Room) error

// mutate runs fn inside a transaction holding the room row lock. Locks are always taken room,
// then current round, then participants in seat order.
func (e *Engine) mutate(ctx context.Context, code string, fn mutation) error {
	code = normalizeCode(code)
	if code == "" {
		return fmt.Errorf("%w: room code is required", ErrNotFound)
	}
	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			room, err := lockRoom(tx, code)
			if err != nil {
				return err
			}
			return fn(tx, room)
		})
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrAlreadyActed, err)
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
		e.log.Debug("transaction conflict",
			zap.String("room", code),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	e.log.Warn("transaction retries exhausted", zap.String("room", code), zap.Error(lastErr))
	return fmt.Errorf("%w: %v", ErrTransientConflict, lastErr)
}

// view runs fn in a read-only snapshot of the room.
func (e *Engine) view(ctx context.Context, code string, fn mutation) error {
	code = normalizeCode(code)
	if code == "" {
		return fmt.Errorf("%w: room code is required", ErrNotFound)
	}
	var opts []*sql.TxOptions
	if e.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := findRoom(tx, code)
		if err != nil {
			return err
		}
		return fn(tx, room)
	}, opts...)
}

func findRoom(tx *gorm.DB, code string) (*db.Room, error) {
	var room db.Room
	err := tx.Where("code = ?", code).Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func lockRoom(tx *gorm.DB, code string) (*db.Room, error) {
	return findRoom(tx.Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

func lockRound(tx *gorm.DB, room *db.Room) (*db.Round, error) {
	if room.CurrentRoundID == nil {
		return nil, fmt.Errorf("%w: no round in progress", ErrWrongPhase)
	}
	var round db.Round
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND room_id = ?", *room.CurrentRoundID, room.ID).
		Take(&round).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: round %d", ErrNotFound, *room.CurrentRoundID)
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func lockParticipants(tx *gorm.DB, roomID uint) ([]db.Participant, error) {
	var participants []db.Participant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ?", roomID).
		Order("seat asc").
		Find(&participants).Error
	return participants, err
}

// advancePhase writes the next phase only if the round still holds the phase and version it was
// read with.
func advancePhase(tx *gorm.DB, round *db.Round, to string, extra map[string]any) error {
	if next, ok := nextPhase(round.Phase); !ok || next != to {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrWrongPhase, round.Phase, to)
	}
	updates := map[string]any{
		"phase":   to,
		"version": gorm.Expr("version + 1"),
	}
	for key, value := range extra {
		updates[key] = value
	}
	res := tx.Model(&db.Round{}).
		Where("id = ? AND phase = ? AND version = ?", round.ID, round.Phase, round.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleRound
	}
	round.Phase = to
	round.Version++
	return nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errStaleRound) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
