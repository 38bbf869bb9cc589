// Package game is the session engine: rooms, rounds, hands and scoring, persisted through gorm.
// Every mutation runs in its own transaction keyed on the room row, so any number of stateless
// request handlers can drive the same room concurrently.
package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"story-cards/internal/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor is an authenticated caller. The engine authorises actors but never authenticates them.
type Actor struct {
	ID   string
	Name string
}

func (a Actor) validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: missing identity", ErrUnauthorized)
	}
	return nil
}

type Engine struct {
	db       *gorm.DB
	catalog  Catalog
	log      *zap.Logger
	handSize int
	reserve  int
	retries  int
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Engine)

// WithRand fixes the source used for shuffles and storyteller draws.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(conn *gorm.DB, catalog Catalog, cfg config.Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = NewDBCatalog(conn)
	}
	e := &Engine{
		db:       conn,
		catalog:  catalog,
		log:      logger,
		handSize: cfg.HandSize,
		reserve:  cfg.DeckReserve,
		retries:  cfg.TxRetries,
		now:      func() time.Time { return time.Now().UTC() },
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	if e.handSize <= 0 {
		e.handSize = config.Default().HandSize
	}
	if e.reserve < 0 {
		e.reserve = DefaultDeckReserve
	}
	if e.retries < 0 {
		e.retries = 0
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) shuffle(ids []string) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func (e *Engine) intN(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.IntN(n)
}
