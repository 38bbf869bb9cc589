package db

import (
	"errors"
	"strings"
	"time"

	"story-cards/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects using cfg.DatabaseURL. Postgres URLs are the default; a "sqlite:" prefix or a
// "file:" DSN selects SQLite for local runs.
func Open(cfg config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	var (
		conn *gorm.DB
		err  error
	)
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		conn, err = gorm.Open(sqlite.Open(SQLiteDSN(strings.TrimPrefix(dsn, "sqlite:"))), gormCfg)
	case strings.HasPrefix(dsn, "file:"):
		conn, err = gorm.Open(sqlite.Open(SQLiteDSN(dsn)), gormCfg)
	default:
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		return nil, err
	}
	if err := configurePool(conn, cfg); err != nil {
		return nil, err
	}
	return conn, nil
}

// OpenMemory opens a private in-memory SQLite database. A single connection keeps every
// transaction serialised, which mirrors the row locks taken on Postgres.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := SQLiteDSN("file:" + name + "?mode=memory&cache=shared")
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	return conn, nil
}

// sqliteDefaults make every SQLite transaction take the write lock at BEGIN and wait for it. SQLite
// ignores FOR UPDATE, so this is what serialises writers the way row locks do on Postgres.
var sqliteDefaults = []string{"_txlock=immediate", "_busy_timeout=5000", "_journal_mode=WAL"}

// SQLiteDSN appends the locking defaults to dsn, keeping any option the caller already set.
func SQLiteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	memory := strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:")
	for _, opt := range sqliteDefaults {
		key, _, _ := strings.Cut(opt, "=")
		if strings.Contains(dsn, key+"=") {
			continue
		}
		if memory && key == "_journal_mode" {
			continue
		}
		dsn += sep + opt
		sep = "&"
	}
	return dsn
}

func configurePool(conn *gorm.DB, cfg config.Config) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
	return nil
}

// Migrate runs GORM auto-migrations for the core tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	return conn.AutoMigrate(
		&Card{},
		&Room{},
		&Participant{},
		&Round{},
		&Submission{},
		&Vote{},
		&RoundAward{},
		&Event{},
	)
}
