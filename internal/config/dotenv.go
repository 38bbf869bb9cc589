package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// DevJWTSecret is the signing secret used when JWT_SECRET is unset. It is only acceptable with DEV.
const DevJWTSecret = "dev-secret-change-me"

type Config struct {
	Addr                     string
	DatabaseURL              string
	Dev                      bool
	AutoMigrate              bool
	HandSize                 int
	DeckReserve              int
	TxRetries                int
	JWTSecret                string
	TokenTTLHours            int
	CardCatalogPath          string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		Addr:                     ":8080",
		HandSize:                 6,
		DeckReserve:              20,
		TxRetries:                3,
		JWTSecret:                DevJWTSecret,
		TokenTTLHours:            24 * 7,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Addr = ":" + raw
	}
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("DEV"); raw != "" {
		cfg.Dev = parseBool(raw)
	}
	if raw := os.Getenv("AUTO_MIGRATE"); raw != "" {
		cfg.AutoMigrate = parseBool(raw)
	}
	if raw := os.Getenv("HAND_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.HandSize = value
		}
	}
	if raw := os.Getenv("DECK_RESERVE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.DeckReserve = value
		}
	}
	if raw := os.Getenv("TX_RETRIES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.TxRetries = value
		}
	}
	if raw := os.Getenv("JWT_SECRET"); raw != "" {
		cfg.JWTSecret = raw
	}
	if raw := os.Getenv("TOKEN_TTL_HOURS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TokenTTLHours = value
		}
	}
	if raw := os.Getenv("CARD_CATALOG_PATH"); raw != "" {
		cfg.CardCatalogPath = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}

// Validate rejects settings that are only safe for local development.
func (c Config) Validate() error {
	if !c.Dev && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return errors.New("JWT_SECRET must be set outside DEV mode")
	}
	return nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
