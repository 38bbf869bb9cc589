package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-cards/internal/config"
	"story-cards/internal/db"
	"story-cards/internal/game"
	"story-cards/internal/logging"
	"story-cards/internal/server"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	dotenvErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	logger := logging.Must(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	if dotenvErr != nil {
		logger.Warn("failed to load .env", zap.Error(dotenvErr))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			logger.Fatal("database auto-migrate failed", zap.Error(err))
		}
		logger.Info("database auto-migrate complete")
	}
	if cfg.CardCatalogPath != "" {
		loaded, err := db.LoadCardCatalog(conn, cfg.CardCatalogPath)
		if err != nil {
			logger.Fatal("card catalog load failed", zap.String("path", cfg.CardCatalogPath), zap.Error(err))
		}
		logger.Info("card catalog loaded", zap.Int("cards", loaded))
	}

	engine := game.New(conn, game.NewDBCatalog(conn), cfg, logger.Named("game"))
	srv := server.New(engine, cfg, logger.Named("http"))
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info("story-cards server listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
