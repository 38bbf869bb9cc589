package server

import (
	"net/http"
	"time"

	"story-cards/internal/config"
	"story-cards/internal/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	engine *game.Engine
	cfg    config.Config
	log    *zap.Logger
	tokens *tokenIssuer
	ws     *wsHub
}

func New(engine *game.Engine, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		cfg:    cfg,
		log:    logger,
		tokens: newTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour),
		ws:     newWSHub(),
	}
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/auth/guest", s.handleGuestToken)

	authed := api.Group("", s.requireIdentity())
	authed.POST("/rooms", s.handleCreateRoom)

	rooms := authed.Group("/rooms/:code")
	rooms.GET("", s.handleRoom)
	rooms.POST("/join", s.handleJoin)
	rooms.POST("/ready", s.handleReady)
	rooms.POST("/start", s.handleStart)
	rooms.POST("/leave", s.handleLeave)
	rooms.POST("/close", s.handleClose)

	play := authed.Group("/game/:code")
	play.GET("", s.handleGame)
	play.GET("/events", s.handleEvents)
	play.POST("/storyteller", s.handleSubmitClue)
	play.POST("/submit", s.handleSubmitCard)
	play.POST("/vote", s.handleVote)
	play.POST("/next-round", s.handleNextRound)
	play.POST("/force-next", s.handleForceNext)

	router.GET("/ws/rooms/:code", s.requireIdentity(), s.handleWebsocket)
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= http.StatusInternalServerError {
			s.log.Error("request failed", fields...)
			return
		}
		s.log.Debug("request", fields...)
	}
}
