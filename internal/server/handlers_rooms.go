package server

import (
	"net/http"

	"story-cards/internal/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createRoomRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=40"`
	Capacity    int    `json:"capacity" binding:"omitempty,max=100"`
	TargetScore int    `json:"target_score" binding:"omitempty,max=1000"`
	HandSize    int    `json:"hand_size" binding:"omitempty,max=50"`
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var req createRoomRequest
	if !bindJSON(c, &req, bindMessages{
		"Name": {
			"required": "room name is required",
			"min":      "room name must be at least 2 characters",
			"max":      "room name must be 40 characters or fewer",
		},
	}, "invalid room settings") {
		return
	}
	code, err := s.engine.CreateRoom(c.Request.Context(), actor, game.RoomSettings{
		Name:        req.Name,
		Capacity:    req.Capacity,
		TargetScore: req.TargetScore,
		HandSize:    req.HandSize,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	view, err := s.engine.Room(c.Request.Context(), code, actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) handleRoom(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	view, err := s.engine.Room(c.Request.Context(), c.Param("code"), actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleJoin(c *gin.Context) {
	s.roomAction(c, "join", func(actor game.Actor, code string) error {
		return s.engine.Join(c.Request.Context(), code, actor)
	})
}

func (s *Server) handleReady(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	code := c.Param("code")
	ready, err := s.engine.SetReady(c.Request.Context(), code, actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.nudge(code)
	c.JSON(http.StatusOK, gin.H{"ready": ready})
}

func (s *Server) handleStart(c *gin.Context) {
	s.roomAction(c, "start", func(actor game.Actor, code string) error {
		return s.engine.Start(c.Request.Context(), code, actor)
	})
}

func (s *Server) handleLeave(c *gin.Context) {
	s.roomAction(c, "leave", func(actor game.Actor, code string) error {
		return s.engine.Leave(c.Request.Context(), code, actor)
	})
}

func (s *Server) handleClose(c *gin.Context) {
	s.roomAction(c, "close", func(actor game.Actor, code string) error {
		return s.engine.Close(c.Request.Context(), code, actor)
	})
}

// roomAction runs a lobby mutation, nudges listeners and answers with the fresh room view.
func (s *Server) roomAction(c *gin.Context, action string, run func(game.Actor, string) error) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	code := c.Param("code")
	if err := run(actor, code); err != nil {
		s.log.Debug("room action rejected",
			zap.String("action", action),
			zap.String("room", code),
			zap.String("player", actor.ID),
			zap.Error(err),
		)
		s.writeError(c, err)
		return
	}
	s.nudge(code)
	view, err := s.engine.Room(c.Request.Context(), code, actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
