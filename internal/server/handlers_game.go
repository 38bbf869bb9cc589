package server

import (
	"net/http"

	"story-cards/internal/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type clueRequest struct {
	CardID string `json:"card_id" binding:"required,max=64"`
	Clue   string `json:"clue" binding:"required,max=400"`
}

type cardRequest struct {
	CardID string `json:"card_id" binding:"required,max=64"`
}

type eventsQuery struct {
	After uint `form:"after"`
	Limit int  `form:"limit" binding:"omitempty,min=1,max=200"`
}

var cardMessages = bindMessages{
	"CardID": {
		"required": "card_id is required",
		"max":      "card_id is too long",
	},
	"Clue": {
		"required": "clue is required",
		"max":      "clue is too long",
	},
}

func (s *Server) handleGame(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	view, err := s.engine.Game(c.Request.Context(), c.Param("code"), actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleEvents(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var query eventsQuery
	if !bindQuery(c, &query) {
		return
	}
	events, err := s.engine.Events(c.Request.Context(), c.Param("code"), actor, query.After, query.Limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleSubmitClue(c *gin.Context) {
	var req clueRequest
	if !bindJSON(c, &req, cardMessages, "invalid clue") {
		return
	}
	s.gameAction(c, "clue", func(actor game.Actor, code string) error {
		return s.engine.SubmitClue(c.Request.Context(), code, actor, req.CardID, req.Clue)
	})
}

func (s *Server) handleSubmitCard(c *gin.Context) {
	var req cardRequest
	if !bindJSON(c, &req, cardMessages, "invalid submission") {
		return
	}
	s.gameAction(c, "submit", func(actor game.Actor, code string) error {
		return s.engine.SubmitCard(c.Request.Context(), code, actor, req.CardID)
	})
}

func (s *Server) handleVote(c *gin.Context) {
	var req cardRequest
	if !bindJSON(c, &req, cardMessages, "invalid vote") {
		return
	}
	s.gameAction(c, "vote", func(actor game.Actor, code string) error {
		return s.engine.CastVote(c.Request.Context(), code, actor, req.CardID)
	})
}

func (s *Server) handleNextRound(c *gin.Context) {
	s.gameAction(c, "next-round", func(actor game.Actor, code string) error {
		return s.engine.AdvanceRound(c.Request.Context(), code, actor)
	})
}

func (s *Server) handleForceNext(c *gin.Context) {
	s.gameAction(c, "force-next", func(actor game.Actor, code string) error {
		_, err := s.engine.ForceAdvance(c.Request.Context(), code, actor)
		return err
	})
}

// gameAction runs a round mutation, nudges listeners and answers with the caller's game view.
func (s *Server) gameAction(c *gin.Context, action string, run func(game.Actor, string) error) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	code := c.Param("code")
	if err := run(actor, code); err != nil {
		s.log.Debug("game action rejected",
			zap.String("action", action),
			zap.String("room", code),
			zap.String("player", actor.ID),
			zap.Error(err),
		)
		s.writeError(c, err)
		return
	}
	s.nudge(code)
	view, err := s.engine.Game(c.Request.Context(), code, actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
