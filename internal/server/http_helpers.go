package server

import (
	"errors"
	"net/http"

	"story-cards/internal/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[string]int{
	"unauthorized":        http.StatusUnauthorized,
	"forbidden":           http.StatusForbidden,
	"wrong_phase":         http.StatusConflict,
	"already_acted":       http.StatusConflict,
	"card_not_in_hand":    http.StatusBadRequest,
	"insufficient_cards":  http.StatusUnprocessableEntity,
	"room_full":           http.StatusConflict,
	"already_started":     http.StatusConflict,
	"not_found":           http.StatusNotFound,
	"transient_conflict":  http.StatusServiceUnavailable,
	"precondition_failed": http.StatusPreconditionFailed,
	"invalid_input":       http.StatusBadRequest,
}

func statusFor(err error) (int, string) {
	kind := game.Kind(err)
	if status, ok := statusByKind[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, kind
}

// writeError renders err as {"error","code","retryable"}. Internal errors are logged and their
// detail withheld.
func (s *Server) writeError(c *gin.Context, err error) {
	status, kind := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request error",
			zap.String("path", c.FullPath()),
			zap.String("room", c.Param("code")),
			zap.Error(err),
		)
		message = "internal error"
	}
	if errors.Is(err, game.ErrTransientConflict) {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{
		"error":     message,
		"code":      kind,
		"retryable": game.Retryable(err),
	})
}
