package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"story-cards/internal/game"

	"github.com/form3tech-oss/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorKey = "actor"

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *tokenIssuer) Issue(actor game.Actor) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"sub":  actor.ID,
		"name": actor.Name,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	return signed, expires, err
}

func (t *tokenIssuer) Parse(raw string) (game.Actor, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return game.Actor{}, fmt.Errorf("%w: %v", game.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return game.Actor{}, fmt.Errorf("%w: invalid token", game.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	if strings.TrimSpace(sub) == "" {
		return game.Actor{}, fmt.Errorf("%w: token has no subject", game.ErrUnauthorized)
	}
	return game.Actor{ID: sub, Name: name}, nil
}

type guestRequest struct {
	Name string `json:"name" binding:"required,name"`
}

func (s *Server) handleGuestToken(c *gin.Context) {
	var req guestRequest
	if !bindJSON(c, &req, bindMessages{
		"Name": {
			"required": "name is required",
			"name":     "name must be 1-32 printable characters",
		},
	}, "invalid guest request") {
		return
	}
	name, err := game.ValidateDisplayName(req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	actor := game.Actor{ID: uuid.NewString(), Name: name}
	token, expires, err := s.tokens.Issue(actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"player_id":  actor.ID,
		"name":       actor.Name,
		"expires_at": expires.UTC(),
	})
}

// requireIdentity resolves the caller from a Bearer header or a token query parameter.
func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			s.writeError(c, fmt.Errorf("%w: authentication required", game.ErrUnauthorized))
			c.Abort()
			return
		}
		actor, err := s.tokens.Parse(raw)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func actorFrom(c *gin.Context) (game.Actor, error) {
	value, ok := c.Get(actorKey)
	if !ok {
		return game.Actor{}, errors.New("identity middleware not installed")
	}
	actor, ok := value.(game.Actor)
	if !ok {
		return game.Actor{}, errors.New("identity has unexpected type")
	}
	return actor, nil
}
