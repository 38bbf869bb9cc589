package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"story-cards/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteWait = 5 * time.Second

// nudgeMessage tells clients to re-poll; it never carries room state.
type nudgeMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type wsClient struct {
	conn    *websocket.Conn
	actorID string
	mu      sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(code string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[code] = group
	}
	group[client] = struct{}{}
}

// Remove drops the client and reports whether the same actor still has another connection open.
func (h *wsHub) Remove(code string, client *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = client.conn.Close()
	group := h.groups[code]
	if group == nil {
		return false
	}
	delete(group, client)
	if len(group) == 0 {
		delete(h.groups, code)
		return false
	}
	for other := range group {
		if other.actorID == client.actorID {
			return true
		}
	}
	return false
}

func (h *wsHub) Count(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[code])
}

func (h *wsHub) Broadcast(code string, payload any) {
	h.mu.Lock()
	group := h.groups[code]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.send(data); err != nil {
			h.Remove(code, client)
		}
	}
}

func (s *Server) nudge(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	s.ws.Broadcast(code, nudgeMessage{Type: "room_updated", Code: code})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	view, err := s.engine.Room(c.Request.Context(), code, actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !view.IsMember {
		s.writeError(c, fmt.Errorf("%w: join the room before listening", game.ErrForbidden))
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn, actorID: actor.ID}
	s.ws.Add(code, client)
	s.log.Info("ws connected", zap.String("room", code), zap.String("player", actor.ID), zap.String("remote", c.Request.RemoteAddr))
	if err := s.engine.SetOnline(context.Background(), code, actor, true); err != nil {
		s.log.Warn("presence update failed", zap.String("room", code), zap.Error(err))
	}
	s.nudge(code)
	go s.readWS(code, actor, client)
}

func (s *Server) readWS(code string, actor game.Actor, client *wsClient) {
	defer func() {
		if s.ws.Remove(code, client) {
			return
		}
		if err := s.engine.SetOnline(context.Background(), code, actor, false); err != nil {
			s.log.Warn("presence update failed", zap.String("room", code), zap.Error(err))
			return
		}
		s.nudge(code)
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.log.Info("ws disconnected", zap.String("room", code), zap.String("player", actor.ID), zap.Error(err))
			return
		}
	}
}
