package events

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/internal/pipeline"
	"github.com/ticket-validator/backend/pkg/logger"
)

// RunEvent is the message broadcast to subscribers when a run completes.
type RunEvent struct {
	Type      string                   `json:"type"`
	RunID     string                   `json:"run_id"`
	DailyFile string                   `json:"daily_file"`
	AlarmFile string                   `json:"alarm_file"`
	Counts    []pipeline.CategoryCount `json:"counts"`
	Cached    bool                     `json:"cached"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run-completion events out to connected WebSocket subscribers.
// Slow subscribers are dropped rather than blocking the pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Handle serves one subscriber connection. It blocks until the client
// disconnects; fiber's websocket middleware runs it on its own goroutine.
func (h *Hub) Handle(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 8)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.Debug("Run feed subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	go func() {
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Subscribers only listen; the read loop just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	logger.Debug("Run feed subscriber disconnected")
}

// RunCompleted implements pipeline.RunNotifier.
func (h *Hub) RunCompleted(result *pipeline.Result, cached bool) {
	event := RunEvent{
		Type:      "run_completed",
		RunID:     result.RunID,
		DailyFile: result.DailyFile,
		AlarmFile: result.AlarmFile,
		Counts:    result.Counts,
		Cached:    cached,
	}

	msg, err := json.Marshal(event)
	if err != nil {
		logger.Warn("Failed to marshal run event", zap.Error(err))
		return
	}

	h.mu.RLock()
	var stale []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}
