package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sms-bridge/internal/metrics"
	"sms-bridge/internal/models"
)

const writeWait = 5 * time.Second

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex // serializes writes
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Hub broadcasts events to every connected websocket client.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	conns   map[string]*conn
	connMux sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "hub").Logger(),
		conns:  make(map[string]*conn),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Inbound messages are read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	h.add(id, &conn{ws: ws})
	defer h.remove(id)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug().Err(err).Str("conn_id", id).Msg("websocket read error")
			}
			return
		}
	}
}

func (h *Hub) add(id string, c *conn) {
	h.connMux.Lock()
	h.conns[id] = c
	n := len(h.conns)
	h.connMux.Unlock()

	metrics.EventSubscribers.Set(float64(n))
	h.logger.Info().Str("conn_id", id).Int("subscribers", n).Msg("subscriber connected")
}

func (h *Hub) remove(id string) {
	h.connMux.Lock()
	c, ok := h.conns[id]
	delete(h.conns, id)
	n := len(h.conns)
	h.connMux.Unlock()

	if !ok {
		return
	}
	c.ws.Close()
	metrics.EventSubscribers.Set(float64(n))
	h.logger.Info().Str("conn_id", id).Int("subscribers", n).Msg("subscriber disconnected")
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.connMux.RLock()
	defer h.connMux.RUnlock()
	return len(h.conns)
}

// Emit writes event to every client. Clients that fail are dropped; the
// event is not retried. ErrNoSubscribers is returned when no client
// received it.
func (h *Hub) Emit(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.connMux.RLock()
	targets := make(map[string]*conn, len(h.conns))
	for id, c := range h.conns {
		targets[id] = c
	}
	h.connMux.RUnlock()

	delivered := 0
	for id, c := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.write(data); err != nil {
			h.logger.Warn().Err(err).Str("conn_id", id).Msg("dropping subscriber after failed write")
			h.remove(id)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return ErrNoSubscribers
	}
	metrics.EventsEmitted.WithLabelValues("websocket").Inc()
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.connMux.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.connMux.RUnlock()

	for _, id := range ids {
		h.remove(id)
	}
	return nil
}
