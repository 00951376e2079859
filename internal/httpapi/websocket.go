package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"living-economy-arena/econsim/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var streamedKinds = []events.Kind{
	events.KindTick, events.KindTrade, events.KindPriceUpdate, events.KindPsychology,
	events.KindMonetaryPolicy, events.KindScarcity, events.KindDiscovery,
	events.KindCriticalScarcity, events.KindTickOverrun, events.KindMarketFault,
}

// wsClient is one connected subscriber, adapted from the teacher's
// WebSocketSubscriber: a buffered outbound channel drained by writePump,
// paired with a ping ticker and a read loop whose only job is to notice
// the peer going away.
type wsClient struct {
	id       string
	conn     *websocket.Conn
	outbound chan events.Envelope
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newWSClient(conn *websocket.Conn, logger *slog.Logger) *wsClient {
	return &wsClient{
		id:       fmt.Sprintf("ws_%d", time.Now().UnixNano()),
		conn:     conn,
		outbound: make(chan events.Envelope, 256),
		logger:   logger,
	}
}

func (c *wsClient) send(env events.Envelope) bool {
	select {
	case c.outbound <- env:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbound)
	_ = c.conn.Close()
}

func (c *wsClient) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-c.outbound:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug("httpapi: ws write failed", "id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump does nothing but detect disconnects; this stream is
// publish-only, unlike the teacher's subscribe/unsubscribe protocol.
func (c *wsClient) readPump(onClose func()) {
	defer onClose()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsHub fans every bus envelope out to every connected client, grounded on
// the teacher's WebSocketHub register/unregister/broadcast loop, adapted
// to source its broadcasts from kernelAPI.Subscribe instead of a polled
// DemoController.
type wsHub struct {
	kernel       kernelAPI
	logger       *slog.Logger
	maxClients   int
	pingInterval time.Duration

	mu      sync.Mutex
	clients map[string]*wsClient

	subs []*events.Subscription
}

func newWSHub(k kernelAPI, maxClients int, pingInterval time.Duration, logger *slog.Logger) *wsHub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if maxClients <= 0 {
		maxClients = 256
	}
	return &wsHub{
		kernel:       k,
		logger:       logger,
		maxClients:   maxClients,
		pingInterval: pingInterval,
		clients:      make(map[string]*wsClient),
	}
}

func (h *wsHub) start(ctx context.Context) {
	for _, kind := range streamedKinds {
		sub := h.kernel.Subscribe(kind)
		h.subs = append(h.subs, sub)
		go h.drain(ctx, sub)
	}
}

func (h *wsHub) stop() {
	for _, sub := range h.subs {
		h.kernel.Unsubscribe(sub)
	}
}

func (h *wsHub) drain(ctx context.Context, sub *events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.C:
			if !ok {
				return
			}
			h.broadcast(env)
		}
	}
}

func (h *wsHub) broadcast(env events.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		if !client.send(env) {
			h.logger.Warn("httpapi: ws client outbound queue full, dropping", "id", id)
		}
	}
}

func (h *wsHub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= h.maxClients {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *wsHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
}

// handleWebSocket handles GET /v1/ws.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("httpapi: ws upgrade failed", "error", err)
		return
	}

	client := newWSClient(conn, s.logger)
	if !s.hub.register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "connection limit reached"))
		conn.Close()
		return
	}

	go client.writePump(s.hub.pingInterval)
	go client.readPump(func() { s.hub.unregister(client) })
}

// marshalEnvelope is exercised directly by tests to confirm the wire shape
// without needing a live websocket connection.
func marshalEnvelope(env events.Envelope) ([]byte, error) {
	return json.Marshal(env)
}
