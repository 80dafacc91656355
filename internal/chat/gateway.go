package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pulse/pkg/logger"
)

const sendBufferSize = 16

// Conn is one live websocket. The gateway owns it for its whole lifetime;
// the registry only holds a non-owning reference.
type Conn struct {
	id uuid.UUID
	ws *websocket.Conn

	// written by the read loop on announce, never concurrently
	userID     uuid.UUID
	authorized bool

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.New(),
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *Conn) ID() uuid.UUID     { return c.id }
func (c *Conn) UserID() uuid.UUID { return c.userID }
func (c *Conn) Authorized() bool  { return c.authorized }

func (c *Conn) bind(userID uuid.UUID) {
	c.userID = userID
	c.authorized = true
}

// enqueue never blocks the caller; a full buffer drops the frame, matching
// the best-effort delivery contract.
func (c *Conn) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

func (c *Conn) writeLoop() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Gateway accepts websocket connections and dispatches named events between
// clients and the routing layer.
type Gateway struct {
	registry *Registry
	router   *Router
	upgrader websocket.Upgrader
}

func NewGateway(store Repository, registry *Registry, verifier TokenVerifier) *Gateway {
	g := &Gateway{
		registry: registry,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			return true
		}},
	}
	g.router = NewRouter(store, g, verifier)
	return g
}

func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newConn(ws)
	logger.Info("client connected", zap.String("conn", c.id.String()))

	go c.writeLoop()
	g.readLoop(c)
}

func (g *Gateway) readLoop(c *Conn) {
	defer func() {
		g.registry.Clear(c)
		c.close()
		logger.Info("client disconnected", zap.String("conn", c.id.String()))
	}()

	c.ws.SetReadLimit(64 * 1024)
	for {
		var evt Event
		if err := c.ws.ReadJSON(&evt); err != nil {
			return
		}
		g.router.HandleEvent(context.Background(), c, evt)
	}
}

// EmitTo delivers an event to the user's active connection. An offline user
// or a full send buffer drops the event without surfacing an error; offline
// receivers reconcile through the history endpoint.
func (g *Gateway) EmitTo(userID uuid.UUID, event string, payload interface{}) {
	conn, ok := g.registry.Lookup(userID)
	if !ok {
		return
	}

	data, err := json.Marshal(Event{Event: event, Data: mustRaw(payload)})
	if err != nil {
		logger.Error("marshal outbound event failed", zap.String("event", event), zap.Error(err))
		return
	}

	if !conn.enqueue(data) {
		logger.Warn("send buffer full, dropping event",
			zap.String("event", event),
			zap.String("user", userID.String()))
	}
}

// SetOnline registers the connection as the user's active one.
func (g *Gateway) SetOnline(userID uuid.UUID, conn *Conn) {
	g.registry.SetOnline(userID, conn)
}

func mustRaw(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
