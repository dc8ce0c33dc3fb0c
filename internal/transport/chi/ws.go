package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/metrics"
	"github.com/swapcycle/swapcycle/internal/usecase/browse"
)

const (
	writeWait  = 20 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 16 << 10
)

// Event types exchanged over the browse socket.
const (
	EventSnapshot = "snapshot"
	EventSelected = "selected"
	EventError    = "error"
	EventBounds   = "bounds"
	EventHover    = "hover"
	EventClick    = "click"
	EventSelect   = "select"
	EventRetry    = "retry"
)

// Outbound is a message sent to the browser page.
type Outbound struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Inbound is a map interaction reported by the browser page.
type Inbound struct {
	Type   string       `json:"type"`
	Bounds *geo.Bounds  `json:"bounds,omitempty"`
	ID     int64        `json:"id,omitempty"`
	Kind   listing.Kind `json:"kind,omitempty"`
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub pushes browse snapshots to every open page and forwards map
// interactions back to the browser service.
type Hub struct {
	browser Browser
	origins map[string]bool
	logger  *zap.Logger

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*wsConn

	notify      chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHub creates a hub subscribed to the browser's snapshots.
func NewHub(browser Browser, allowedOrigins []string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		browser: browser,
		origins: make(map[string]bool, len(allowedOrigins)),
		logger:  log,
		conns:   make(map[string]*wsConn),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, o := range allowedOrigins {
		if o != "" {
			h.origins[strings.TrimRight(o, "/")] = true
		}
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	h.unsubscribe = browser.Subscribe(func(browse.Snapshot) { h.wake() })
	go h.run()
	return h
}

// checkOrigin accepts same-host pages and the configured origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.origins["*"] || h.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// wake coalesces snapshot notifications; the run loop always sends the latest.
func (h *Hub) wake() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case <-h.notify:
			h.broadcast(Outbound{Type: EventSnapshot, Data: h.browser.Snapshot()})
		}
	}
}

// ServeWS upgrades the request and pushes the current snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	id := uuid.NewString()
	c := &wsConn{conn: conn}

	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()
	metrics.WSConnections.Inc()
	h.logger.Debug("ws connected", zap.String("conn_id", id), zap.String("remote", r.RemoteAddr))

	h.send(id, Outbound{Type: EventSnapshot, Data: h.browser.Snapshot()})
	go h.pingLoop(id, c)
	go h.readLoop(id, c)
}

func (h *Hub) pingLoop(id string, c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}
		if !h.alive(id, c) {
			return
		}
		h.safeWrite(id, func(conn *websocket.Conn) error {
			return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		})
	}
}

func (h *Hub) readLoop(id string, c *wsConn) {
	defer h.closeConn(id, c)

	conn := c.conn
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read failed", zap.String("conn_id", id), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(string(message)), "ping") {
			h.safeWrite(id, func(conn *websocket.Conn) error {
				return conn.WriteMessage(websocket.TextMessage, []byte("pong"))
			})
			continue
		}
		var in Inbound
		if err := json.Unmarshal(message, &in); err != nil {
			h.send(id, Outbound{Type: EventError, Message: "malformed message"})
			continue
		}
		h.handle(id, in)
	}
}

// handle forwards one interaction. Bounds and hover updates come back as
// snapshots; clicks are also answered with the selected listing.
func (h *Hub) handle(id string, in Inbound) {
	switch in.Type {
	case EventBounds:
		if in.Bounds == nil {
			h.send(id, Outbound{Type: EventError, Message: "bounds are required"})
			return
		}
		h.browser.BoundsChanged(*in.Bounds)
	case EventHover:
		h.browser.Hover(in.ID, in.Kind)
	case EventClick, EventSelect:
		pick := h.browser.Click
		if in.Type == EventSelect {
			pick = h.browser.Select
		}
		item, err := pick(in.ID, in.Kind)
		if err != nil {
			h.send(id, Outbound{Type: EventError, Message: err.Error()})
			return
		}
		h.send(id, Outbound{Type: EventSelected, Data: item})
	case EventRetry:
		if err := h.browser.Retry(h.ctx); err != nil {
			h.logger.Debug("ws retry failed", zap.Error(err))
		}
	default:
		h.send(id, Outbound{Type: EventError, Message: "unknown message type"})
	}
}

func (h *Hub) alive(id string, c *wsConn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[id] == c
}

func (h *Hub) closeConn(id string, c *wsConn) {
	_ = c.conn.Close()
	h.mu.Lock()
	current, ok := h.conns[id]
	if ok && current == c {
		delete(h.conns, id)
	}
	h.mu.Unlock()
	if ok && current == c {
		metrics.WSConnections.Dec()
		h.logger.Debug("ws disconnected", zap.String("conn_id", id))
	}
}

func (h *Hub) safeWrite(id string, fn func(*websocket.Conn) error) {
	h.mu.RLock()
	c := h.conns[id]
	h.mu.RUnlock()
	if c == nil {
		return
	}

	c.mu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := fn(c.conn)
	c.mu.Unlock()
	if err != nil {
		h.logger.Debug("ws write failed", zap.String("conn_id", id), zap.Error(err))
		h.closeConn(id, c)
	}
}

func (h *Hub) send(id string, msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ws marshal failed", zap.Error(err))
		return
	}
	h.safeWrite(id, func(conn *websocket.Conn) error {
		return conn.WriteMessage(websocket.TextMessage, data)
	})
}

func (h *Hub) broadcast(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ws marshal failed", zap.Error(err))
		return
	}
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.safeWrite(id, func(conn *websocket.Conn) error {
			return conn.WriteMessage(websocket.TextMessage, data)
		})
	}
}

// Connections returns the number of open sockets.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close unsubscribes from the browser and closes every socket.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.unsubscribe()
		h.cancel()
		close(h.done)

		h.mu.RLock()
		conns := make(map[string]*wsConn, len(h.conns))
		for id, c := range h.conns {
			conns[id] = c
		}
		h.mu.RUnlock()
		for id, c := range conns {
			c.mu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			c.mu.Unlock()
			h.closeConn(id, c)
		}
	})
}
