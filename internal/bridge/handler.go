package bridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumin/requestclient/internal/dispatch"
	"github.com/lumin/requestclient/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1 << 20
)

// Dispatcher runs one request cycle and reports a tagged result
type Dispatcher interface {
	Dispatch(ctx context.Context, endpoint, deviceIdentifier, method, body string) dispatch.Result
}

// DeviceResolver turns the host's deviceName into a device identifier
type DeviceResolver func(deviceName string) string

// Handler serves the bridge over websocket connections
type Handler struct {
	dispatcher Dispatcher
	resolve    DeviceResolver
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithResolver sets how deviceName is mapped before dispatch.
// The default passes it through unchanged.
func WithResolver(r DeviceResolver) HandlerOption {
	return func(h *Handler) {
		if r != nil {
			h.resolve = r
		}
	}
}

// WithCheckOrigin overrides the upgrader's origin check
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// NewHandler creates a bridge handler that dispatches through d
func NewHandler(d Dispatcher, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher: d,
		resolve:    func(name string) string { return name },
		conns:      make(map[*conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves commands until the peer leaves
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &conn{
		id:         uuid.NewString(),
		ws:         ws,
		remoteAddr: r.RemoteAddr,
		handler:    h,
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
	}()

	c.serve(r.Context())
}

// ActiveConnections returns the number of open host connections
func (h *Handler) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll closes every open host connection
func (h *Handler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		logging.Info("Closing active connection", zap.String("remote_addr", c.remoteAddr))
		_ = c.ws.Close()
	}
}

// conn is one host connection. A single goroutine reads; replies from
// concurrent commands share writeMu.
type conn struct {
	id         string
	ws         *websocket.Conn
	remoteAddr string
	handler    *Handler

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (c *conn) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)

	logging.Info("Bridge connection opened",
		zap.String("conn_id", c.id),
		zap.String("remote_addr", c.remoteAddr),
	)

	defer func() {
		cancel()
		c.wg.Wait()
		_ = c.ws.Close()
		logging.Info("Bridge connection closed",
			zap.String("conn_id", c.id),
			zap.String("remote_addr", c.remoteAddr),
		)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pingLoop(ctx)
	}()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("Bridge connection error",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			logging.Debug("Ignoring non-text frame",
				zap.String("remote_addr", c.remoteAddr),
				zap.Int("type", msgType),
			)
			continue
		}

		cmd, err := decodeCommand(data)
		if err != nil {
			logging.Warn("Invalid bridge command",
				zap.String("remote_addr", c.remoteAddr),
				zap.Error(err),
			)
			c.reply(Reply{Status: dispatch.StatusError, Error: err.Error()})
			continue
		}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handle(ctx, cmd)
		}()
	}
}

func (c *conn) handle(ctx context.Context, cmd Command) {
	logging.Debug("Bridge command received",
		zap.String("conn_id", c.id),
		zap.String("id", cmd.ID),
		zap.String("endpoint", cmd.Endpoint),
		zap.String("device", cmd.DeviceName),
		zap.String("method", cmd.Method),
	)

	device := c.handler.resolve(cmd.DeviceName)
	result := c.handler.dispatcher.Dispatch(ctx, cmd.Endpoint, device, cmd.Method, cmd.Body)
	c.reply(NewReply(cmd.ID, result))
}

func (c *conn) reply(r Reply) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(r); err != nil {
		logging.Error("Failed to send bridge reply",
			zap.String("remote_addr", c.remoteAddr),
			zap.String("id", r.ID),
			zap.Error(err),
		)
	}
}

func (c *conn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				logging.Debug("Ping failed", zap.String("remote_addr", c.remoteAddr), zap.Error(err))
				return
			}
		}
	}
}
