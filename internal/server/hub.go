// Package server exposes the ledger, portfolio and feed to presentation
// clients over a websocket and a small read-only HTTP API.
package server

import (
	"context"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"crypto_dash/internal/feed"
	"crypto_dash/internal/infra"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout  = 10 * time.Second
	maxCommandLen = 4096
)

// FeedControl is the part of the feed simulator the hub drives.
type FeedControl interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() feed.State
	Subscribe(fn func(feed.State)) (unsubscribe func())
}

// Options tunes per-connection limits. Zero values take the defaults.
type Options struct {
	CommandsPerSec float64
	CommandBurst   int
}

func (o Options) withDefaults() Options {
	if o.CommandsPerSec <= 0 {
		o.CommandsPerSec = 20
	}
	if o.CommandBurst < 1 {
		o.CommandBurst = 10
	}
	return o
}

// Hub fans snapshot frames out to websocket clients and applies their
// commands. Notifications are coalesced: every client is told that a newer
// frame exists and writes whatever is latest when it gets to it, so a slow
// client skips intermediate frames instead of queueing them.
type Hub struct {
	ledger    *engine.Ledger
	portfolio *engine.Portfolio
	feed      FeedControl
	news      []domain.NewsArticle
	opts      Options

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]*client
	runCtx  context.Context

	frame  atomic.Pointer[[]byte]
	dirty  chan struct{}
	unsubs []func()
}

// NewHub subscribes to ledger, portfolio and feed. Call Run to start
// broadcasting and Close to unsubscribe.
func NewHub(ledger *engine.Ledger, portfolio *engine.Portfolio, fc FeedControl, news []domain.NewsArticle, opts Options) *Hub {
	h := &Hub{
		ledger:    ledger,
		portfolio: portfolio,
		feed:      fc,
		news:      news,
		opts:      opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*client),
		runCtx:  context.Background(),
		dirty:   make(chan struct{}, 1),
	}

	// listeners run under the writers' locks: only signal here
	h.unsubs = append(h.unsubs,
		ledger.Subscribe(func(engine.Change) { h.markDirty() }),
		portfolio.Subscribe(func(*domain.PortfolioState) { h.markDirty() }),
		fc.Subscribe(func(feed.State) { h.markDirty() }),
	)
	return h
}

func (h *Hub) markDirty() {
	select {
	case h.dirty <- struct{}{}:
	default:
	}
}

// Run rebuilds the frame after every change and notifies clients until ctx
// is done, then closes every client connection.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.runCtx = ctx
	h.mu.Unlock()

	h.refresh()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.dirty:
			h.refresh()
		}
	}
}

// Close detaches the hub from its sources.
func (h *Hub) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.closeAll()
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) context() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runCtx
}

// refresh rebuilds the shared frame and wakes every client.
func (h *Hub) refresh() {
	data, err := json.Marshal(h.buildFrame())
	if err != nil {
		slog.Error("❌ Frame encode failed", slog.Any("error", err))
		return
	}
	h.frame.Store(&data)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.signal()
	}
}

// currentFrame returns the latest encoded frame, building one if Run has
// not produced any yet.
func (h *Hub) currentFrame() []byte {
	if f := h.frame.Load(); f != nil {
		return *f
	}
	data, err := json.Marshal(h.buildFrame())
	if err != nil {
		return nil
	}
	h.frame.CompareAndSwap(nil, &data)
	return data
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// ServeWS upgrades the request and serves one client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WS upgrade failed", slog.Any("error", err))
		return
	}

	c := newClient(conn, infra.NewRateLimiter(h.opts.CommandBurst, h.opts.CommandsPerSec))
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Info("🔌 Client connected", slog.String("client", c.id.String()), slog.String("remote", r.RemoteAddr))

	c.signal()
	go c.writeLoop(h.currentFrame)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
	slog.Info("🔌 Client disconnected", slog.String("client", c.id.String()))
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxCommandLen)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.TryAcquire() {
			c.sendError("", errRateLimited)
			continue
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			c.sendError("", &domain.ValidationError{Field: "command", Value: string(msg), Reason: "malformed json"})
			continue
		}
		if err := h.Execute(cmd); err != nil {
			slog.Warn("⚠️ Command rejected",
				slog.String("client", c.id.String()),
				slog.String("action", cmd.Action),
				slog.Any("error", err))
			c.sendError(cmd.Action, err)
		}
	}
}

// client is one websocket connection. All writes happen on writeLoop.
type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	limiter *infra.RateLimiter

	notify chan struct{}
	errs   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(conn *websocket.Conn, limiter *infra.RateLimiter) *client {
	return &client{
		id:      uuid.New(),
		conn:    conn,
		limiter: limiter,
		notify:  make(chan struct{}, 1),
		errs:    make(chan []byte, 8),
		done:    make(chan struct{}),
	}
}

func (c *client) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *client) sendError(action string, err error) {
	data, _ := json.Marshal(ErrorFrame{Type: FrameError, Action: action, Error: err.Error()})
	select {
	case c.errs <- data:
	case <-c.done:
	default:
		// client is not draining its error frames
	}
}

func (c *client) writeLoop(latest func() []byte) {
	for {
		var data []byte
		select {
		case <-c.done:
			return
		case <-c.notify:
			data = latest()
		case data = <-c.errs:
		}
		if data == nil {
			continue
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("WS write failed", slog.String("client", c.id.String()), slog.Any("error", err))
			c.close()
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
