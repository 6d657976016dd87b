// Package watch is a terminal client for the dashboard websocket.
package watch

import (
	"context"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/server"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

const clearScreen = "\033[H\033[2J"

// Options configures a Watcher.
type Options struct {
	Filter *string // sent as set_filter after every connect
	SortBy string  // sent as set_sort after every connect
	Clear  bool    // clear the terminal before each frame
}

// Watcher renders every snapshot frame it receives to out. It reconnects
// with backoff when the server goes away.
type Watcher struct {
	base *infra.BaseWSWorker
	url  string
	opts Options

	mu   sync.Mutex
	out  io.Writer
	last *server.SnapshotFrame

	frames atomic.Uint64
}

// NewWatcher creates a watcher for the websocket at url.
func NewWatcher(url string, out io.Writer, opts Options) *Watcher {
	w := &Watcher{url: url, out: out, opts: opts}
	w.base = infra.NewBaseWSWorker(w)
	return w
}

func (w *Watcher) ID() string { return "WATCH" }

func (w *Watcher) GetURL() string { return w.url }

// Connect starts the connection loop.
func (w *Watcher) Connect(ctx context.Context) error {
	w.base.Start(ctx)
	return nil
}

// Disconnect stops the connection loop.
func (w *Watcher) Disconnect() {
	w.base.Stop()
}

// OnConnect replays the configured view settings.
func (w *Watcher) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	if w.opts.Filter != nil {
		if err := w.send(server.Command{Action: server.ActionSetFilter, Text: w.opts.Filter}); err != nil {
			return err
		}
	}
	if w.opts.SortBy != "" {
		return w.send(server.Command{Action: server.ActionSetSort, Column: w.opts.SortBy})
	}
	return nil
}

func (w *Watcher) send(cmd server.Command) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return w.base.Write(websocket.TextMessage, b)
}

// OnMessage renders snapshot frames and logs error frames.
func (w *Watcher) OnMessage(ctx context.Context, msg []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return
	}

	switch head.Type {
	case server.FrameSnapshot:
		var f server.SnapshotFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			slog.Warn("Bad snapshot frame", slog.Any("error", err))
			return
		}
		w.frames.Add(1)
		w.render(f)
	case server.FrameError:
		var f server.ErrorFrame
		if err := json.Unmarshal(msg, &f); err == nil {
			slog.Warn("⚠️ Server rejected command", slog.String("action", f.Action), slog.String("error", f.Error))
		}
	}
}

func (w *Watcher) render(f server.SnapshotFrame) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = &f
	if w.opts.Clear {
		io.WriteString(w.out, clearScreen)
	}
	if err := Render(w.out, f); err != nil {
		slog.Warn("Render failed", slog.Any("error", err))
	}
}

func (w *Watcher) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return w.base.WritePing()
}

func (w *Watcher) OnDisconnect(err error) {
	slog.Info("🔌 Watch connection closed", slog.String("url", w.url), slog.Any("error", err))
}

// Last returns the most recent snapshot frame.
func (w *Watcher) Last() (server.SnapshotFrame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return server.SnapshotFrame{}, false
	}
	return *w.last, true
}

// Frames returns how many snapshot frames were rendered.
func (w *Watcher) Frames() uint64 {
	return w.frames.Load()
}
