package server

import (
	"crypto_dash/internal/projection"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Routes returns the HTTP handler serving the websocket and the JSON API.
func (h *Hub) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /api/snapshot", h.handleSnapshot)
	mux.HandleFunc("GET /api/table", h.handleTable)
	mux.HandleFunc("GET /api/portfolio", h.handlePortfolio)
	mux.HandleFunc("GET /api/news", h.handleNews)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

func (h *Hub) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Snapshot())
}

func (h *Hub) handleTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, projection.Table(h.ledger.Snapshot()))
}

func (h *Hub) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildPortfolioView(h.ledger.Snapshot(), h.portfolio.Snapshot()))
}

func (h *Hub) handleNews(w http.ResponseWriter, r *http.Request) {
	state := h.ledger.Snapshot()
	if id := r.URL.Query().Get("asset"); id != "" {
		writeJSON(w, http.StatusOK, projection.NewsFor(state, h.news, id))
		return
	}
	writeJSON(w, http.StatusOK, projection.News(state, h.news))
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Feed    string `json:"feed"`
	Version uint64 `json:"version"`
	Clients int    `json:"clients"`
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Feed:    h.feed.State().String(),
		Version: h.ledger.Snapshot().Version,
		Clients: h.Clients(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Response encode failed", slog.Any("error", err))
	}
}
