// Package dashboard serves a read-only view over the published history and
// audit log. It never writes state: the publisher owns the state file and
// the dashboard only reads snapshots of it.
package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/upliftnews/uplift/internal/cache"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/metrics"
	"github.com/upliftnews/uplift/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	refreshTTL   = 5 * time.Second
)

// StateReader is the read side of the state store.
type StateReader interface {
	RecentAudit(n int) []store.AuditEntry
	PublishedRecords(n int) []store.PublishedRecord
	Stats() map[string]int
}

// Server answers dashboard requests from short-lived state snapshots.
type Server struct {
	refresh func() (StateReader, error)
	cache   *cache.Cache
}

// NewServer builds a dashboard over refresh, which loads a fresh state
// snapshot. Results are cached briefly so request bursts do not hammer
// the underlying store.
func NewServer(refresh func() (StateReader, error)) *Server {
	return &Server{
		refresh: refresh,
		cache:   cache.New(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/audit", s.handleAudit)
	r.Get("/api/stats", s.handleStats)

	return r
}

func (s *Server) state() (StateReader, error) {
	key := cache.Key("dashboard", "state")
	if cached, ok := s.cache.Get(key); ok {
		return cached.(StateReader), nil
	}

	reader, err := s.refresh()
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, reader, refreshTTL)
	return reader, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := http.StatusOK
	body := map[string]interface{}{
		"status":        "ok",
		"last_run_time": stats["last_run_time"],
		"last_slot":     stats["last_slot"],
	}
	if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["last_error"] = stats["last_error"]
	}

	writeJSON(w, status, body)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	reader, err := s.state()
	if err != nil {
		logger.Error("dashboard state read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "state unavailable"})
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts": reader.PublishedRecords(limit),
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	reader, err := s.state()
	if err != nil {
		logger.Error("dashboard state read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "state unavailable"})
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": reader.RecentAudit(limit),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"runtime": metrics.Global.GetStats(),
	}
	if reader, err := s.state(); err == nil {
		body["store"] = reader.Stats()
	}

	writeJSON(w, http.StatusOK, body)
}

// parseLimit clamps the limit query parameter. The audit log is stored
// unbounded; trimming happens here at display time.
func parseLimit(raw string) int {
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("dashboard response encode failed", "error", err)
	}
}
