package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/trading-dashboard/internal/service"
)

// IPHandler serves the admin-only sign-up address log.
type IPHandler struct {
	ips    *service.IPService
	logger *slog.Logger
}

func NewIPHandler(ips *service.IPService, logger *slog.Logger) *IPHandler {
	return &IPHandler{ips: ips, logger: logger}
}

// HandleList → GET /api/ipaddresses?limit=N
func (h *IPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recs, err := h.ips.List(r.Context(), actorID(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, recs, "")
}

// HandleDelete → DELETE /api/ipaddresses/{id}
func (h *IPHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ips.Delete(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, nil, "IP address deleted")
}

// Pinger is satisfied by the sqlite database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers GET /check, outside /api, for the dashboard's
// server check.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type healthStatus struct {
	Status string `json:"status"`
}

func (h *HealthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check: database unreachable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, Envelope{Success: false, Message: "database unavailable"})
		return
	}
	writeOK(w, http.StatusOK, healthStatus{Status: "ok"}, "")
}
