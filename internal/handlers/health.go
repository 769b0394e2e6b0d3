package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mra-2007/TransitTrack/internal/metrics"
	"github.com/mra-2007/TransitTrack/internal/models"
)

// StatsRepository reports collection sizes; used as the store connectivity probe
type StatsRepository interface {
	Stats(ctx context.Context) (models.StoreStats, error)
}

// HealthHandler serves liveness and store health
type HealthHandler struct {
	repo    StatsRepository
	driver  string
	timeout time.Duration
}

// HealthResponse is the JSON body of GET /health
type HealthResponse struct {
	Status    string             `json:"status"`
	Store     string             `json:"store"`
	Driver    string             `json:"driver"`
	Timestamp time.Time          `json:"timestamp"`
	Counts    *models.StoreStats `json:"counts,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NewHealthHandler creates a health handler; driver is reported as-is
func NewHealthHandler(repo StatsRepository, driver string) *HealthHandler {
	return &HealthHandler{repo: repo, driver: driver, timeout: 2 * time.Second}
}

// GetHealth handles GET /health
// Returns 503 when the store cannot answer within the timeout
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.repo.Stats(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, cacheLive, HealthResponse{
			Status:    "error",
			Store:     "disconnected",
			Driver:    h.driver,
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		})
		return
	}

	metrics.SetStoreStats(stats)
	writeJSON(w, http.StatusOK, cacheLive, HealthResponse{
		Status:    "ok",
		Store:     "connected",
		Driver:    h.driver,
		Timestamp: time.Now().UTC(),
		Counts:    &stats,
	})
}

// Healthz handles GET /healthz
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ping handles GET /api/ping
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}
