package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/metrics"
	"github.com/mra-2007/TransitTrack/internal/models"
	"github.com/mra-2007/TransitTrack/internal/repository"
)

// BusRepository defines the store operations the bus endpoints need
type BusRepository interface {
	GetBus(ctx context.Context, id string) (*models.Bus, error)
	CreateBus(ctx context.Context, data models.InsertBus) (*models.Bus, error)
	UpdateBusLocation(ctx context.Context, id, latitude, longitude string) (*models.Bus, error)
}

// BusHandler handles HTTP requests for buses
type BusHandler struct {
	repo BusRepository
}

// NewBusHandler creates a new handler with the given repository
func NewBusHandler(repo BusRepository) *BusHandler {
	return &BusHandler{repo: repo}
}

// CreateBus handles POST /api/buses
func (h *BusHandler) CreateBus(w http.ResponseWriter, r *http.Request) {
	var body models.InsertBus
	if !decodeBody(w, r, &body) {
		return
	}

	bus, err := h.repo.CreateBus(r.Context(), body)
	if err != nil {
		writeStoreError(w, err, "", "Failed to create bus", nil)
		return
	}

	writeJSON(w, http.StatusCreated, "", bus)
}

// GetBus handles GET /api/buses/{busId}
func (h *BusHandler) GetBus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "busId")

	bus, err := h.repo.GetBus(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Bus not found", "Failed to retrieve bus",
			map[string]interface{}{"busId": id})
		return
	}

	writeJSON(w, http.StatusOK, cacheLive, bus)
}

// UpdateBusLocation handles PUT /api/buses/{busId}/location
// Replaces both coordinates and refreshes lastUpdated; an unknown bus is a 404
func (h *BusHandler) UpdateBusLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "busId")

	var body models.BusLocationUpdate
	if !decodeBody(w, r, &body) {
		metrics.BusLocationUpdate("invalid")
		return
	}

	bus, err := h.repo.UpdateBusLocation(r.Context(), id, body.Latitude, body.Longitude)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.BusLocationUpdate("not_found")
		} else {
			metrics.BusLocationUpdate("error")
		}
		writeStoreError(w, err, "Bus not found", "Failed to update bus location",
			map[string]interface{}{"busId": id})
		return
	}

	metrics.BusLocationUpdate("updated")
	zap.S().Debugf("Bus %s moved to %s,%s", bus.ID, body.Latitude, body.Longitude)
	writeJSON(w, http.StatusOK, cacheLive, bus)
}
