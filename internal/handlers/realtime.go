package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/models"
	"github.com/mra-2007/TransitTrack/internal/realtime"
)

// FleetRepository lists every bus for feed export
type FleetRepository interface {
	ListBuses(ctx context.Context) ([]models.Bus, error)
}

// RealtimeHandler serves the GTFS-Realtime vehicle positions feed
type RealtimeHandler struct {
	repo FleetRepository
	now  func() time.Time
}

// NewRealtimeHandler creates a new handler with the given repository
func NewRealtimeHandler(repo FleetRepository) *RealtimeHandler {
	return &RealtimeHandler{repo: repo, now: time.Now}
}

// GetVehiclePositions handles GET /api/realtime/vehicle-positions?routeId=&format=json
// Protobuf by default; format=json returns the same feed through protojson
func (h *RealtimeHandler) GetVehiclePositions(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("routeId")
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "pb" {
		writeError(w, http.StatusBadRequest, "Invalid format", map[string]interface{}{
			"format":  format,
			"allowed": []string{"pb", "json"},
		})
		return
	}

	buses, err := h.repo.ListBuses(r.Context())
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve buses", nil)
		return
	}

	if routeID != "" {
		filtered := buses[:0]
		for _, b := range buses {
			if b.RouteID == routeID {
				filtered = append(filtered, b)
			}
		}
		buses = filtered
	}

	feed := realtime.BuildVehiclePositions(buses, h.now())
	body, contentType, err := realtime.Encode(feed, format == "json")
	if err != nil {
		zap.S().Errorf("Failed to encode vehicle positions: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode feed", nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheLive)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		zap.S().Warnf("Failed to write vehicle positions: %v", err)
	}
}
