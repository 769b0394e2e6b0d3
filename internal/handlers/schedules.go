package handlers

import (
	"context"
	"net/http"

	"github.com/mra-2007/TransitTrack/internal/models"
)

// ScheduleRepository defines the store operations the schedule endpoints need
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, data models.InsertSchedule) (*models.Schedule, error)
}

// ScheduleHandler handles HTTP requests for schedules
type ScheduleHandler struct {
	repo ScheduleRepository
}

// NewScheduleHandler creates a new handler with the given repository
func NewScheduleHandler(repo ScheduleRepository) *ScheduleHandler {
	return &ScheduleHandler{repo: repo}
}

// CreateSchedule handles POST /api/schedules
// Schedules are listed per route through GET /api/routes/{routeId}/schedules
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var body models.InsertSchedule
	if !decodeBody(w, r, &body) {
		return
	}

	schedule, err := h.repo.CreateSchedule(r.Context(), body)
	if err != nil {
		writeStoreError(w, err, "", "Failed to create schedule", nil)
		return
	}

	writeJSON(w, http.StatusCreated, "", schedule)
}
