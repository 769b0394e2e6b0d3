package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mra-2007/TransitTrack/internal/models"
)

// LocationRepository defines the store operations the location endpoints need
type LocationRepository interface {
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	GetLocationsByParent(ctx context.Context, parentID *string) ([]models.Location, error)
	CreateLocation(ctx context.Context, data models.InsertLocation) (*models.Location, error)
	GetRoutesByLocation(ctx context.Context, locationID string) ([]models.RouteWithLocations, error)
}

// LocationHandler handles HTTP requests for locations
type LocationHandler struct {
	repo LocationRepository
}

// NewLocationHandler creates a new handler with the given repository
func NewLocationHandler(repo LocationRepository) *LocationHandler {
	return &LocationHandler{repo: repo}
}

// ListLocationsResponse is the JSON response structure for GET /api/locations
type ListLocationsResponse struct {
	Locations []models.LocationWithSubLocations `json:"locations"`
	Count     int                               `json:"count"`
}

// LocationsResponse wraps a flat list of locations
type LocationsResponse struct {
	Locations []models.Location `json:"locations"`
	Count     int               `json:"count"`
}

// RoutesResponse wraps joined routes
type RoutesResponse struct {
	Routes []models.RouteWithLocations `json:"routes"`
	Count  int                         `json:"count"`
}

// ListLocations handles GET /api/locations
// Returns top-level locations, each with its direct children, for the location picker
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	top, err := h.repo.GetLocationsByParent(ctx, nil)
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve locations", nil)
		return
	}

	tree := make([]models.LocationWithSubLocations, 0, len(top))
	for _, loc := range top {
		id := loc.ID
		children, err := h.repo.GetLocationsByParent(ctx, &id)
		if err != nil {
			writeStoreError(w, err, "", "Failed to retrieve locations", nil)
			return
		}
		tree = append(tree, models.LocationWithSubLocations{Location: loc, SubLocations: children})
	}

	writeJSON(w, http.StatusOK, cacheStatic, ListLocationsResponse{Locations: tree, Count: len(tree)})
}

// GetLocation handles GET /api/locations/{locationId}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "locationId")

	loc, err := h.repo.GetLocation(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Location not found", "Failed to retrieve location",
			map[string]interface{}{"locationId": id})
		return
	}

	writeJSON(w, http.StatusOK, cacheStatic, loc)
}

// GetChildren handles GET /api/locations/{locationId}/children
func (h *LocationHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "locationId")

	children, err := h.repo.GetLocationsByParent(r.Context(), &id)
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve locations", nil)
		return
	}

	writeJSON(w, http.StatusOK, cacheStatic, LocationsResponse{Locations: children, Count: len(children)})
}

// CreateLocation handles POST /api/locations
// The parent reference is stored as given, even if no such location exists
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var body models.InsertLocation
	if !decodeBody(w, r, &body) {
		return
	}

	loc, err := h.repo.CreateLocation(r.Context(), body)
	if err != nil {
		writeStoreError(w, err, "", "Failed to create location", nil)
		return
	}

	writeJSON(w, http.StatusCreated, "", loc)
}

// GetRoutesByLocation handles GET /api/locations/{locationId}/routes
// Routes whose endpoints cannot both be resolved are omitted by the store
func (h *LocationHandler) GetRoutesByLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "locationId")

	routes, err := h.repo.GetRoutesByLocation(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve routes", nil)
		return
	}

	writeJSON(w, http.StatusOK, cacheStatic, RoutesResponse{Routes: routes, Count: len(routes)})
}
