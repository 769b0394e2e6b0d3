package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mra-2007/TransitTrack/internal/geo"
	"github.com/mra-2007/TransitTrack/internal/models"
)

// RouteRepository defines the store operations the route endpoints need
type RouteRepository interface {
	LocationRepository
	GetRoute(ctx context.Context, id string) (*models.Route, error)
	CreateRoute(ctx context.Context, data models.InsertRoute) (*models.Route, error)
	GetBusesByRoute(ctx context.Context, routeID string) ([]models.Bus, error)
	GetSchedulesByRoute(ctx context.Context, routeID string) ([]models.Schedule, error)
}

// RouteHandler handles HTTP requests for routes and their buses and schedules
type RouteHandler struct {
	repo         RouteRepository
	nearestLimit int
}

// NewRouteHandler creates a new handler; nearestLimit caps nearest-bus results by default
func NewRouteHandler(repo RouteRepository, nearestLimit int) *RouteHandler {
	return &RouteHandler{repo: repo, nearestLimit: nearestLimit}
}

// BusesResponse is the JSON response structure for GET /api/routes/{routeId}/buses
type BusesResponse struct {
	Buses []models.Bus `json:"buses"`
	Count int          `json:"count"`
}

// NearestBusesResponse is the JSON response for GET /api/routes/{routeId}/buses/nearest
type NearestBusesResponse struct {
	Origin geo.Point                `json:"origin"`
	Buses  []geo.Ranked[models.Bus] `json:"buses"`
	Count  int                      `json:"count"`
}

// SchedulesResponse is the JSON response for GET /api/routes/{routeId}/schedules
type SchedulesResponse struct {
	Schedules []models.Schedule `json:"schedules"`
	Count     int               `json:"count"`
}

// SearchRoutes handles GET /api/routes/search?from=&to=&busType=&sort=
func (h *RouteHandler) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	q := RouteQuery{
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
		BusType: models.BusType(r.URL.Query().Get("busType")),
		Sort:    r.URL.Query().Get("sort"),
	}

	if q.From == "" {
		writeError(w, http.StatusBadRequest, "from parameter is required", nil)
		return
	}
	if q.From == q.To {
		writeError(w, http.StatusBadRequest, "from and to must differ", nil)
		return
	}
	switch q.BusType {
	case "", models.BusTypeOrdinary, models.BusTypeDeluxe:
	default:
		writeError(w, http.StatusBadRequest, "Invalid busType", map[string]interface{}{
			"busType": string(q.BusType),
			"allowed": []models.BusType{models.BusTypeOrdinary, models.BusTypeDeluxe},
		})
		return
	}
	switch q.Sort {
	case "":
		q.Sort = SortDeparture
	case SortDeparture, SortArrival, SortName:
	default:
		writeError(w, http.StatusBadRequest, "Invalid sort", map[string]interface{}{
			"sort":    q.Sort,
			"allowed": []string{SortDeparture, SortArrival, SortName},
		})
		return
	}

	routes, err := searchRoutes(r.Context(), h.repo, q)
	if err != nil {
		writeStoreError(w, err, "", "Failed to search routes", nil)
		return
	}

	writeJSON(w, http.StatusOK, cacheStatic, RoutesResponse{Routes: routes, Count: len(routes)})
}

// GetRoute handles GET /api/routes/{routeId}
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "routeId")

	route, err := h.repo.GetRoute(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Route not found", "Failed to retrieve route",
			map[string]interface{}{"routeId": id})
		return
	}

	writeJSON(w, http.StatusOK, cacheStatic, route)
}

// CreateRoute handles POST /api/routes
// Endpoint ids are not checked; a route with unknown endpoints is hidden from joins
func (h *RouteHandler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var body models.InsertRoute
	if !decodeBody(w, r, &body) {
		return
	}

	route, err := h.repo.CreateRoute(r.Context(), body)
	if err != nil {
		writeStoreError(w, err, "", "Failed to create route", nil)
		return
	}

	writeJSON(w, http.StatusCreated, "", route)
}

// GetBusesByRoute handles GET /api/routes/{routeId}/buses
func (h *RouteHandler) GetBusesByRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "routeId")

	buses, err := h.repo.GetBusesByRoute(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve buses", nil)
		return
	}

	writeJSON(w, http.StatusOK, cacheLive, BusesResponse{Buses: buses, Count: len(buses)})
}

// GetNearestBuses handles GET /api/routes/{routeId}/buses/nearest?lat=&lng=&limit=
// Buses without a usable position are left out
func (h *RouteHandler) GetNearestBuses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "routeId")

	origin, err := geo.ParseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat and lng must be valid coordinates", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	limit := h.nearestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	buses, err := h.repo.GetBusesByRoute(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve buses", nil)
		return
	}

	ranked := geo.Nearest(origin, buses, busPosition, limit)
	writeJSON(w, http.StatusOK, cacheLive, NearestBusesResponse{Origin: origin, Buses: ranked, Count: len(ranked)})
}

func busPosition(b models.Bus) (geo.Point, bool) {
	p, err := geo.ParsePoint(b.CurrentLatitude, b.CurrentLongitude)
	return p, err == nil
}

// GetSchedulesByRoute handles GET /api/routes/{routeId}/schedules
func (h *RouteHandler) GetSchedulesByRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "routeId")

	schedules, err := h.repo.GetSchedulesByRoute(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "", "Failed to retrieve schedules", nil)
		return
	}

	writeJSON(w, http.StatusOK, cacheLive, SchedulesResponse{Schedules: schedules, Count: len(schedules)})
}
