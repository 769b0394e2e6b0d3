package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mra-2007/TransitTrack/internal/models"
)

// MemoryStore keeps every collection in maps for the lifetime of the process.
// Each collection also records insertion order so scans are deterministic.
//
// The mutex only makes single operations atomic; there are no multi-entity transactions
// and concurrent UpdateBusLocation calls on the same bus resolve last-writer-wins.
type MemoryStore struct {
	mu sync.RWMutex

	locations     map[string]models.Location
	locationOrder []string
	routes        map[string]models.Route
	routeOrder    []string
	buses         map[string]models.Bus
	busOrder      []string
	schedules     map[string]models.Schedule
	scheduleOrder []string

	now func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations: make(map[string]models.Location),
		routes:    make(map[string]models.Route),
		buses:     make(map[string]models.Bus),
		schedules: make(map[string]models.Schedule),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyLocation(loc), nil
}

func (s *MemoryStore) GetLocationsByParent(ctx context.Context, parentID *string) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Location, 0)
	for _, id := range s.locationOrder {
		loc := s.locations[id]
		if sameParent(loc.ParentLocationID, parentID) {
			result = append(result, *copyLocation(loc))
		}
	}
	return result, nil
}

func (s *MemoryStore) CreateLocation(ctx context.Context, data models.InsertLocation) (*models.Location, error) {
	loc := models.Location{
		ID:               newID(),
		Name:             data.Name,
		Type:             data.Type,
		ParentLocationID: normalizeOptional(data.ParentLocationID),
	}

	s.mu.Lock()
	s.locations[loc.ID] = loc
	s.locationOrder = append(s.locationOrder, loc.ID)
	s.mu.Unlock()

	return copyLocation(loc), nil
}

func (s *MemoryStore) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	route, ok := s.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &route, nil
}

// GetRoutesByLocation joins each matching route with its two endpoints.
// A route whose start or end location is missing is left out.
func (s *MemoryStore) GetRoutesByLocation(ctx context.Context, locationID string) ([]models.RouteWithLocations, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.RouteWithLocations, 0)
	for _, id := range s.routeOrder {
		route := s.routes[id]
		if !route.Touches(locationID) {
			continue
		}

		start, ok := s.locations[route.StartLocationID]
		if !ok {
			continue
		}
		end, ok := s.locations[route.EndLocationID]
		if !ok {
			continue
		}

		result = append(result, models.RouteWithLocations{
			Route:         route,
			StartLocation: *copyLocation(start),
			EndLocation:   *copyLocation(end),
		})
	}
	return result, nil
}

func (s *MemoryStore) CreateRoute(ctx context.Context, data models.InsertRoute) (*models.Route, error) {
	route := models.Route{
		ID:              newID(),
		Name:            data.Name,
		StartLocationID: data.StartLocationID,
		EndLocationID:   data.EndLocationID,
		BusType:         data.BusType,
		StartTime:       data.StartTime,
		EndTime:         data.EndTime,
	}

	s.mu.Lock()
	s.routes[route.ID] = route
	s.routeOrder = append(s.routeOrder, route.ID)
	s.mu.Unlock()

	return &route, nil
}

func (s *MemoryStore) ListRoutes(ctx context.Context) ([]models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Route, 0, len(s.routeOrder))
	for _, id := range s.routeOrder {
		result = append(result, s.routes[id])
	}
	return result, nil
}

func (s *MemoryStore) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bus, ok := s.buses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBus(bus), nil
}

func (s *MemoryStore) GetBusesByRoute(ctx context.Context, routeID string) ([]models.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Bus, 0)
	for _, id := range s.busOrder {
		bus := s.buses[id]
		if bus.RouteID == routeID {
			result = append(result, *copyBus(bus))
		}
	}
	return result, nil
}

func (s *MemoryStore) CreateBus(ctx context.Context, data models.InsertBus) (*models.Bus, error) {
	bus := models.Bus{
		ID:               newID(),
		RouteID:          data.RouteID,
		BusNumber:        data.BusNumber,
		CurrentLatitude:  normalizeOptional(data.CurrentLatitude),
		CurrentLongitude: normalizeOptional(data.CurrentLongitude),
		Status:           data.Status,
		LastUpdated:      s.now(),
	}

	s.mu.Lock()
	s.buses[bus.ID] = bus
	s.busOrder = append(s.busOrder, bus.ID)
	s.mu.Unlock()

	return copyBus(bus), nil
}

// UpdateBusLocation replaces the coordinates and refreshes LastUpdated.
// Unknown ids return ErrNotFound and leave the store untouched.
func (s *MemoryStore) UpdateBusLocation(ctx context.Context, id, latitude, longitude string) (*models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bus, ok := s.buses[id]
	if !ok {
		return nil, ErrNotFound
	}

	lat, lng := latitude, longitude
	bus.CurrentLatitude = &lat
	bus.CurrentLongitude = &lng
	bus.LastUpdated = s.now()
	s.buses[id] = bus

	return copyBus(bus), nil
}

func (s *MemoryStore) ListBuses(ctx context.Context) ([]models.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Bus, 0, len(s.busOrder))
	for _, id := range s.busOrder {
		result = append(result, *copyBus(s.buses[id]))
	}
	return result, nil
}

func (s *MemoryStore) GetSchedulesByRoute(ctx context.Context, routeID string) ([]models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Schedule, 0)
	for _, id := range s.scheduleOrder {
		sched := s.schedules[id]
		if sched.RouteID == routeID {
			result = append(result, *copySchedule(sched))
		}
	}
	return result, nil
}

func (s *MemoryStore) CreateSchedule(ctx context.Context, data models.InsertSchedule) (*models.Schedule, error) {
	sched := models.Schedule{
		ID:               newID(),
		RouteID:          data.RouteID,
		DepartureTime:    data.DepartureTime,
		EstimatedArrival: normalizeOptional(data.EstimatedArrival),
		ActualArrival:    normalizeOptional(data.ActualArrival),
		Status:           data.Status,
	}

	s.mu.Lock()
	s.schedules[sched.ID] = sched
	s.scheduleOrder = append(s.scheduleOrder, sched.ID)
	s.mu.Unlock()

	return copySchedule(sched), nil
}

func (s *MemoryStore) Stats(ctx context.Context) (models.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.StoreStats{
		Locations: len(s.locations),
		Routes:    len(s.routes),
		Buses:     len(s.buses),
		Schedules: len(s.schedules),
	}, nil
}

// Close is a no-op; memory contents are discarded with the process
func (s *MemoryStore) Close() error {
	return nil
}

func sameParent(stored, wanted *string) bool {
	if stored == nil || wanted == nil {
		return stored == nil && wanted == nil
	}
	return *stored == *wanted
}

func copyLocation(l models.Location) *models.Location {
	l.ParentLocationID = cloneString(l.ParentLocationID)
	return &l
}

func copyBus(b models.Bus) *models.Bus {
	b.CurrentLatitude = cloneString(b.CurrentLatitude)
	b.CurrentLongitude = cloneString(b.CurrentLongitude)
	return &b
}

func copySchedule(sc models.Schedule) *models.Schedule {
	sc.EstimatedArrival = cloneString(sc.EstimatedArrival)
	sc.ActualArrival = cloneString(sc.ActualArrival)
	return &sc
}
