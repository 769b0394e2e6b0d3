// Package repository holds the transport store: Locations, Routes, Buses and Schedules
// keyed by generated ids, with an in-memory implementation and SQLite/Postgres backed ones
// that honour the same contract.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mra-2007/TransitTrack/internal/models"
)

// ErrNotFound is returned by point lookups and UpdateBusLocation when the id is unknown.
// It is an expected outcome, not a failure of the store.
var ErrNotFound = errors.New("not found")

// Store is the full contract the request layer talks to.
//
// Writes never check references: a Route may name Locations that do not exist and a
// Location may name a missing parent. GetRoutesByLocation is the only place that notices,
// and it drops such routes from its result.
type Store interface {
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	// GetLocationsByParent with a nil parentID returns top-level locations
	GetLocationsByParent(ctx context.Context, parentID *string) ([]models.Location, error)
	CreateLocation(ctx context.Context, data models.InsertLocation) (*models.Location, error)

	GetRoute(ctx context.Context, id string) (*models.Route, error)
	GetRoutesByLocation(ctx context.Context, locationID string) ([]models.RouteWithLocations, error)
	CreateRoute(ctx context.Context, data models.InsertRoute) (*models.Route, error)
	ListRoutes(ctx context.Context) ([]models.Route, error)

	GetBus(ctx context.Context, id string) (*models.Bus, error)
	GetBusesByRoute(ctx context.Context, routeID string) ([]models.Bus, error)
	CreateBus(ctx context.Context, data models.InsertBus) (*models.Bus, error)
	UpdateBusLocation(ctx context.Context, id, latitude, longitude string) (*models.Bus, error)
	ListBuses(ctx context.Context) ([]models.Bus, error)

	GetSchedulesByRoute(ctx context.Context, routeID string) ([]models.Schedule, error)
	CreateSchedule(ctx context.Context, data models.InsertSchedule) (*models.Schedule, error)

	Stats(ctx context.Context) (models.StoreStats, error)
	Close() error
}

// newID returns a random 128-bit identifier
func newID() string {
	return uuid.NewString()
}

// normalizeOptional maps "absent" and "" to nil and copies the value otherwise,
// so stored records never alias caller memory
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
