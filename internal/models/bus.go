package models

import "time"

// BusStatus is the operational state of a Bus
type BusStatus string

const (
	BusActive      BusStatus = "active"
	BusInactive    BusStatus = "inactive"
	BusMaintenance BusStatus = "maintenance"
)

// Bus is a vehicle assigned to a Route
type Bus struct {
	ID        string `db:"id" json:"id"`
	RouteID   string `db:"route_id" json:"routeId"`
	BusNumber string `db:"bus_number" json:"busNumber"`

	// Last known position as reported, kept as strings (nullable)
	CurrentLatitude  *string `db:"current_latitude" json:"currentLatitude"`
	CurrentLongitude *string `db:"current_longitude" json:"currentLongitude"`

	Status BusStatus `db:"status" json:"status"`

	// Set on insert, refreshed by every location update
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// InsertBus is the create payload for a Bus. LastUpdated is server managed.
type InsertBus struct {
	RouteID          string    `json:"routeId" yaml:"routeId" validate:"required"`
	BusNumber        string    `json:"busNumber" yaml:"busNumber" validate:"required"`
	CurrentLatitude  *string   `json:"currentLatitude,omitempty" yaml:"currentLatitude,omitempty" validate:"omitempty,latitude"`
	CurrentLongitude *string   `json:"currentLongitude,omitempty" yaml:"currentLongitude,omitempty" validate:"omitempty,longitude"`
	Status           BusStatus `json:"status" yaml:"status" validate:"required,oneof=active inactive maintenance"`
}

func (b *InsertBus) Validate() error {
	return validate.Struct(b)
}

// BusLocationUpdate is the body of PUT /api/buses/{id}/location
type BusLocationUpdate struct {
	Latitude  string `json:"latitude" validate:"required,latitude"`
	Longitude string `json:"longitude" validate:"required,longitude"`
}

func (u *BusLocationUpdate) Validate() error {
	return validate.Struct(u)
}

// HasPosition reports whether both coordinates are present
func (b *Bus) HasPosition() bool {
	return b.CurrentLatitude != nil && b.CurrentLongitude != nil &&
		*b.CurrentLatitude != "" && *b.CurrentLongitude != ""
}
