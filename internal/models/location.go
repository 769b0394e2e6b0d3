package models

// LocationType classifies a Location
type LocationType string

const (
	LocationCity     LocationType = "city"
	LocationBusStop  LocationType = "bus_stop"
	LocationLandmark LocationType = "landmark"
)

// Location is a named place, optionally nested under a parent Location (city -> stops)
type Location struct {
	ID   string       `db:"id" json:"id"`
	Name string       `db:"name" json:"name"`
	Type LocationType `db:"type" json:"type"`

	// Nil for top-level locations. Not checked against the store on write.
	ParentLocationID *string `db:"parent_location_id" json:"parentLocationId"`
}

// InsertLocation is the create payload for a Location (server assigns the id)
type InsertLocation struct {
	Name             string       `json:"name" yaml:"name" validate:"required"`
	Type             LocationType `json:"type" yaml:"type" validate:"required,oneof=city bus_stop landmark"`
	ParentLocationID *string      `json:"parentLocationId,omitempty" yaml:"parentLocationId,omitempty"`
}

// Validate checks field shapes only; the parent reference is intentionally not resolved
func (l *InsertLocation) Validate() error {
	return validate.Struct(l)
}

// LocationWithSubLocations is a top-level location with its direct children, used by the
// location picker
type LocationWithSubLocations struct {
	Location
	SubLocations []Location `json:"subLocations"`
}
