package models

// BusType is the service class of a Route
type BusType string

const (
	BusTypeOrdinary BusType = "Ordinary"
	BusTypeDeluxe   BusType = "Deluxe"
)

// Route is a bus service between two Locations
type Route struct {
	ID              string  `db:"id" json:"id"`
	Name            string  `db:"name" json:"name"`
	StartLocationID string  `db:"start_location_id" json:"startLocationId"`
	EndLocationID   string  `db:"end_location_id" json:"endLocationId"`
	BusType         BusType `db:"bus_type" json:"busType"`

	// Display strings ("07:26"), never parsed
	StartTime string `db:"start_time" json:"startTime"`
	EndTime   string `db:"end_time" json:"endTime"`
}

// InsertRoute is the create payload for a Route
type InsertRoute struct {
	Name            string  `json:"name" yaml:"name" validate:"required"`
	StartLocationID string  `json:"startLocationId" yaml:"startLocationId" validate:"required"`
	EndLocationID   string  `json:"endLocationId" yaml:"endLocationId" validate:"required"`
	BusType         BusType `json:"busType" yaml:"busType" validate:"required,oneof=Ordinary Deluxe"`
	StartTime       string  `json:"startTime" yaml:"startTime" validate:"required"`
	EndTime         string  `json:"endTime" yaml:"endTime" validate:"required"`
}

func (r *InsertRoute) Validate() error {
	return validate.Struct(r)
}

// RouteWithLocations is a Route with both endpoint Locations resolved inline.
// Only produced on read; never stored.
type RouteWithLocations struct {
	Route
	StartLocation Location `json:"startLocation"`
	EndLocation   Location `json:"endLocation"`
}

// Touches reports whether the route starts or ends at locationID
func (r *Route) Touches(locationID string) bool {
	return r.StartLocationID == locationID || r.EndLocationID == locationID
}
