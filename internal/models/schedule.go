package models

// ScheduleStatus is the state of a single departure
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleDelayed   ScheduleStatus = "delayed"
	ScheduleArrived   ScheduleStatus = "arrived"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// Schedule is one planned departure on a Route with optional arrival times
type Schedule struct {
	ID            string `db:"id" json:"id"`
	RouteID       string `db:"route_id" json:"routeId"`
	DepartureTime string `db:"departure_time" json:"departureTime"`

	// Nullable in storage
	EstimatedArrival *string `db:"estimated_arrival" json:"estimatedArrival"`
	ActualArrival    *string `db:"actual_arrival" json:"actualArrival"`

	Status ScheduleStatus `db:"status" json:"status"`
}

// InsertSchedule is the create payload for a Schedule
type InsertSchedule struct {
	RouteID          string         `json:"routeId" yaml:"routeId" validate:"required"`
	DepartureTime    string         `json:"departureTime" yaml:"departureTime" validate:"required"`
	EstimatedArrival *string        `json:"estimatedArrival,omitempty" yaml:"estimatedArrival,omitempty"`
	ActualArrival    *string        `json:"actualArrival,omitempty" yaml:"actualArrival,omitempty"`
	Status           ScheduleStatus `json:"status" yaml:"status" validate:"required,oneof=scheduled delayed arrived cancelled"`
}

func (s *InsertSchedule) Validate() error {
	return validate.Struct(s)
}
