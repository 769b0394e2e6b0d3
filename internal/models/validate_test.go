package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestInsertLocationValidate(t *testing.T) {
	ok := InsertLocation{Name: "Patiala", Type: LocationCity}
	assert.NoError(t, ok.Validate())

	// Dangling parents are allowed
	child := InsertLocation{Name: "Stop", Type: LocationBusStop, ParentLocationID: strPtr("does-not-exist")}
	assert.NoError(t, child.Validate())

	bad := InsertLocation{Name: "", Type: "village"}
	err := bad.Validate()
	require.Error(t, err)
	details := ValidationError(err)
	assert.Equal(t, "required", details["Name"])
	assert.Equal(t, "oneof", details["Type"])
}

func TestInsertRouteValidate(t *testing.T) {
	r := InsertRoute{
		Name:            "Patiala - Chandigarh",
		StartLocationID: "a",
		EndLocationID:   "b",
		BusType:         BusTypeDeluxe,
		StartTime:       "17:00",
		EndTime:         "23:00",
	}
	assert.NoError(t, r.Validate())

	r.BusType = "Sleeper"
	assert.Error(t, r.Validate())
}

func TestInsertBusValidate(t *testing.T) {
	b := InsertBus{RouteID: "r1", BusNumber: "PB-05-2847", Status: BusActive}
	assert.NoError(t, b.Validate())

	b.CurrentLatitude = strPtr("30.4828")
	b.CurrentLongitude = strPtr("76.3903")
	assert.NoError(t, b.Validate())

	b.CurrentLatitude = strPtr("95")
	assert.Error(t, b.Validate())

	b.CurrentLatitude = nil
	b.Status = "parked"
	assert.Error(t, b.Validate())
}

func TestBusLocationUpdateValidate(t *testing.T) {
	assert.NoError(t, (&BusLocationUpdate{Latitude: "30.48", Longitude: "76.39"}).Validate())
	assert.Error(t, (&BusLocationUpdate{Latitude: "30.48"}).Validate())
	assert.Error(t, (&BusLocationUpdate{Latitude: "north", Longitude: "76.39"}).Validate())
}

func TestInsertScheduleValidate(t *testing.T) {
	s := InsertSchedule{RouteID: "r1", DepartureTime: "12:30", Status: ScheduleScheduled}
	assert.NoError(t, s.Validate())

	s.Status = "boarding"
	assert.Error(t, s.Validate())
}

func TestValidationErrorPassesThroughOtherErrors(t *testing.T) {
	details := ValidationError(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), details["error"])
}

func TestBusHasPosition(t *testing.T) {
	b := Bus{}
	assert.False(t, b.HasPosition())
	b.CurrentLatitude = strPtr("30.48")
	assert.False(t, b.HasPosition())
	b.CurrentLongitude = strPtr("76.39")
	assert.True(t, b.HasPosition())
}

func TestRouteTouches(t *testing.T) {
	r := Route{StartLocationID: "a", EndLocationID: "b"}
	assert.True(t, r.Touches("a"))
	assert.True(t, r.Touches("b"))
	assert.False(t, r.Touches("c"))
}
