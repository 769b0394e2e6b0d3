package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mra-2007/TransitTrack/internal/models"
)

// runStoreSuite checks the Store contract against a fresh, empty store per subtest
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s Store)
	}{
		{"CreateAndGetLocation", testCreateAndGetLocation},
		{"LocationsByParent", testLocationsByParent},
		{"RouteJoinPatialaChandigarh", testRouteJoin},
		{"DanglingRouteEndpointsExcluded", testDanglingRoutes},
		{"GetRouteNotFound", testGetRouteNotFound},
		{"UpdateBusLocation", testUpdateBusLocation},
		{"UpdateMissingBusLeavesStoreUnchanged", testUpdateMissingBus},
		{"BusesByRouteExactSet", testBusesByRoute},
		{"SchedulesByRoute", testSchedulesByRoute},
		{"RepeatedGetsAreIdentical", testIdempotentGets},
		{"ListAndStats", testListAndStats},
		{"ConcurrentLocationUpdates", testConcurrentUpdates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func ptr(s string) *string { return &s }

func mustLocation(t *testing.T, s Store, name string, typ models.LocationType, parent *string) *models.Location {
	t.Helper()
	loc, err := s.CreateLocation(context.Background(), models.InsertLocation{Name: name, Type: typ, ParentLocationID: parent})
	require.NoError(t, err)
	return loc
}

func mustRoute(t *testing.T, s Store, name, start, end string) *models.Route {
	t.Helper()
	route, err := s.CreateRoute(context.Background(), models.InsertRoute{
		Name:            name,
		StartLocationID: start,
		EndLocationID:   end,
		BusType:         models.BusTypeOrdinary,
		StartTime:       "07:00",
		EndTime:         "16:00",
	})
	require.NoError(t, err)
	return route
}

func mustBus(t *testing.T, s Store, routeID, number string) *models.Bus {
	t.Helper()
	bus, err := s.CreateBus(context.Background(), models.InsertBus{
		RouteID:   routeID,
		BusNumber: number,
		Status:    models.BusActive,
	})
	require.NoError(t, err)
	return bus
}

// assertSameBus compares buses field by field; timestamps by instant
func assertSameBus(t *testing.T, want, got models.Bus) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.RouteID, got.RouteID)
	assert.Equal(t, want.BusNumber, got.BusNumber)
	assert.Equal(t, want.CurrentLatitude, got.CurrentLatitude)
	assert.Equal(t, want.CurrentLongitude, got.CurrentLongitude)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.LastUpdated.Equal(got.LastUpdated), "lastUpdated %v != %v", want.LastUpdated, got.LastUpdated)
}

func testCreateAndGetLocation(t *testing.T, s Store) {
	ctx := context.Background()

	city := mustLocation(t, s, "Patiala", models.LocationCity, nil)
	assert.NotEmpty(t, city.ID)
	assert.Nil(t, city.ParentLocationID)

	got, err := s.GetLocation(ctx, city.ID)
	require.NoError(t, err)
	assert.Equal(t, city, got)

	// Blank parent is treated as absent
	blank := mustLocation(t, s, "Somewhere", models.LocationLandmark, ptr(""))
	assert.Nil(t, blank.ParentLocationID)

	// Parent references are not checked
	orphan := mustLocation(t, s, "Orphan Stop", models.LocationBusStop, ptr("no-such-parent"))
	require.NotNil(t, orphan.ParentLocationID)
	assert.Equal(t, "no-such-parent", *orphan.ParentLocationID)

	_, err = s.GetLocation(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func testLocationsByParent(t *testing.T, s Store) {
	ctx := context.Background()

	patiala := mustLocation(t, s, "Patiala", models.LocationCity, nil)
	chandigarh := mustLocation(t, s, "Chandigarh", models.LocationCity, nil)
	mustLocation(t, s, "Central Bus Stand", models.LocationBusStop, &patiala.ID)
	mustLocation(t, s, "Mall Road", models.LocationLandmark, &patiala.ID)
	mustLocation(t, s, "ISBT 17", models.LocationBusStop, &chandigarh.ID)

	top, err := s.GetLocationsByParent(ctx, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Patiala", "Chandigarh"}, locationNames(top))

	children, err := s.GetLocationsByParent(ctx, &patiala.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Central Bus Stand", "Mall Road"}, locationNames(children))

	none, err := s.GetLocationsByParent(ctx, ptr("unknown"))
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func locationNames(locs []models.Location) []string {
	names := make([]string, 0, len(locs))
	for _, l := range locs {
		names = append(names, l.Name)
	}
	return names
}

func testRouteJoin(t *testing.T, s Store) {
	ctx := context.Background()

	a := mustLocation(t, s, "Patiala", models.LocationCity, nil)
	b := mustLocation(t, s, "Chandigarh", models.LocationCity, nil)
	r := mustRoute(t, s, "Patiala - Chandigarh", a.ID, b.ID)

	for _, id := range []string{a.ID, b.ID} {
		routes, err := s.GetRoutesByLocation(ctx, id)
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, *r, routes[0].Route)
		assert.Equal(t, *a, routes[0].StartLocation)
		assert.Equal(t, *b, routes[0].EndLocation)
		assert.Equal(t, "Patiala", routes[0].StartLocation.Name)
		assert.Equal(t, "Chandigarh", routes[0].EndLocation.Name)
	}

	got, err := s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func testDanglingRoutes(t *testing.T, s Store) {
	ctx := context.Background()

	a := mustLocation(t, s, "Patiala", models.LocationCity, nil)
	mustRoute(t, s, "To nowhere", a.ID, "ghost-end")
	mustRoute(t, s, "From nowhere", "ghost-start", a.ID)
	ok := mustRoute(t, s, "Loop", a.ID, a.ID)

	routes, err := s.GetRoutesByLocation(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, ok.ID, routes[0].ID)

	for _, id := range []string{"ghost-end", "ghost-start"} {
		routes, err := s.GetRoutesByLocation(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, routes)
	}

	// The dangling route is still stored
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Routes)
}

func testGetRouteNotFound(t *testing.T, s Store) {
	_, err := s.GetRoute(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.GetBus(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func testUpdateBusLocation(t *testing.T, s Store) {
	ctx := context.Background()

	bus := mustBus(t, s, "route-1", "PB-05-2847")
	assert.Nil(t, bus.CurrentLatitude)
	assert.Nil(t, bus.CurrentLongitude)
	assert.False(t, bus.LastUpdated.IsZero())

	time.Sleep(2 * time.Millisecond)

	updated, err := s.UpdateBusLocation(ctx, bus.ID, "30.48", "76.39")
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentLatitude)
	require.NotNil(t, updated.CurrentLongitude)
	assert.Equal(t, "30.48", *updated.CurrentLatitude)
	assert.Equal(t, "76.39", *updated.CurrentLongitude)
	assert.False(t, updated.LastUpdated.Before(bus.LastUpdated))
	assert.Equal(t, bus.BusNumber, updated.BusNumber)
	assert.Equal(t, bus.Status, updated.Status)

	got, err := s.GetBus(ctx, bus.ID)
	require.NoError(t, err)
	assertSameBus(t, *updated, *got)
}

func testUpdateMissingBus(t *testing.T, s Store) {
	ctx := context.Background()

	bus := mustBus(t, s, "route-1", "PB-03-1569")
	before, err := s.ListBuses(ctx)
	require.NoError(t, err)

	updated, err := s.UpdateBusLocation(ctx, "nonexistent", "1", "2")
	assert.Nil(t, updated)
	assert.True(t, errors.Is(err, ErrNotFound))

	after, err := s.ListBuses(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	assertSameBus(t, before[0], after[0])
	assert.Equal(t, bus.ID, after[0].ID)
}

func testBusesByRoute(t *testing.T, s Store) {
	ctx := context.Background()

	want := map[string]bool{}
	for i, routeID := range []string{"r1", "r2", "r1", "r3", "r1"} {
		b := mustBus(t, s, routeID, "PB-"+string(rune('A'+i)))
		if routeID == "r1" {
			want[b.ID] = true
		}
	}

	buses, err := s.GetBusesByRoute(ctx, "r1")
	require.NoError(t, err)
	got := map[string]bool{}
	for _, b := range buses {
		assert.Equal(t, "r1", b.RouteID)
		got[b.ID] = true
	}
	assert.Equal(t, want, got)
	assert.Len(t, buses, 3)

	none, err := s.GetBusesByRoute(ctx, "r9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testSchedulesByRoute(t *testing.T, s Store) {
	ctx := context.Background()

	first, err := s.CreateSchedule(ctx, models.InsertSchedule{
		RouteID:       "r1",
		DepartureTime: "12:30",
		Status:        models.ScheduleScheduled,
	})
	require.NoError(t, err)
	assert.Nil(t, first.EstimatedArrival)
	assert.Nil(t, first.ActualArrival)

	second, err := s.CreateSchedule(ctx, models.InsertSchedule{
		RouteID:          "r1",
		DepartureTime:    "18:45",
		EstimatedArrival: ptr("21:15"),
		Status:           models.ScheduleDelayed,
	})
	require.NoError(t, err)
	_, err = s.CreateSchedule(ctx, models.InsertSchedule{RouteID: "r2", DepartureTime: "09:00", Status: models.ScheduleScheduled})
	require.NoError(t, err)

	schedules, err := s.GetSchedulesByRoute(ctx, "r1")
	require.NoError(t, err)
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].DepartureTime < schedules[j].DepartureTime })
	assert.Equal(t, []models.Schedule{*first, *second}, schedules)
}

func testIdempotentGets(t *testing.T, s Store) {
	ctx := context.Background()

	loc := mustLocation(t, s, "Mohali", models.LocationCity, nil)
	route := mustRoute(t, s, "Mohali - Ropar", loc.ID, loc.ID)
	bus := mustBus(t, s, route.ID, "PB-65-0001")

	l1, err := s.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	l2, err := s.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, l1, l2)

	r1, err := s.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	r2, err := s.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	b1, err := s.GetBus(ctx, bus.ID)
	require.NoError(t, err)
	b2, err := s.GetBus(ctx, bus.ID)
	require.NoError(t, err)
	assertSameBus(t, *b1, *b2)
	assertSameBus(t, *bus, *b1)
}

func testListAndStats(t *testing.T, s Store) {
	ctx := context.Background()

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StoreStats{}, st)

	a := mustLocation(t, s, "Jalandhar", models.LocationCity, nil)
	b := mustLocation(t, s, "Ropar", models.LocationCity, nil)
	r := mustRoute(t, s, "Jalandhar - Ropar", a.ID, b.ID)
	mustBus(t, s, r.ID, "PB-08-0001")
	mustBus(t, s, r.ID, "PB-08-0002")

	routes, err := s.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Route{*r}, routes)

	buses, err := s.ListBuses(ctx)
	require.NoError(t, err)
	assert.Len(t, buses, 2)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StoreStats{Locations: 2, Routes: 1, Buses: 2}, st)
}

func testConcurrentUpdates(t *testing.T, s Store) {
	ctx := context.Background()
	bus := mustBus(t, s, "r1", "PB-11-7777")

	coords := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		coords = append(coords, "30."+strconv.Itoa(i))
	}

	var wg sync.WaitGroup
	for _, lat := range coords {
		wg.Add(1)
		go func(lat string) {
			defer wg.Done()
			updated, err := s.UpdateBusLocation(ctx, bus.ID, lat, "76.0")
			if !assert.NoError(t, err) {
				return
			}
			// Each caller sees its own write, not a neighbour's
			if assert.NotNil(t, updated.CurrentLatitude) {
				assert.Equal(t, lat, *updated.CurrentLatitude)
			}
		}(lat)
	}
	wg.Wait()

	// Last writer wins; the result is one of the written values
	got, err := s.GetBus(ctx, bus.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLatitude)
	assert.Contains(t, coords, *got.CurrentLatitude)
	assert.Equal(t, "76.0", *got.CurrentLongitude)
}
