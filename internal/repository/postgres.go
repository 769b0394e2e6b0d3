package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/models"
)

//go:embed postgres_schema.sql
var postgresSchemaSQL string

// PostgresStore implements Store on PostgreSQL through a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, pings it and ensures the schema exists
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	zap.S().Infof("Connected to PostgreSQL database")
	return &PostgresStore{pool: pool}, nil
}

func (r *PostgresStore) Close() error {
	r.pool.Close()
	return nil
}

const pgLocationColumns = `id, name, type, parent_location_id`

func scanPgLocation(row pgx.Row) (*models.Location, error) {
	var l models.Location
	if err := row.Scan(&l.ID, &l.Name, &l.Type, &l.ParentLocationID); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PostgresStore) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	loc, err := scanPgLocation(r.pool.QueryRow(ctx, `SELECT `+pgLocationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query location: %w", err)
	}
	return loc, nil
}

func (r *PostgresStore) GetLocationsByParent(ctx context.Context, parentID *string) ([]models.Location, error) {
	// IS NOT DISTINCT FROM matches NULL against NULL, giving top-level rows for a nil parent
	rows, err := r.pool.Query(ctx,
		`SELECT `+pgLocationColumns+` FROM locations WHERE parent_location_id IS NOT DISTINCT FROM $1 ORDER BY seq`,
		parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations by parent: %w", err)
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		loc, err := scanPgLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}
	return locations, nil
}

func (r *PostgresStore) CreateLocation(ctx context.Context, data models.InsertLocation) (*models.Location, error) {
	loc := models.Location{
		ID:               newID(),
		Name:             data.Name,
		Type:             data.Type,
		ParentLocationID: normalizeOptional(data.ParentLocationID),
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO locations (id, name, type, parent_location_id) VALUES ($1, $2, $3, $4)`,
		loc.ID, loc.Name, string(loc.Type), loc.ParentLocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}
	return &loc, nil
}

const pgRouteColumns = `id, name, start_location_id, end_location_id, bus_type, start_time, end_time`

func scanPgRoute(row pgx.Row) (*models.Route, error) {
	var rt models.Route
	if err := row.Scan(&rt.ID, &rt.Name, &rt.StartLocationID, &rt.EndLocationID, &rt.BusType, &rt.StartTime, &rt.EndTime); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *PostgresStore) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	route, err := scanPgRoute(r.pool.QueryRow(ctx, `SELECT `+pgRouteColumns+` FROM routes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query route: %w", err)
	}
	return route, nil
}

func (r *PostgresStore) GetRoutesByLocation(ctx context.Context, locationID string) ([]models.RouteWithLocations, error) {
	query := `
		SELECT
			r.id, r.name, r.start_location_id, r.end_location_id, r.bus_type, r.start_time, r.end_time,
			sl.id, sl.name, sl.type, sl.parent_location_id,
			el.id, el.name, el.type, el.parent_location_id
		FROM routes r
		JOIN locations sl ON sl.id = r.start_location_id
		JOIN locations el ON el.id = r.end_location_id
		WHERE r.start_location_id = $1 OR r.end_location_id = $1
		ORDER BY r.seq
	`

	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes by location: %w", err)
	}
	defer rows.Close()

	routes := make([]models.RouteWithLocations, 0)
	for rows.Next() {
		var rw models.RouteWithLocations
		err := rows.Scan(
			&rw.ID, &rw.Name, &rw.StartLocationID, &rw.EndLocationID, &rw.BusType, &rw.StartTime, &rw.EndTime,
			&rw.StartLocation.ID, &rw.StartLocation.Name, &rw.StartLocation.Type, &rw.StartLocation.ParentLocationID,
			&rw.EndLocation.ID, &rw.EndLocation.Name, &rw.EndLocation.Type, &rw.EndLocation.ParentLocationID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		routes = append(routes, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rows: %w", err)
	}
	return routes, nil
}

func (r *PostgresStore) CreateRoute(ctx context.Context, data models.InsertRoute) (*models.Route, error) {
	route := models.Route{
		ID:              newID(),
		Name:            data.Name,
		StartLocationID: data.StartLocationID,
		EndLocationID:   data.EndLocationID,
		BusType:         data.BusType,
		StartTime:       data.StartTime,
		EndTime:         data.EndTime,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO routes (id, name, start_location_id, end_location_id, bus_type, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		route.ID, route.Name, route.StartLocationID, route.EndLocationID, string(route.BusType), route.StartTime, route.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to insert route: %w", err)
	}
	return &route, nil
}

func (r *PostgresStore) ListRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgRouteColumns+` FROM routes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := make([]models.Route, 0)
	for rows.Next() {
		route, err := scanPgRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		routes = append(routes, *route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rows: %w", err)
	}
	return routes, nil
}

const pgBusColumns = `id, route_id, bus_number, current_latitude, current_longitude, status, last_updated`

func scanPgBus(row pgx.Row) (*models.Bus, error) {
	var b models.Bus
	if err := row.Scan(&b.ID, &b.RouteID, &b.BusNumber, &b.CurrentLatitude, &b.CurrentLongitude, &b.Status, &b.LastUpdated); err != nil {
		return nil, err
	}
	b.LastUpdated = b.LastUpdated.UTC()
	return &b, nil
}

func (r *PostgresStore) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	bus, err := scanPgBus(r.pool.QueryRow(ctx, `SELECT `+pgBusColumns+` FROM buses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query bus: %w", err)
	}
	return bus, nil
}

func (r *PostgresStore) queryBuses(ctx context.Context, query string, args ...any) ([]models.Bus, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query buses: %w", err)
	}
	defer rows.Close()

	buses := make([]models.Bus, 0)
	for rows.Next() {
		bus, err := scanPgBus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bus row: %w", err)
		}
		buses = append(buses, *bus)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bus rows: %w", err)
	}
	return buses, nil
}

func (r *PostgresStore) GetBusesByRoute(ctx context.Context, routeID string) ([]models.Bus, error) {
	return r.queryBuses(ctx, `SELECT `+pgBusColumns+` FROM buses WHERE route_id = $1 ORDER BY seq`, routeID)
}

func (r *PostgresStore) ListBuses(ctx context.Context) ([]models.Bus, error) {
	return r.queryBuses(ctx, `SELECT `+pgBusColumns+` FROM buses ORDER BY seq`)
}

func (r *PostgresStore) CreateBus(ctx context.Context, data models.InsertBus) (*models.Bus, error) {
	bus := models.Bus{
		ID:               newID(),
		RouteID:          data.RouteID,
		BusNumber:        data.BusNumber,
		CurrentLatitude:  normalizeOptional(data.CurrentLatitude),
		CurrentLongitude: normalizeOptional(data.CurrentLongitude),
		Status:           data.Status,
		// Postgres keeps microseconds
		LastUpdated: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO buses (id, route_id, bus_number, current_latitude, current_longitude, status, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		bus.ID, bus.RouteID, bus.BusNumber, bus.CurrentLatitude, bus.CurrentLongitude, string(bus.Status), bus.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bus: %w", err)
	}
	return &bus, nil
}

func (r *PostgresStore) UpdateBusLocation(ctx context.Context, id, latitude, longitude string) (*models.Bus, error) {
	bus, err := scanPgBus(r.pool.QueryRow(ctx,
		`UPDATE buses SET current_latitude = $2, current_longitude = $3, last_updated = $4
		 WHERE id = $1
		 RETURNING `+pgBusColumns,
		id, latitude, longitude, time.Now().UTC().Truncate(time.Microsecond)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update bus location: %w", err)
	}
	return bus, nil
}

func (r *PostgresStore) GetSchedulesByRoute(ctx context.Context, routeID string) ([]models.Schedule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, route_id, departure_time, estimated_arrival, actual_arrival, status
		 FROM schedules WHERE route_id = $1 ORDER BY seq`, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]models.Schedule, 0)
	for rows.Next() {
		var sc models.Schedule
		if err := rows.Scan(&sc.ID, &sc.RouteID, &sc.DepartureTime, &sc.EstimatedArrival, &sc.ActualArrival, &sc.Status); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return schedules, nil
}

func (r *PostgresStore) CreateSchedule(ctx context.Context, data models.InsertSchedule) (*models.Schedule, error) {
	sched := models.Schedule{
		ID:               newID(),
		RouteID:          data.RouteID,
		DepartureTime:    data.DepartureTime,
		EstimatedArrival: normalizeOptional(data.EstimatedArrival),
		ActualArrival:    normalizeOptional(data.ActualArrival),
		Status:           data.Status,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO schedules (id, route_id, departure_time, estimated_arrival, actual_arrival, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sched.ID, sched.RouteID, sched.DepartureTime, sched.EstimatedArrival, sched.ActualArrival, string(sched.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to insert schedule: %w", err)
	}
	return &sched, nil
}

func (r *PostgresStore) Stats(ctx context.Context) (models.StoreStats, error) {
	var st models.StoreStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM locations),
			(SELECT COUNT(*) FROM routes),
			(SELECT COUNT(*) FROM buses),
			(SELECT COUNT(*) FROM schedules)
	`).Scan(&st.Locations, &st.Routes, &st.Buses, &st.Schedules)
	if err != nil {
		return st, fmt.Errorf("failed to count rows: %w", err)
	}
	return st, nil
}
