package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed sqlite_schema.sql
var sqliteSchemaSQL string

// SQLiteStore implements Store on a SQLite database.
// Same semantics as MemoryStore; rows are returned in insertion order (seq).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the schema exists
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	zap.S().Infof("Connected to SQLite database: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// formatTime stores timestamps as RFC3339Nano strings; SQLite has no native time type
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimeString converts an RFC3339 string to time.Time, zero on bad input
func parseTimeString(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sqliteLocationColumns = `id, name, type, parent_location_id`

func scanSQLiteLocation(row rowScanner) (*models.Location, error) {
	var l models.Location
	var parent sql.NullString
	if err := row.Scan(&l.ID, &l.Name, &l.Type, &parent); err != nil {
		return nil, err
	}
	l.ParentLocationID = fromNullString(parent)
	return &l, nil
}

func (s *SQLiteStore) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteLocationColumns+` FROM locations WHERE id = ?`, id)
	loc, err := scanSQLiteLocation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query location: %w", err)
	}
	return loc, nil
}

func (s *SQLiteStore) GetLocationsByParent(ctx context.Context, parentID *string) ([]models.Location, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+sqliteLocationColumns+` FROM locations WHERE parent_location_id IS NULL ORDER BY seq`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+sqliteLocationColumns+` FROM locations WHERE parent_location_id = ? ORDER BY seq`, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query locations by parent: %w", err)
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		loc, err := scanSQLiteLocation(rows)
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

func (s *SQLiteStore) CreateLocation(ctx context.Context, data models.InsertLocation) (*models.Location, error) {
	loc := models.Location{
		ID:               newID(),
		Name:             data.Name,
		Type:             data.Type,
		ParentLocationID: normalizeOptional(data.ParentLocationID),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (id, name, type, parent_location_id) VALUES (?, ?, ?, ?)`,
		loc.ID, loc.Name, string(loc.Type), nullString(loc.ParentLocationID))
	if err != nil {
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}
	return &loc, nil
}

const sqliteRouteColumns = `id, name, start_location_id, end_location_id, bus_type, start_time, end_time`

func scanSQLiteRoute(row rowScanner) (*models.Route, error) {
	var r models.Route
	if err := row.Scan(&r.ID, &r.Name, &r.StartLocationID, &r.EndLocationID, &r.BusType, &r.StartTime, &r.EndTime); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRouteColumns+` FROM routes WHERE id = ?`, id)
	route, err := scanSQLiteRoute(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query route: %w", err)
	}
	return route, nil
}

// GetRoutesByLocation uses inner joins, so routes with a missing endpoint drop out
func (s *SQLiteStore) GetRoutesByLocation(ctx context.Context, locationID string) ([]models.RouteWithLocations, error) {
	query := `
		SELECT
			r.id, r.name, r.start_location_id, r.end_location_id, r.bus_type, r.start_time, r.end_time,
			sl.id, sl.name, sl.type, sl.parent_location_id,
			el.id, el.name, el.type, el.parent_location_id
		FROM routes r
		JOIN locations sl ON sl.id = r.start_location_id
		JOIN locations el ON el.id = r.end_location_id
		WHERE r.start_location_id = ? OR r.end_location_id = ?
		ORDER BY r.seq
	`

	rows, err := s.db.QueryContext(ctx, query, locationID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes by location: %w", err)
	}
	defer rows.Close()

	routes := make([]models.RouteWithLocations, 0)
	for rows.Next() {
		var rw models.RouteWithLocations
		var startParent, endParent sql.NullString
		err := rows.Scan(
			&rw.ID, &rw.Name, &rw.StartLocationID, &rw.EndLocationID, &rw.BusType, &rw.StartTime, &rw.EndTime,
			&rw.StartLocation.ID, &rw.StartLocation.Name, &rw.StartLocation.Type, &startParent,
			&rw.EndLocation.ID, &rw.EndLocation.Name, &rw.EndLocation.Type, &endParent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		rw.StartLocation.ParentLocationID = fromNullString(startParent)
		rw.EndLocation.ParentLocationID = fromNullString(endParent)
		routes = append(routes, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rows: %w", err)
	}
	return routes, nil
}

func (s *SQLiteStore) CreateRoute(ctx context.Context, data models.InsertRoute) (*models.Route, error) {
	route := models.Route{
		ID:              newID(),
		Name:            data.Name,
		StartLocationID: data.StartLocationID,
		EndLocationID:   data.EndLocationID,
		BusType:         data.BusType,
		StartTime:       data.StartTime,
		EndTime:         data.EndTime,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routes (id, name, start_location_id, end_location_id, bus_type, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		route.ID, route.Name, route.StartLocationID, route.EndLocationID, string(route.BusType), route.StartTime, route.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to insert route: %w", err)
	}
	return &route, nil
}

func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteRouteColumns+` FROM routes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := make([]models.Route, 0)
	for rows.Next() {
		route, err := scanSQLiteRoute(rows)
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

const sqliteBusColumns = `id, route_id, bus_number, current_latitude, current_longitude, status, last_updated`

func scanSQLiteBus(row rowScanner) (*models.Bus, error) {
	var b models.Bus
	var lat, lng sql.NullString
	var lastUpdated string
	if err := row.Scan(&b.ID, &b.RouteID, &b.BusNumber, &lat, &lng, &b.Status, &lastUpdated); err != nil {
		return nil, err
	}
	b.CurrentLatitude = fromNullString(lat)
	b.CurrentLongitude = fromNullString(lng)
	b.LastUpdated = parseTimeString(lastUpdated)
	return &b, nil
}

func (s *SQLiteStore) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteBusColumns+` FROM buses WHERE id = ?`, id)
	bus, err := scanSQLiteBus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query bus: %w", err)
	}
	return bus, nil
}

func (s *SQLiteStore) queryBuses(ctx context.Context, query string, args ...any) ([]models.Bus, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query buses: %w", err)
	}
	defer rows.Close()

	buses := make([]models.Bus, 0)
	for rows.Next() {
		bus, err := scanSQLiteBus(rows)
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

func (s *SQLiteStore) GetBusesByRoute(ctx context.Context, routeID string) ([]models.Bus, error) {
	return s.queryBuses(ctx, `SELECT `+sqliteBusColumns+` FROM buses WHERE route_id = ? ORDER BY seq`, routeID)
}

func (s *SQLiteStore) ListBuses(ctx context.Context) ([]models.Bus, error) {
	return s.queryBuses(ctx, `SELECT `+sqliteBusColumns+` FROM buses ORDER BY seq`)
}

func (s *SQLiteStore) CreateBus(ctx context.Context, data models.InsertBus) (*models.Bus, error) {
	bus := models.Bus{
		ID:               newID(),
		RouteID:          data.RouteID,
		BusNumber:        data.BusNumber,
		CurrentLatitude:  normalizeOptional(data.CurrentLatitude),
		CurrentLongitude: normalizeOptional(data.CurrentLongitude),
		Status:           data.Status,
		LastUpdated:      time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO buses (id, route_id, bus_number, current_latitude, current_longitude, status, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bus.ID, bus.RouteID, bus.BusNumber, nullString(bus.CurrentLatitude), nullString(bus.CurrentLongitude),
		string(bus.Status), formatTime(bus.LastUpdated))
	if err != nil {
		return nil, fmt.Errorf("failed to insert bus: %w", err)
	}
	return &bus, nil
}

// UpdateBusLocation writes and reads back in one statement so the returned row is this
// call's write even when other updates to the same bus race with it
func (s *SQLiteStore) UpdateBusLocation(ctx context.Context, id, latitude, longitude string) (*models.Bus, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx,
		`UPDATE buses SET current_latitude = ?, current_longitude = ?, last_updated = ? WHERE id = ?
		 RETURNING `+sqliteBusColumns,
		latitude, longitude, formatTime(now), id)

	bus, err := scanSQLiteBus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update bus location: %w", err)
	}
	return bus, nil
}

const sqliteScheduleColumns = `id, route_id, departure_time, estimated_arrival, actual_arrival, status`

func (s *SQLiteStore) GetSchedulesByRoute(ctx context.Context, routeID string) ([]models.Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteScheduleColumns+` FROM schedules WHERE route_id = ? ORDER BY seq`, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]models.Schedule, 0)
	for rows.Next() {
		var sc models.Schedule
		var estimated, actual sql.NullString
		if err := rows.Scan(&sc.ID, &sc.RouteID, &sc.DepartureTime, &estimated, &actual, &sc.Status); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		sc.EstimatedArrival = fromNullString(estimated)
		sc.ActualArrival = fromNullString(actual)
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return schedules, nil
}

func (s *SQLiteStore) CreateSchedule(ctx context.Context, data models.InsertSchedule) (*models.Schedule, error) {
	sched := models.Schedule{
		ID:               newID(),
		RouteID:          data.RouteID,
		DepartureTime:    data.DepartureTime,
		EstimatedArrival: normalizeOptional(data.EstimatedArrival),
		ActualArrival:    normalizeOptional(data.ActualArrival),
		Status:           data.Status,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules (id, route_id, departure_time, estimated_arrival, actual_arrival, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sched.ID, sched.RouteID, sched.DepartureTime, nullString(sched.EstimatedArrival),
		nullString(sched.ActualArrival), string(sched.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to insert schedule: %w", err)
	}
	return &sched, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (models.StoreStats, error) {
	var st models.StoreStats
	err := s.db.QueryRowContext(ctx, `
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
