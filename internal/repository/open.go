package repository

import (
	"context"
	"fmt"
)

// Open returns the store for driver: "memory", "sqlite" (dsn is a file path) or
// "postgres" (dsn is a connection URL)
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// IsEmpty reports whether the store holds no locations, routes, buses or schedules
func IsEmpty(ctx context.Context, s Store) (bool, error) {
	st, err := s.Stats(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read store stats: %w", err)
	}
	return st.Locations+st.Routes+st.Buses+st.Schedules == 0, nil
}
