package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := NewPostgresStore(ctx, databaseURL)
		require.NoError(t, err)

		_, err = s.pool.Exec(ctx, `TRUNCATE locations, routes, buses, schedules`)
		require.NoError(t, err)
		return s
	})
}
