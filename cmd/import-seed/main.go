package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/config"
	"github.com/mra-2007/TransitTrack/internal/logging"
	"github.com/mra-2007/TransitTrack/internal/repository"
	"github.com/mra-2007/TransitTrack/internal/seed"
)

func main() {
	config.LoadEnvFiles(".")
	cfg := config.Load()

	defaultDriver := cfg.StorageDriver
	if defaultDriver == config.DriverMemory {
		defaultDriver = config.DriverSQLite
	}

	// Command line flags override the environment
	driver := flag.String("driver", defaultDriver, "Storage driver: sqlite or postgres")
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	databaseURL := flag.String("database-url", cfg.DatabaseURL, "Postgres connection URL")
	seedFile := flag.String("seed", cfg.SeedFile, "YAML seed file (embedded demo data if empty)")
	force := flag.Bool("force", false, "Import even if the store already has data")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	err = importSeed(ctx, importOptions{
		Driver:   *driver,
		SQLite:   *dbPath,
		Postgres: *databaseURL,
		SeedFile: *seedFile,
		Force:    *force,
	})
	cancel()

	if err != nil {
		logger.Errorf("Import failed: %v", err)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

type importOptions struct {
	Driver   string
	SQLite   string
	Postgres string
	SeedFile string
	Force    bool
}

// importSeed loads the dataset into the chosen store and closes it before returning
func importSeed(ctx context.Context, opts importOptions) error {
	if opts.Driver == config.DriverMemory {
		return errors.New("the memory driver does not persist; use -driver sqlite or -driver postgres")
	}

	dsn := opts.SQLite
	if opts.Driver == config.DriverPostgres {
		dsn = opts.Postgres
	}

	store, err := repository.Open(ctx, opts.Driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if !opts.Force {
		empty, err := repository.IsEmpty(ctx, store)
		if err != nil {
			return fmt.Errorf("failed to inspect store: %w", err)
		}
		if !empty {
			zap.S().Warn("Store already has data; pass -force to import anyway")
			return nil
		}
	}

	ds, err := seed.Load(opts.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}

	res, err := seed.Apply(ctx, store, ds)
	if err != nil {
		return err
	}

	zap.S().Infow("Import complete",
		zap.String("driver", opts.Driver),
		zap.Int("locations", res.LocationCount),
		zap.Int("routes", res.RouteCount),
		zap.Int("buses", res.Buses),
		zap.Int("schedules", res.Schedules),
	)
	return nil
}
