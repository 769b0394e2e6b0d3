package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/config"
	"github.com/mra-2007/TransitTrack/internal/handlers"
	"github.com/mra-2007/TransitTrack/internal/logging"
	"github.com/mra-2007/TransitTrack/internal/repository"
	"github.com/mra-2007/TransitTrack/internal/seed"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	config.LoadEnvFiles(".")

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		// Logger is not up yet
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()

	if err != nil {
		logger.Errorf("API server stopped: %v", err)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. Every resource it opens is released before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dsn := cfg.SQLitePath
	if cfg.StorageDriver == config.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	zap.S().Infof("Opening %s store", cfg.StorageDriver)

	store, err := repository.Open(ctx, cfg.StorageDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	if cfg.SeedOnStart {
		if err := seedIfEmpty(ctx, store, cfg.SeedFile); err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
	}

	router := handlers.NewRouter(store, handlers.RouterOptions{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:      cfg.StaticDir,
		NearestLimit:   cfg.NearestLimit,
		Driver:         cfg.StorageDriver,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.S().Infof("API server starting on :%s", cfg.Port)
		zap.S().Info("Location endpoints:")
		zap.S().Info("  GET  /api/locations, /api/locations/{locationId}[/children|/routes]")
		zap.S().Info("Route endpoints:")
		zap.S().Info("  GET  /api/routes/search?from=&to=&busType=&sort=")
		zap.S().Info("  GET  /api/routes/{routeId}[/buses|/buses/nearest|/schedules]")
		zap.S().Info("Bus endpoints:")
		zap.S().Info("  GET  /api/buses/{busId}, PUT /api/buses/{busId}/location")
		zap.S().Info("  GET  /api/realtime/vehicle-positions")
		zap.S().Info("Health:")
		zap.S().Info("  GET  /health (with store check), /metrics")

		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	zap.S().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// seedIfEmpty loads the seed file (or the embedded demo data) into an empty store
func seedIfEmpty(ctx context.Context, store repository.Store, seedFile string) error {
	empty, err := repository.IsEmpty(ctx, store)
	if err != nil {
		return err
	}
	if !empty {
		zap.S().Info("Store already has data, skipping seed")
		return nil
	}

	ds, err := seed.Load(seedFile)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, store, ds)
	return err
}
