package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/metrics"
	"github.com/mra-2007/TransitTrack/internal/repository"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	AllowedOrigins []string
	StaticDir      string
	NearestLimit   int
	Driver         string
}

// NewRouter wires every endpoint against store
func NewRouter(store repository.Store, opts RouterOptions) http.Handler {
	locationHandler := NewLocationHandler(store)
	routeHandler := NewRouteHandler(store, opts.NearestLimit)
	busHandler := NewBusHandler(store)
	scheduleHandler := NewScheduleHandler(store)
	realtimeHandler := NewRealtimeHandler(store)
	healthHandler := NewHealthHandler(store, opts.Driver)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", Healthz)
	r.Get("/api/ping", Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/locations", func(r chi.Router) {
		r.Get("/", locationHandler.ListLocations)
		r.Post("/", locationHandler.CreateLocation)
		r.Get("/{locationId}", locationHandler.GetLocation)
		r.Get("/{locationId}/children", locationHandler.GetChildren)
		r.Get("/{locationId}/routes", locationHandler.GetRoutesByLocation)
	})

	r.Route("/api/routes", func(r chi.Router) {
		r.Post("/", routeHandler.CreateRoute)
		r.Get("/search", routeHandler.SearchRoutes)
		r.Get("/{routeId}", routeHandler.GetRoute)
		r.Get("/{routeId}/buses", routeHandler.GetBusesByRoute)
		r.Get("/{routeId}/buses/nearest", routeHandler.GetNearestBuses)
		r.Get("/{routeId}/schedules", routeHandler.GetSchedulesByRoute)
	})

	r.Post("/api/schedules", scheduleHandler.CreateSchedule)

	r.Route("/api/buses", func(r chi.Router) {
		r.Post("/", busHandler.CreateBus)
		r.Get("/{busId}", busHandler.GetBus)
		r.Put("/{busId}/location", busHandler.UpdateBusLocation)
	})

	r.Get("/api/realtime/vehicle-positions", realtimeHandler.GetVehiclePositions)

	if opts.StaticDir != "" {
		fs := http.FileServer(http.Dir(opts.StaticDir))
		r.Handle("/*", fs)
	}

	return r
}

// requestLogger logs one line per request through the global zap logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		zap.S().Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
