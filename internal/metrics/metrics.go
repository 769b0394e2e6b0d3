package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mra-2007/TransitTrack/internal/models"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transittrack_http_requests_total",
			Help: "The total number of HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transittrack_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	busLocationUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transittrack_bus_location_updates_total",
			Help: "Bus location updates by result (updated, not_found, error)",
		},
		[]string{"result"},
	)
	storeEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transittrack_store_entities",
			Help: "Number of entities held by the transport store",
		},
		[]string{"collection"},
	)
)

// Middleware records request counts and latency labelled with the chi route pattern,
// so /api/buses/{busId} is one series rather than one per id
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// BusLocationUpdate counts one location update outcome
func BusLocationUpdate(result string) {
	busLocationUpdatesTotal.WithLabelValues(result).Inc()
}

// SetStoreStats publishes collection sizes
func SetStoreStats(st models.StoreStats) {
	storeEntities.WithLabelValues("locations").Set(float64(st.Locations))
	storeEntities.WithLabelValues("routes").Set(float64(st.Routes))
	storeEntities.WithLabelValues("buses").Set(float64(st.Buses))
	storeEntities.WithLabelValues("schedules").Set(float64(st.Schedules))
}
