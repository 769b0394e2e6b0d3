package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mra-2007/TransitTrack/internal/models"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/buses/{busId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/buses/{busId}", "GET", "418"))
	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/buses/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/buses/{busId}", "GET", "418"))

	assert.Equal(t, 3.0, after-before)
}

func TestBusLocationUpdate(t *testing.T) {
	before := testutil.ToFloat64(busLocationUpdatesTotal.WithLabelValues("not_found"))
	BusLocationUpdate("not_found")
	assert.Equal(t, before+1, testutil.ToFloat64(busLocationUpdatesTotal.WithLabelValues("not_found")))
}

func TestSetStoreStats(t *testing.T) {
	SetStoreStats(models.StoreStats{Locations: 12, Routes: 4, Buses: 2, Schedules: 6})
	assert.Equal(t, 12.0, testutil.ToFloat64(storeEntities.WithLabelValues("locations")))
	assert.Equal(t, 4.0, testutil.ToFloat64(storeEntities.WithLabelValues("routes")))
	assert.Equal(t, 2.0, testutil.ToFloat64(storeEntities.WithLabelValues("buses")))
	assert.Equal(t, 6.0, testutil.ToFloat64(storeEntities.WithLabelValues("schedules")))
}
