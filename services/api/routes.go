package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions carries the transport-level knobs for Routes.
type RouterOptions struct {
	AllowedOrigins []string
	RequestsPerMin int
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes(opts RouterOptions) (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	rpm := opts.RequestsPerMin
	if rpm <= 0 {
		rpm = 600
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))
	r.Use(httprate.Limit(rpm, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReady)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/equipment", a.handleUpsertEquipment)
		r.Get("/equipment", a.handleListEquipment)
		r.Post("/sensors", a.handleUpsertSensor)
		r.Get("/sensors", a.handleListSensors)
		r.Post("/readings", a.handleReading)
		r.Get("/equipment/{equipmentID}/measurements", a.handleMeasurementWindow)
		r.Get("/kpi/equipment", a.handleEquipmentKPI)
		r.Get("/alerts", a.handleAlerts)
	})

	return r, nil
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if _, err := a.store.ListEquipment(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
