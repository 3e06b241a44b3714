package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segyhp/amortization-engine/pkg/response"
	"go.uber.org/zap"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Schedules *ScheduleHandler
	Entries   *EntryHandler
	Reports   *ReportHandler
	Config    *ConfigHandler
	Health    *HealthHandler
}

func NewRouter(h Handlers, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware, response.LoggingMiddleware(logger))

	// Health check
	if h.Health != nil {
		router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
		router.HandleFunc("/health/ready", h.Health.Ready).Methods(http.MethodGet)
	}
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	api.HandleFunc("/schedules", h.Schedules.Create).Methods(http.MethodPost)
	api.HandleFunc("/schedules", h.Schedules.List).Methods(http.MethodGet)
	api.HandleFunc("/schedules/active", h.Schedules.Active).Methods(http.MethodGet)
	api.HandleFunc("/schedules/code/{code}", h.Schedules.GetByCode).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id}", h.Schedules.Get).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id}", h.Schedules.Update).Methods(http.MethodPut)
	api.HandleFunc("/schedules/{id}", h.Schedules.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/schedules/{id}/cancel", h.Schedules.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/schedules/{id}/progress", h.Schedules.Progress).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id}/entries", h.Schedules.Entries).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id}/post-all", h.Schedules.PostAll).Methods(http.MethodPost)

	api.HandleFunc("/entries/due", h.Entries.Due).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", h.Entries.Get).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}/post", h.Entries.Post).Methods(http.MethodPost)
	api.HandleFunc("/entries/{id}/skip", h.Entries.Skip).Methods(http.MethodPost)

	api.HandleFunc("/reports/depreciation/{year:[0-9]+}", h.Reports.Depreciation).Methods(http.MethodGet)

	api.HandleFunc("/config", h.Config.Get).Methods(http.MethodGet)
	api.HandleFunc("/config/{id:[0-9]+}", h.Config.Update).Methods(http.MethodPut)

	return router
}
