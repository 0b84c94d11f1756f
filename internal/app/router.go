package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/treadline/treadline/internal/bookings"
	"github.com/treadline/treadline/internal/catalog"
	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/observability"
	"github.com/treadline/treadline/internal/quotations"
	"github.com/treadline/treadline/jobs"
	"github.com/treadline/treadline/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Pool              *pgxpool.Pool
	Metrics           *observability.Metrics
	CustomersHandler  *customers.Handler
	CatalogHandler    *catalog.Handler
	BookingsHandler   *bookings.Handler
	InvoicesHandler   *invoices.Handler
	QuotationsHandler *quotations.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Treadline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("healthz db ping", slog.Any("error", err))
				http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/customers", params.CustomersHandler.MountRoutes)
		api.Route("/catalog", params.CatalogHandler.MountRoutes)
		api.Route("/bookings", params.BookingsHandler.MountRoutes)
		api.Route("/invoices", params.InvoicesHandler.MountRoutes)
		api.Route("/quotations", params.QuotationsHandler.MountRoutes)
		if params.ReportHandler != nil {
			api.Route("/reports", params.ReportHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
