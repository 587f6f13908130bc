package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/api/handler"
	apimw "github.com/sellerpulse/notify-core/internal/api/middleware"
	"github.com/sellerpulse/notify-core/internal/pipeline"
	"github.com/sellerpulse/notify-core/internal/queue"
	"github.com/sellerpulse/notify-core/internal/settings"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	orch *pipeline.Orchestrator,
	settingsStore settings.Store,
	q *queue.PriorityQueue,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(4<<20)) // 4 MB max body; sync batches can be large
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	sh := handler.NewSyncHandler(orch, logger)
	uh := handler.NewSettingsHandler(settingsStore, logger)
	st := handler.NewStatsHandler(q)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync", sh.Process)

		r.Get("/users/{id}/settings", uh.Get)
		r.Put("/users/{id}/settings", uh.Update)

		r.Get("/stats", st.Get)
	})

	return r
}
