/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. CORS:       Cross-origin requests for the dashboard
  3. httplog:    Structured request logging (ECS schema)
  4. CleanPath:  Collapses double slashes
  5. Recoverer:  Panic recovery (500 instead of crash)
  6. Heartbeat:  GET / liveness probe

ROUTE GROUPS:
  /api/rules            Effective overtime rules
  /api/allocations/*    What-if allocation
  /api/reports/*        Pareto reports and run log
  /api/sites, /shifts   Shift ingest and site directory
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/nbot-engine/metrics"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger // request logger; nil uses a JSON logger on stdout
}

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// NewLogger builds the application logger: JSON in ECS layout, tagged with
// the app name and environment.
func NewLogger(w io.Writer, level slog.Level, env string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "nbot-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(os.Stdout, slog.LevelInfo, "development")
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/rules", h.GetRules)

		r.Post("/allocations/preview", h.PreviewAllocation)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Post("/pareto", h.RunReport)
			r.Get("/runs", h.ListReportRuns)
		})

		r.Get("/sites", h.ListSites)

		// Shift ingest
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.IngestShifts)
			r.Post("/import", h.ImportShifts)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetData)
		})
	})

	return r
}
