package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imagegrab/internal/http/handlers"
	"imagegrab/internal/infra"
	"imagegrab/internal/middleware"
)

// NewRouter wires the API, metrics and the static UI. lookup may be nil.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, lookup),
	)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Handle("/metrics", app.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/debug-log", app.DebugLog)
		r.Get("/jobs/{job_id}", app.JobStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
			r.Post("/download", app.Download)
			r.Post("/white-bg", app.WhiteBackground)
		})
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
