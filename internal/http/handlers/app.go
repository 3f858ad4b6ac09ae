package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"imagegrab/internal/domain"
	"imagegrab/internal/infra"
	"imagegrab/internal/joblog"
	"imagegrab/internal/metrics"
	"imagegrab/internal/pipeline"
)

type App struct {
	Config  *infra.Config
	Logger  *infra.Logger
	Jobs    *joblog.Store
	Runner  *pipeline.Runner
	Metrics *metrics.Metrics
	// History is nil when no database is configured.
	History domain.JobHistoryRepository
	// JobSlots caps concurrent downloads; nil means unlimited.
	JobSlots *semaphore.Weighted
}

func NewApp(cfg *infra.Config, logger *infra.Logger, jobs *joblog.Store, runner *pipeline.Runner, m *metrics.Metrics, history domain.JobHistoryRepository) *App {
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	if jobs == nil {
		jobs = joblog.NewStore()
	}
	if runner == nil {
		runner = pipeline.NewRunner(pipeline.Options{Metrics: m, Logger: logger})
	}
	app := &App{Config: cfg, Logger: logger, Jobs: jobs, Runner: runner, Metrics: m, History: history}
	if cfg != nil && cfg.MaxConcurrentJobs > 0 {
		app.JobSlots = semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs))
	}
	return app
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, codeStr, msg string) {
	a.json(w, code, map[string]string{"error": msg, "code": codeStr})
}

func (a *App) maxUpload() int64 {
	if a.Config == nil || a.Config.MaxUploadBytes <= 0 {
		return 64 << 20
	}
	return a.Config.MaxUploadBytes
}

func (a *App) watermarkPath() string {
	if a.Config == nil {
		return ""
	}
	return a.Config.WatermarkPath
}

func (a *App) queueTimeout() time.Duration {
	if a.Config == nil || a.Config.JobQueueTimeout <= 0 {
		return 30 * time.Second
	}
	return a.Config.JobQueueTimeout
}

// acquireJob waits for a free job slot. The returned release must be called
// once the job is done.
func (a *App) acquireJob(ctx context.Context) (release func(), ok bool) {
	if a.JobSlots == nil {
		return func() {}, true
	}
	waitCtx, cancel := context.WithTimeout(ctx, a.queueTimeout())
	defer cancel()
	if err := a.JobSlots.Acquire(waitCtx, 1); err != nil {
		return nil, false
	}
	return func() { a.JobSlots.Release(1) }, true
}
