package handlers

import (
	"compress/flate"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"imagegrab/internal/domain"
	"imagegrab/internal/i18n"
	"imagegrab/internal/joblog"
	"imagegrab/internal/metrics"
	"imagegrab/internal/middleware"
	"imagegrab/internal/pipeline"
	"imagegrab/pkg/zip"
)

const multipartMemory = 32 << 20

// streamingArchive defers the zip response headers until the first entry so
// a job failing before any output can still answer with a JSON error.
type streamingArchive struct {
	w        http.ResponseWriter
	rc       *http.ResponseController
	filename string
	started  bool
}

func newStreamingArchive(w http.ResponseWriter, filename string) *streamingArchive {
	return &streamingArchive{w: w, rc: http.NewResponseController(w), filename: filename}
}

func (s *streamingArchive) Write(p []byte) (int, error) {
	if !s.started {
		s.started = true
		h := s.w.Header()
		h.Set("Content-Type", "application/zip")
		h.Set("Content-Disposition", `attachment; filename="`+s.filename+`"`)
		s.w.WriteHeader(http.StatusOK)
	}
	return s.w.Write(p)
}

func (s *streamingArchive) flush() {
	_ = s.rc.Flush()
}

// zipSink appends to the zip writer and pushes every entry to the client.
type zipSink struct {
	zw  *zip.Writer
	out *streamingArchive
}

func (z zipSink) Append(name string, data []byte) error {
	if err := z.zw.Append(name, data); err != nil {
		return err
	}
	z.out.flush()
	return nil
}

// Download runs a grab job and streams the resulting archive.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload())
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.formError(w, err)
		return
	}

	raw := r.FormValue("urls")
	if strings.TrimSpace(raw) == "" {
		raw = r.FormValue("url")
	}
	pages := pipeline.SplitURLs(raw)
	if len(pages) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "No urls")
		return
	}

	wm, err := formFile(r, "wm")
	if err != nil {
		a.formError(w, err)
		return
	}

	release, ok := a.acquireJob(r.Context())
	if !ok {
		w.Header().Set("Retry-After", "10")
		a.error(w, http.StatusServiceUnavailable, "busy", "server busy")
		return
	}
	defer release()

	removeWM := r.FormValue("removeWm") == "true"
	debug := r.FormValue("debug") == "true"
	jobID := strings.TrimSpace(r.FormValue("jobId"))
	if jobID == "" {
		jobID = uuid.NewString()
	}
	locale := middleware.LocaleFromContext(r.Context())
	w.Header().Set("X-Job-ID", jobID)

	var progress pipeline.Progress
	var rec *joblog.Recorder
	if debug {
		rec = joblog.NewRecorder(a.Jobs, jobID)
		progress = rec
	}

	logger := a.Logger.With().Str("job_id", jobID).Logger()
	finishMetrics := a.Metrics.JobStarted()
	record := &domain.JobRecord{ID: jobID, PageCount: len(pages), RemoveWatermark: removeWM}
	a.startHistory(r.Context(), record)

	out := newStreamingArchive(w, "photos.zip")
	zw := zip.NewWriter(out, flate.DefaultCompression)
	summary, err := a.Runner.Run(r.Context(), pipeline.Request{
		JobID:                jobID,
		Pages:                pages,
		RemoveWatermark:      removeWM,
		WatermarkData:        wm,
		DefaultWatermarkPath: a.watermarkPath(),
		Locale:               locale,
	}, zipSink{zw: zw, out: out}, progress)
	if err == nil {
		err = zw.Close()
		out.flush()
	}

	record.ImagesArchived = summary.Images
	record.PageFailures = summary.PageFailures
	record.EmptyPages = summary.EmptyPages
	record.ImageFailures = summary.ImageFailures

	switch {
	case err == nil:
		record.Status = domain.JobStatusSucceeded
		finishMetrics(metrics.JobOK)
		if rec != nil {
			rec.Close("")
		}
		logger.Info().Int("images", summary.Images).Int("pages", summary.Pages).Msg("job finished")
	default:
		record.Status = domain.JobStatusFailed
		status := metrics.JobFailed
		if errors.Is(err, context.Canceled) {
			record.Status = domain.JobStatusCancelled
			status = metrics.JobCancelled
		}
		record.ErrorMessage = err.Error()
		finishMetrics(status)
		if rec != nil {
			rec.Close(i18n.Printer(locale).Sprintf(i18n.MsgFatal, err.Error()))
		}
		logger.Error().Err(err).Bool("streaming", out.started).Msg("job failed")
		if !out.started {
			a.error(w, http.StatusInternalServerError, "internal", err.Error())
		}
	}
	a.finishHistory(r.Context(), record)
}

func (a *App) startHistory(ctx context.Context, record *domain.JobRecord) {
	if a.History == nil {
		return
	}
	if err := a.History.Start(ctx, record); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", record.ID).Msg("record job start")
	}
}

func (a *App) finishHistory(ctx context.Context, record *domain.JobRecord) {
	if a.History == nil {
		return
	}
	if err := a.History.Finish(context.WithoutCancel(ctx), record); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", record.ID).Msg("record job finish")
	}
}

func (a *App) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload too large")
		return
	}
	a.error(w, http.StatusBadRequest, "bad_request", "invalid form")
}

// formFile reads an optional uploaded file. A missing file yields nil data.
func formFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
