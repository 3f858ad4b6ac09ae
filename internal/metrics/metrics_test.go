package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	done := m.JobStarted()
	if got := testutil.ToFloat64(m.activeJobs); got != 1 {
		t.Fatalf("active jobs = %v, want 1", got)
	}
	m.Page(PageOK)
	m.Page(PageError)
	m.Image(ImageArchived)
	m.Image(ImageArchived)
	m.WhiteBackground(3)
	done(JobOK)

	if got := testutil.ToFloat64(m.activeJobs); got != 0 {
		t.Fatalf("active jobs = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.jobs.WithLabelValues(JobOK)); got != 1 {
		t.Fatalf("jobs ok = %v", got)
	}
	if got := testutil.ToFloat64(m.images.WithLabelValues(ImageArchived)); got != 2 {
		t.Fatalf("images archived = %v", got)
	}
	if got := testutil.ToFloat64(m.whiteBg); got != 3 {
		t.Fatalf("white bg = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.JobStarted()(JobFailed)
	m.Page(PageOK)
	m.Image(ImageFetchError)
	m.WhiteBackground(1)
	if m.Registry() != nil {
		t.Fatalf("nil metrics returned a registry")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Page(PageNoImages)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `imagegrab_pages_total{result="no_images"} 1`) {
		t.Fatalf("metrics output missing page counter:\n%s", body)
	}
}
