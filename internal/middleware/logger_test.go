package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("hello"))
		if _, ok := w.(http.Flusher); !ok {
			t.Fatalf("wrapped writer lost http.Flusher")
		}
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/download", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get("X-Request-ID"))
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if entry["request_id"] != "req-42" || entry["path"] != "/api/download" || entry["status"] != float64(202) || entry["bytes"] != float64(5) {
		t.Fatalf("unexpected log entry %v", entry)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("generated id %q, header %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDRejectsGarbage(t *testing.T) {
	for _, rid := range []string{"has space", string(make([]byte, 65))} {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", rid)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen == rid || seen == "" {
			t.Fatalf("id %q was not replaced (got %q)", rid, seen)
		}
	}
}
