package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

// DebugLog returns the progress lines of a job from offset from onwards.
// Unknown jobs read as finished and empty.
func (a *App) DebugLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := strconv.Atoi(strings.TrimSpace(q.Get("from")))
	if err != nil || from < 0 {
		from = 0
	}
	w.Header().Set("Cache-Control", "no-store")
	a.json(w, http.StatusOK, a.Jobs.Poll(q.Get("jobId"), from))
}
