package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"imagegrab/internal/domain"
)

// JobStatus returns the persisted summary of a finished or running job.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", domain.ErrNoStore.Error())
		return
	}
	record, err := a.History.GetByID(r.Context(), chi.URLParam(r, "job_id"))
	switch {
	case errors.Is(err, domain.ErrInvalidJobID):
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	case err != nil:
		a.Logger.Error().Err(err).Msg("load job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, record)
}
