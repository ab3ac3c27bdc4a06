package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/de-tools/ad-atlas/pkg/adapters"
	"github.com/de-tools/ad-atlas/pkg/models/api"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite/run"
	"github.com/rs/zerolog"
)

type Handler struct {
	runs run.Store
}

func NewHandler(runs run.Store) *Handler {
	return &Handler{runs: runs}
}

// ListRuns returns the finalized runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.runs.List(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	response := make([]api.RunSummary, 0, len(runs))
	for _, rec := range runs {
		response = append(response, adapters.MapStoreRunToAPISummary(rec))
	}
	writeJSON(w, response)
}

// LatestReport serves the most recent finalized run. The payload was written
// atomically at the end of a completed run, so a partial report can never be
// served from here.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	latest, err := h.runs.GetLatest(ctx)
	if errors.Is(err, run.ErrNoRuns) {
		writeError(w, http.StatusNotFound, "no finalized runs yet")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to load latest run")
		writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(latest.Payload); err != nil {
		logger.Error().Err(err).Msg("failed to write report payload")
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Message: msg})
}
