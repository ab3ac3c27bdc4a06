package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/store"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite/run"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunStore struct {
	mock.Mock
}

func (m *mockRunStore) Add(ctx context.Context, rec store.Run, rows []store.CohortMetricRow) error {
	args := m.Called(ctx, rec, rows)
	return args.Error(0)
}

func (m *mockRunStore) GetLatest(ctx context.Context) (*store.Run, error) {
	args := m.Called(ctx)
	if rec := args.Get(0); rec != nil {
		return rec.(*store.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRunStore) List(ctx context.Context, limit int) ([]store.Run, error) {
	args := m.Called(ctx, limit)
	if runs := args.Get(0); runs != nil {
		return runs.([]store.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestAPI(runs run.Store) *WebAPI {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewWebAPI(logger, Config{
		Addr:         "127.0.0.1:0",
		Dependencies: Dependencies{Runs: runs},
	})
}

func TestLatestReport(t *testing.T) {
	t.Run("serves the stored payload verbatim", func(t *testing.T) {
		runs := new(mockRunStore)
		runs.On("GetLatest", mock.Anything).Return(&store.Run{
			ID:          "run-1",
			GeneratedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
			Payload:     []byte(`{"id":"run-1","cohorts":[],"quality":{"undefined_ratios":3}}`),
		}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
		newTestAPI(runs).Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"run-1","cohorts":[],"quality":{"undefined_ratios":3}}`, rec.Body.String())
		runs.AssertExpectations(t)
	})

	t.Run("404 when no run is finalized yet", func(t *testing.T) {
		runs := new(mockRunStore)
		runs.On("GetLatest", mock.Anything).Return(nil, run.ErrNoRuns)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
		newTestAPI(runs).Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "no finalized runs")
	})

	t.Run("500 on store failure", func(t *testing.T) {
		runs := new(mockRunStore)
		runs.On("GetLatest", mock.Anything).Return(nil, assert.AnError)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
		newTestAPI(runs).Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListRuns(t *testing.T) {
	t.Run("returns summaries newest first", func(t *testing.T) {
		runs := new(mockRunStore)
		runs.On("List", mock.Anything, 0).Return([]store.Run{
			{ID: "run-2", GeneratedAt: time.Date(2026, 1, 11, 8, 0, 0, 0, time.UTC)},
			{ID: "run-1", GeneratedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)},
		}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
		newTestAPI(runs).Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[
			{"id":"run-2","generated_at":"2026-01-11T08:00:00Z"},
			{"id":"run-1","generated_at":"2026-01-10T08:00:00Z"}
		]`, rec.Body.String())
	})

	t.Run("limit query parameter is forwarded", func(t *testing.T) {
		runs := new(mockRunStore)
		runs.On("List", mock.Anything, 5).Return([]store.Run{}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=5", nil)
		newTestAPI(runs).Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		runs.AssertExpectations(t)
	})
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	newTestAPI(new(mockRunStore)).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	newTestAPI(new(mockRunStore)).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "adatlas_http_requests_total")
}
