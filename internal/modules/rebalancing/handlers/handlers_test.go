package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context) (*rebalancing.RunResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rebalancing.RunResult), args.Error(1)
}

func (m *mockRunner) Preview(ctx context.Context) (*rebalancing.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rebalancing.Result), args.Error(1)
}

func setupRouter(runner Runner) *chi.Mux {
	handler := NewHandler(runner, "TWD", zerolog.New(nil).Level(zerolog.Disabled))
	r := chi.NewRouter()
	r.Route("/api", handler.RegisterRoutes)
	return r
}

func sampleResult() *rebalancing.Result {
	return &rebalancing.Result{
		TotalValue: 1000,
		Actions: []domain.Action{
			{Ticker: "AAPL", Direction: domain.DirectionBuy, Currency: "USD", Quantity: 5, TargetValue: 500, CurrentPrice: 100, Difference: 500},
		},
		ObservedPercentages: map[string]float64{"AAPL": 0, "USD": 1},
	}
}

func TestHandleRun(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything).Return(&rebalancing.RunResult{
		Result:    sampleResult(),
		RunID:     "run-1",
		StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rebalance/", nil)
	w := httptest.NewRecorder()
	setupRouter(runner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response struct {
		Data struct {
			RunID   string          `json:"run_id"`
			Count   int             `json:"count"`
			Actions []domain.Action `json:"actions"`
		} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.Equal(t, "run-1", response.Data.RunID)
	assert.Equal(t, 1, response.Data.Count)
	assert.Equal(t, domain.DirectionBuy, response.Data.Actions[0].Direction)
	assert.Equal(t, "TWD", response.Metadata["reference_currency"])
	assert.Equal(t, "2024-01-02T03:04:05Z", response.Metadata["timestamp"])
	runner.AssertExpectations(t)
}

func TestHandleRun_OracleErrorIsBadGateway(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything).Return(nil, &domain.PriceUnavailableError{Ticker: "AAPL"})

	w := httptest.NewRecorder()
	setupRouter(runner).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rebalance/", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response["error"], "AAPL")
}

func TestHandleRun_InternalError(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything).Return(nil, errors.New("failed to load assets: disk"))

	w := httptest.NewRecorder()
	setupRouter(runner).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rebalance/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandlePreview(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Preview", mock.Anything).Return(sampleResult(), nil)

	w := httptest.NewRecorder()
	setupRouter(runner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rebalance/preview", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(1), response["data"]["count"])
	assert.Equal(t, float64(1000), response["data"]["total_value"])
	runner.AssertNotCalled(t, "Run", mock.Anything)
}
