package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/di"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	cfg := &config.Config{
		DataDir:            t.TempDir(),
		ReferenceCurrency:  "TWD",
		MinTradePercentage: 0.02,
		Prices: config.PriceConfig{
			FXSource:          config.FXSourceYahoo,
			RequestsPerSecond: 2,
		},
	}

	container, _, err := di.Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	srv := New(Config{
		Log:       zerolog.Nop(),
		Config:    cfg,
		Port:      0,
		DevMode:   true,
		Container: container,
	})
	return srv, container
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServer_Initialize(t *testing.T) {
	srv, container := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/system/initialize", "")
	require.Equal(t, http.StatusOK, w.Code)

	// idempotent
	w = do(t, srv, http.MethodPost, "/api/system/initialize", "")
	require.Equal(t, http.StatusOK, w.Code)

	assets, err := container.AssetRepo.GetAll()
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "TWD", assets[0].Ticker)
	assert.Equal(t, "USD", assets[1].Ticker)
}

func TestServer_Status(t *testing.T) {
	srv, container := newTestServer(t)
	require.NoError(t, container.AssetRepo.SeedSampleAssets())
	require.NoError(t, container.ActionRepo.ReplaceAll("run-7", []domain.Action{
		{Ticker: "AAPL", Direction: domain.DirectionBuy, Currency: "USD", Quantity: 1, CurrentPrice: 150},
	}))

	w := do(t, srv, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "TWD", response.ReferenceCurrency)
	assert.Equal(t, 4, response.AssetCount)
	assert.Equal(t, 0, response.AllocationCount)
	assert.Equal(t, 1, response.ActionCount)
	assert.Equal(t, "run-7", response.LastRunID)
	assert.Empty(t, response.NextRebalanceAt)
	assert.NotEmpty(t, response.Uptime)
}

func TestServer_DatabaseStats(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/system/database/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"rebalancer"`)
}

func TestServer_MountsModuleRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/assets/", `{"name":"Apple","ticker":"aapl","quantity":10,"currency":"USD"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, srv, http.MethodPut, "/api/allocations/", `{"allocations":[{"ticker":"AAPL","target_weight":1}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/allocations/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AAPL")

	w = do(t, srv, http.MethodGet, "/api/actions/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/assets/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
