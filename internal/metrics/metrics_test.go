package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun_Success(t *testing.T) {
	m := NewRegistry()

	actions := []domain.Action{
		{Ticker: "TSLA", Direction: domain.DirectionSell, Quantity: 4},
		{Ticker: "AAPL", Direction: domain.DirectionBuy, Quantity: 5},
		{Ticker: "MSFT", Direction: domain.DirectionBuy, Quantity: 1},
	}
	m.RecordRun(150*time.Millisecond, actions, 12345, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActionsEmitted.WithLabelValues("Buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsEmitted.WithLabelValues("Sell")))
	assert.Equal(t, 12345.0, testutil.ToFloat64(m.PortfolioValue))
}

func TestRecordRun_Error(t *testing.T) {
	m := NewRegistry()

	m.RecordRun(time.Second, nil, 999, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PortfolioValue))
}

func TestRecordOracleRequestAndNotification(t *testing.T) {
	m := NewRegistry()

	m.RecordOracleRequest("yahoo", 10*time.Millisecond, nil)
	m.RecordOracleRequest("yahoo", 10*time.Millisecond, errors.New("HTTP 500"))
	m.RecordNotification("email", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OracleRequests.WithLabelValues("yahoo", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OracleRequests.WithLabelValues("yahoo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("email", "success")))
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	m := NewRegistry()
	m.RecordRun(time.Millisecond, nil, 1, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rebalancer_runs_total")
	assert.Contains(t, string(body), "rebalancer_portfolio_value")
}

func TestNewRegistry_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRegistry()
		NewRegistry()
	})
}
