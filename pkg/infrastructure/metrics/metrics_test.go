package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanningMetrics_ObservePlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlanningMetrics(reg)

	m.ObservePlan(3*time.Millisecond, 2, 7, decimal.RequireFromString("2745"))
	m.ObservePlan(time.Millisecond, 0, 0, decimal.Zero)
	m.ObserveFailure(time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TotalValue), "gauges follow the latest completed run")

	count, err := testutil.GatherAndCount(reg, "prodplan_plan_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPlanningMetrics_Gauges(t *testing.T) {
	m := NewPlanningMetrics(nil)
	m.ObservePlan(time.Millisecond, 2, 7, decimal.RequireFromString("2745.50"))

	assert.Equal(t, 2745.5, testutil.ToFloat64(m.TotalValue))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Units))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Items))
}

func TestPlanningMetrics_NilIsNoop(t *testing.T) {
	var m *PlanningMetrics
	assert.NotPanics(t, func() {
		m.ObservePlan(time.Millisecond, 1, 1, decimal.NewFromInt(1))
		m.ObserveFailure(time.Millisecond)
	})
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/items/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return echo.NewHTTPError(http.StatusNotFound, "missing")
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/fail", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/metrics", echo.WrapHandler(Handler(reg)))

	for _, path := range []string{"/items/1", "/items/2", "/items/0", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/fail", "500")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "prodplan_http_requests_total"))
}
