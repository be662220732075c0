// Package metrics exposes Prometheus instrumentation for planning runs and
// the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "prodplan"

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// PlanningMetrics records the result of each production plan calculation
type PlanningMetrics struct {
	Runs       *prometheus.CounterVec
	Duration   prometheus.Histogram
	TotalValue prometheus.Gauge
	Units      prometheus.Gauge
	Items      prometheus.Gauge
}

// NewPlanningMetrics creates the collectors and registers them on reg. A nil
// registerer leaves them unregistered, which is handy in tests.
func NewPlanningMetrics(reg prometheus.Registerer) *PlanningMetrics {
	m := &PlanningMetrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_runs_total",
				Help:      "Total number of production plan calculations by outcome",
			},
			[]string{"outcome"},
		),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Time spent loading the snapshot and calculating a plan",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		TotalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_total_value",
			Help:      "Total production value of the most recent plan",
		}),
		Units: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_units",
			Help:      "Units to manufacture in the most recent plan",
		}),
		Items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_items",
			Help:      "Distinct products in the most recent plan",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Duration, m.TotalValue, m.Units, m.Items)
	}
	return m
}

// ObservePlan records a completed calculation
func (m *PlanningMetrics) ObservePlan(elapsed time.Duration, items int, units int64, totalValue decimal.Decimal) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if items == 0 {
		outcome = OutcomeEmpty
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.Duration.Observe(elapsed.Seconds())
	m.TotalValue.Set(totalValue.InexactFloat64())
	m.Units.Set(float64(units))
	m.Items.Set(float64(items))
}

// ObserveFailure records a calculation that returned an error
func (m *PlanningMetrics) ObserveFailure(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(OutcomeError).Inc()
	m.Duration.Observe(elapsed.Seconds())
}
