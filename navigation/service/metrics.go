package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
)

// Scenario outcome labels
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeDomainError = "domain_error"
	outcomeError       = "error"
)

// Metrics holds Prometheus metrics for scenario processing.
//
// Metrics:
//   - robotnav_scenarios_total{outcome} - processed scenarios by outcome
//   - robotnav_robots_total - robots driven to completion
//   - robotnav_steps_total{outcome} - instructions by step outcome
//   - robotnav_scenario_duration_seconds - time spent per scenario
//
// A nil *Metrics records nothing.
type Metrics struct {
	ScenariosTotal   *prometheus.CounterVec
	RobotsTotal      prometheus.Counter
	StepsTotal       *prometheus.CounterVec
	ScenarioDuration prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScenariosTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robotnav_scenarios_total",
				Help: "Total number of scenarios processed",
			},
			[]string{"outcome"},
		),
		RobotsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "robotnav_robots_total",
				Help: "Total number of robots that completed their program",
			},
		),
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robotnav_steps_total",
				Help: "Total number of instructions processed",
			},
			[]string{"outcome"}, // turned, moved, out_of_bounds, blocked
		),
		ScenarioDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "robotnav_scenario_duration_seconds",
				Help:    "Duration of scenario processing in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
		),
	}
}

func (m *Metrics) recordScenario(err error, seconds float64) {
	if m == nil {
		return
	}
	m.ScenariosTotal.WithLabelValues(classify(err)).Inc()
	if err == nil {
		m.ScenarioDuration.Observe(seconds)
	}
}

func (m *Metrics) recordSummary(s Summary) {
	if m == nil {
		return
	}
	m.RobotsTotal.Add(float64(s.Robots))
	m.StepsTotal.WithLabelValues(string(engine.OutcomeTurned)).Add(float64(s.Turns))
	m.StepsTotal.WithLabelValues(string(engine.OutcomeMoved)).Add(float64(s.Moves))
	m.StepsTotal.WithLabelValues(string(engine.OutcomeBlocked)).Add(float64(s.Blocked))
	m.StepsTotal.WithLabelValues(string(engine.OutcomeOutOfBounds)).Add(float64(s.OutOfBounds))
}

func classify(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, engine.ErrDomainRule):
		return outcomeDomainError
	case errors.Is(err, engine.ErrInvalidValue), errors.Is(err, engine.ErrMissingArgument):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
