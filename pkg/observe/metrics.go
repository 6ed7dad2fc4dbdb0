package observe

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOk  = "ok"
	outcomeErr = "error"
)

// MetricsConfig defines configuration for chain metrics
type MetricsConfig struct {
	// Registerer receives the collectors (optional, defaults to
	// prometheus.DefaultRegisterer)
	Registerer prometheus.Registerer

	// Namespace prefixes every metric name
	Namespace string
}

// DefaultMetricsConfig returns default configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Registerer: prometheus.DefaultRegisterer,
		Namespace:  "asyncchain",
	}
}

// Metrics records Prometheus metrics for chain runs
type Metrics struct {
	ChainsStarted  *prometheus.CounterVec
	ChainsFinished *prometheus.CounterVec
	ChainDuration  *prometheus.HistogramVec
	StepsFinished  *prometheus.CounterVec
	StepsSkipped   *prometheus.CounterVec
	StepDuration   *prometheus.HistogramVec
	RetryAttempts  *prometheus.CounterVec
	RetryDelay     *prometheus.HistogramVec
}

// NewMetrics creates and registers the chain collectors
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(config.Registerer)

	return &Metrics{
		ChainsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "chain",
				Name:      "runs_started_total",
				Help:      "Total number of chain runs started",
			},
			[]string{"chain"},
		),

		ChainsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "chain",
				Name:      "runs_finished_total",
				Help:      "Total number of chain runs that delivered a terminal result",
			},
			[]string{"chain", "outcome"},
		),

		ChainDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: "chain",
				Name:      "run_duration_seconds",
				Help:      "Time from Finally to the terminal result",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"chain"},
		),

		StepsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "step",
				Name:      "attempts_total",
				Help:      "Total number of step attempts by outcome",
			},
			[]string{"chain", "kind", "outcome"},
		),

		StepsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "step",
				Name:      "skipped_total",
				Help:      "Total number of steps passed over without running",
			},
			[]string{"chain", "kind"},
		),

		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: "step",
				Name:      "attempt_duration_seconds",
				Help:      "Time from starting a step attempt to its result",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"chain", "kind"},
		),

		RetryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "retry",
				Name:      "attempts_total",
				Help:      "Total number of retries by attempt number, with attempts from 3 on counted together",
			},
			[]string{"chain", "kind", "attempt"},
		),

		RetryDelay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: "retry",
				Name:      "delay_seconds",
				Help:      "Backoff delay handed to the scheduler",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"chain"},
		),
	}
}

// attemptLabel buckets retry attempts so large retry bounds keep the
// label set small: "1", "2", then "3+"
func attemptLabel(attempt uint) string {
	if attempt >= 3 {
		return "3+"
	}
	return strconv.FormatUint(uint64(attempt), 10)
}

func outcomeLabel(failed bool) string {
	if failed {
		return outcomeErr
	}
	return outcomeOk
}

func (m *Metrics) ChainStarted(ctx context.Context, ev Event) context.Context {
	m.ChainsStarted.WithLabelValues(ev.Chain).Inc()
	return ctx
}

func (m *Metrics) StepStarted(ctx context.Context, ev Event) context.Context {
	if ev.Attempt > 0 {
		m.RetryAttempts.WithLabelValues(ev.Chain, string(ev.Kind), attemptLabel(ev.Attempt)).Inc()
	}
	return ctx
}

func (m *Metrics) StepFinished(_ context.Context, ev Event) {
	m.StepsFinished.WithLabelValues(ev.Chain, string(ev.Kind), outcomeLabel(ev.Failed)).Inc()
	m.StepDuration.WithLabelValues(ev.Chain, string(ev.Kind)).Observe(ev.Duration.Seconds())
}

func (m *Metrics) StepSkipped(_ context.Context, ev Event) {
	m.StepsSkipped.WithLabelValues(ev.Chain, string(ev.Kind)).Inc()
}

func (m *Metrics) RetryScheduled(_ context.Context, ev Event) {
	m.RetryDelay.WithLabelValues(ev.Chain).Observe(ev.Delay.Seconds())
}

func (m *Metrics) ChainFinished(_ context.Context, ev Event) {
	m.ChainsFinished.WithLabelValues(ev.Chain, outcomeLabel(ev.Failed)).Inc()
	m.ChainDuration.WithLabelValues(ev.Chain).Observe(ev.Duration.Seconds())
}

var _ Observer = (*Metrics)(nil)
