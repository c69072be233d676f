package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "robocmd"

// Scheduler holds the command scheduler metrics.
type Scheduler struct {
	// Submitted counts commands accepted by Submit.
	Submitted prometheus.Counter

	// Finished counts retired commands by outcome
	// (completed, timed_out, interrupted, faulted, rejected, dropped).
	Finished *prometheus.CounterVec

	// Active is the number of commands currently being polled.
	Active prometheus.Gauge

	// Duration observes how long retired commands ran, by outcome.
	Duration *prometheus.HistogramVec
}

// NewScheduler creates the scheduler metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewScheduler(reg prometheus.Registerer) *Scheduler {
	m := &Scheduler{
		Submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_submitted_total",
			Help:      "Total number of commands submitted to the scheduler.",
		}),
		Finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_finished_total",
			Help:      "Total number of commands retired by the scheduler, by outcome.",
		}, []string{"outcome"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "commands_active",
			Help:      "Number of commands currently being polled.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time from first Initialize to retirement.",
			Buckets:   []float64{.02, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.Submitted, m.Finished, m.Active, m.Duration)
	}
	return m
}

// Executor holds the control-loop metrics.
type Executor struct {
	// CycleSeconds observes the wall time of each scheduler step.
	CycleSeconds prometheus.Histogram

	// Overruns counts steps that took longer than the period.
	Overruns prometheus.Counter
}

// NewExecutor creates the executor metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewExecutor(reg prometheus.Registerer) *Executor {
	m := &Executor{
		CycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time spent in one scheduler step.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		Overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_overruns_total",
			Help:      "Number of scheduler steps that exceeded the control period.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.CycleSeconds, m.Overruns)
	}
	return m
}
