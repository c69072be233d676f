// Package executor drives a command.Scheduler at a fixed control period.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/robocmd/internal/pkg/metrics"
	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/log"
)

// DefaultPeriod is the control period used when none is configured.
const DefaultPeriod = 20 * time.Millisecond

var (
	ErrNilScheduler  = errors.New("executor requires a scheduler")
	ErrInvalidPeriod = errors.New("executor period must be positive")
)

// ResultHandler receives every command the scheduler retires.
type ResultHandler func(command.Result)

// Executor calls Step on its scheduler once per period from a single
// goroutine, which makes that goroutine the one all command callbacks run on.
type Executor struct {
	sched   *command.Scheduler
	clock   clock.WithTicker
	period  time.Duration
	logger  log.Logger
	metrics *metrics.Executor
	handler ResultHandler
}

// Option configures an Executor.
type Option func(*Executor)

func WithPeriod(d time.Duration) Option {
	return func(e *Executor) { e.period = d }
}

// WithClock sets the clock that drives the ticker and measures cycles.
func WithClock(c clock.WithTicker) Option {
	return func(e *Executor) { e.clock = c }
}

func WithLogger(l log.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithRegisterer registers the executor metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Executor) { e.metrics = metrics.NewExecutor(reg) }
}

// WithResultHandler is called, on the executor goroutine, for every
// retired command.
func WithResultHandler(h ResultHandler) Option {
	return func(e *Executor) { e.handler = h }
}

func New(sched *command.Scheduler, opts ...Option) (*Executor, error) {
	if sched == nil {
		return nil, ErrNilScheduler
	}

	e := &Executor{
		sched:  sched,
		clock:  clock.RealClock{},
		period: DefaultPeriod,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if e.logger == nil {
		e.logger = log.WithName("executor")
	}
	if e.metrics == nil {
		e.metrics = metrics.NewExecutor(nil)
	}
	return e, nil
}

func (e *Executor) Period() time.Duration { return e.period }

// Run steps the scheduler immediately and then on every tick until ctx is
// done. It then shuts the scheduler down, so every command still running is
// interrupted on this goroutine before Run returns.
func (e *Executor) Run(ctx context.Context) error {
	e.logger.Info("Starting executor", "period", e.period)

	e.Tick()

	ticker := e.clock.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			e.Tick()
		case <-ctx.Done():
			e.logger.Info("Stopping executor")
			e.report(e.sched.Shutdown())
			return nil
		}
	}
}

// Tick runs one control cycle and returns the commands it retired.
func (e *Executor) Tick() []command.Result {
	start := e.clock.Now()
	results := e.sched.Step()
	elapsed := e.clock.Since(start)

	e.metrics.CycleSeconds.Observe(elapsed.Seconds())
	if elapsed > e.period {
		e.metrics.Overruns.Inc()
		e.logger.Warn("Control cycle overran its period", "elapsed", elapsed, "period", e.period)
	}

	e.report(results)
	return results
}

func (e *Executor) report(results []command.Result) {
	for _, res := range results {
		kv := []any{"command", res.Description, "outcome", string(res.Outcome), "elapsed", res.Elapsed}
		switch res.Outcome {
		case command.OutcomeFaulted:
			e.logger.Error(res.Err, "Command faulted", kv...)
		case command.OutcomeRejected:
			e.logger.Warn("Command rejected", append(kv, "reason", res.Err)...)
		default:
			if res.Err != nil {
				kv = append(kv, "reason", res.Err)
			}
			e.logger.Info("Command finished", kv...)
		}

		if e.handler != nil {
			e.handler(res)
		}
	}
}
