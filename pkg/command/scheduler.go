package command

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/robocmd/internal/pkg/metrics"
	"github.com/autopeer-io/robocmd/pkg/log"
)

// Scheduler polls submitted commands once per Step and enforces exclusive
// use of requirements and timeouts.
//
// Submit and Active may be called from any goroutine. Step, CancelAll and
// Shutdown must be called from a single driving goroutine, which is also the
// goroutine every command callback runs on.
type Scheduler struct {
	clock   clock.PassiveClock
	logger  log.Logger
	metrics *metrics.Scheduler

	mu       sync.Mutex
	closed   bool
	pending  []Command
	queued   map[Command]struct{}
	snapshot []Info

	active []*runner
}

type runner struct {
	cmd     Command
	desc    string
	started time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock sets the time source used for timeouts.
func WithClock(c clock.PassiveClock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithRegisterer registers the scheduler metrics with reg.
func WithRegisterer(reg prometheus.Registerer) SchedulerOption {
	return func(s *Scheduler) { s.metrics = metrics.NewScheduler(reg) }
}

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:  clock.RealClock{},
		queued: make(map[Command]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithName("scheduler")
	}
	if s.metrics == nil {
		s.metrics = metrics.NewScheduler(nil)
	}
	return s
}

// Submit queues c to be admitted on the next Step.
func (s *Scheduler) Submit(c Command) error {
	if isNil(c) {
		return ErrNilCommand
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if _, ok := s.queued[c]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyScheduled, describe(c))
	}
	if st := c.base().lifecycle().state(); st != StateCreated {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyRun, describe(c), st)
	}

	s.queued[c] = struct{}{}
	s.pending = append(s.pending, c)
	s.metrics.Submitted.Inc()
	return nil
}

// Active returns a snapshot of the commands being polled, as of the end of
// the last Step.
func (s *Scheduler) Active() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Idle reports whether nothing is pending or active.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queued) == 0
}

// Step runs one control cycle: pending commands are admitted in submission
// order, then every active command is polled in admission order. It returns
// the commands retired during this cycle.
func (s *Scheduler) Step() []Result {
	now := s.clock.Now()

	var results []Result
	for _, c := range s.drain() {
		results = s.admit(c, now, results)
	}

	remaining := s.active[:0]
	for _, r := range s.active {
		if res, done := s.poll(r, now); done {
			results = append(results, res)
			continue
		}
		remaining = append(remaining, r)
	}
	clear(s.active[len(remaining):])
	s.active = remaining

	s.finish(results)
	return results
}

// CancelAll interrupts every active command and drops every pending one.
func (s *Scheduler) CancelAll() []Result {
	now := s.clock.Now()

	var results []Result
	for _, c := range s.drain() {
		results = append(results, Result{
			Command:     c,
			Description: describe(c),
			Outcome:     OutcomeDropped,
		})
	}
	for _, r := range s.active {
		results = append(results, s.interrupt(r, now, OutcomeInterrupted, nil))
	}
	clear(s.active)
	s.active = s.active[:0]

	s.finish(results)
	return results
}

// Shutdown refuses further submissions and cancels everything.
func (s *Scheduler) Shutdown() []Result {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("Scheduler shutting down", "active", len(s.active))
	return s.CancelAll()
}

func (s *Scheduler) drain() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	s.pending = nil
	return pending
}

func (s *Scheduler) admit(c Command, now time.Time, results []Result) []Result {
	reqs := c.base().requirementSet()

	var conflicts []*runner
	if reqs.Len() > 0 {
		for _, r := range s.active {
			if r.cmd.base().requirementSet().Intersects(reqs) {
				conflicts = append(conflicts, r)
			}
		}
	}

	var holders []string
	for _, r := range conflicts {
		if !r.cmd.base().isInterruptible() {
			holders = append(holders, r.desc)
		}
	}
	if len(holders) > 0 {
		desc := describe(c)
		err := fmt.Errorf("%w: %s", ErrRequirementInUse, strings.Join(holders, "; "))
		s.logger.Warn("Rejected command", "command", desc, "heldBy", holders)
		return append(results, Result{Command: c, Description: desc, Outcome: OutcomeRejected, Err: err})
	}

	for _, r := range conflicts {
		s.logger.Debug("Preempting command", "command", r.desc, "by", describe(c))
		s.remove(r)
		// Admitted earlier in this cycle and never initialized: no callbacks.
		if r.cmd.base().lifecycle().state() == StateCreated {
			results = append(results, Result{Command: r.cmd, Description: r.desc, Outcome: OutcomeDropped})
			continue
		}
		results = append(results, s.interrupt(r, now, OutcomeInterrupted, nil))
	}

	s.active = append(s.active, &runner{cmd: c, desc: describe(c)})
	return results
}

func (s *Scheduler) remove(target *runner) {
	for i, r := range s.active {
		if r == target {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}

// poll advances r by one cycle and reports whether it retired.
func (s *Scheduler) poll(r *runner, now time.Time) (Result, bool) {
	b := r.cmd.base()
	lc := b.lifecycle()

	if lc.state() == StateCreated {
		r.started = now
		if err := lc.fire(eventInitialize); err != nil {
			return s.broken(r, now, err), true
		}
		if f := guard(PhaseInitialize, r.cmd.Initialize); f != nil {
			return s.interrupt(r, now, OutcomeFaulted, f), true
		}
	}

	if t := b.timeoutInSeconds(); t > 0 && now.Sub(r.started).Seconds() >= t {
		return s.complete(r, now, OutcomeTimedOut), true
	}

	if err := lc.fire(eventExecute); err != nil {
		return s.broken(r, now, err), true
	}
	var done bool
	if f := guard(PhaseExecute, func() { done = r.cmd.Execute() }); f != nil {
		return s.interrupt(r, now, OutcomeFaulted, f), true
	}
	if done {
		return s.complete(r, now, OutcomeCompleted), true
	}
	return Result{}, false
}

func (s *Scheduler) complete(r *runner, now time.Time, outcome Outcome) Result {
	if err := r.cmd.base().lifecycle().fire(eventComplete); err != nil {
		return s.broken(r, now, err)
	}
	res := Result{Command: r.cmd, Description: r.desc, Outcome: outcome, Elapsed: now.Sub(r.started)}
	if f := guard(PhaseEnd, r.cmd.End); f != nil {
		res.Err = f
	}
	return res
}

func (s *Scheduler) interrupt(r *runner, now time.Time, outcome Outcome, cause error) Result {
	res := Result{Command: r.cmd, Description: r.desc, Outcome: outcome, Err: cause}
	if !r.started.IsZero() {
		res.Elapsed = now.Sub(r.started)
	}
	if err := r.cmd.base().lifecycle().fire(eventInterrupt); err != nil {
		res.Outcome = OutcomeFaulted
		res.Err = errors.Join(cause, err)
		return res
	}
	if f := guard(PhaseInterrupted, r.cmd.Interrupted); f != nil {
		res.Err = errors.Join(cause, f)
	}
	return res
}

// broken retires a command whose lifecycle was driven out of order, without
// running any further callbacks.
func (s *Scheduler) broken(r *runner, now time.Time, err error) Result {
	res := Result{Command: r.cmd, Description: r.desc, Outcome: OutcomeFaulted, Err: err}
	if !r.started.IsZero() {
		res.Elapsed = now.Sub(r.started)
	}
	return res
}

func (s *Scheduler) finish(results []Result) {
	for _, res := range results {
		s.metrics.Finished.WithLabelValues(string(res.Outcome)).Inc()
		if res.Outcome != OutcomeRejected && res.Outcome != OutcomeDropped {
			s.metrics.Duration.WithLabelValues(string(res.Outcome)).Observe(res.Elapsed.Seconds())
		}
	}

	snapshot := make([]Info, 0, len(s.active))
	for _, r := range s.active {
		b := r.cmd.base()
		snapshot = append(snapshot, Info{
			Description:    r.desc,
			TimeoutSeconds: b.timeoutInSeconds(),
			Requirements:   b.requirementSet().Names(),
			Interruptible:  b.isInterruptible(),
			State:          b.lifecycle().state(),
		})
	}

	s.mu.Lock()
	for _, res := range results {
		delete(s.queued, res.Command)
	}
	s.snapshot = snapshot
	s.mu.Unlock()

	s.metrics.Active.Set(float64(len(snapshot)))
}
