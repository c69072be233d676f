package command

import (
	"fmt"
	"math"
	"time"
)

// Command is a unit of control logic polled to completion by a Scheduler.
//
// Implementations embed Base, which carries the timeout, the requirements
// and the interruptible flag. Execute has no default and must be provided.
type Command interface {
	// Initialize performs one-time setup before the first Execute. It must
	// not move hardware.
	Initialize()

	// Execute performs one cycle of work and returns true once the command
	// is complete. It is never called again after returning true.
	Execute() bool

	// Interrupted is called instead of End when the command is canceled,
	// preempted, shut down mid-run, or when Initialize or Execute panicked.
	// It is only called after Initialize: a command preempted before its
	// first cycle is dropped without any callback.
	Interrupted()

	// End is called once after Execute returns true or the timeout elapses,
	// unless Interrupted was called. It typically leaves the robot safe.
	End()

	base() *Base
}

// Base holds the state every command shares. The zero value is a command
// with no timeout, no requirements, that may be interrupted.
//
// A Base may be copied into several commands before they are submitted;
// each copy gets its own lifecycle on first submission.
type Base struct {
	timeout          float64
	requirements     Requirements
	notInterruptible bool
	lc               *lifecycle
}

// NewBase returns a Base that times out after timeout (zero runs until
// Execute reports completion) and requires reqs.
func NewBase(timeout time.Duration, reqs ...Requirable) (Base, error) {
	return NewBaseSecondsFrom(seconds(timeout), reqs)
}

// NewBaseFrom is NewBase taking the requirements as a slice.
func NewBaseFrom(timeout time.Duration, reqs []Requirable) (Base, error) {
	return NewBaseSecondsFrom(seconds(timeout), reqs)
}

// NewBaseSeconds is NewBase with the timeout given in seconds.
func NewBaseSeconds(timeoutSeconds float64, reqs ...Requirable) (Base, error) {
	return NewBaseSecondsFrom(timeoutSeconds, reqs)
}

// NewBaseSecondsFrom is NewBaseSeconds taking the requirements as a slice.
func NewBaseSecondsFrom(timeoutSeconds float64, reqs []Requirable) (Base, error) {
	if err := checkTimeout(timeoutSeconds); err != nil {
		return Base{}, err
	}
	set, err := RequirementsFrom(reqs)
	if err != nil {
		return Base{}, err
	}
	return Base{
		timeout:      timeoutSeconds,
		requirements: set,
	}, nil
}

// Initialize does nothing by default.
func (b *Base) Initialize() {}

// Interrupted does nothing by default.
func (b *Base) Interrupted() {}

// End does nothing by default.
func (b *Base) End() {}

// SetNotInterruptible keeps this command running when another command with
// overlapping requirements is submitted; the newcomer is rejected instead.
// It is meant to be called by the command itself, from its constructor or
// Initialize. There is no way back.
func (b *Base) SetNotInterruptible() {
	b.notInterruptible = true
}

func (b *Base) base() *Base { return b }

func (b *Base) requirementSet() Requirements { return b.requirements }

func (b *Base) timeoutInSeconds() float64 { return b.timeout }

func (b *Base) isInterruptible() bool { return !b.notInterruptible }

// lifecycle is created on first use, so every copy of a Base made before
// submission tracks its own command. The scheduler first touches it under its
// submission lock.
func (b *Base) lifecycle() *lifecycle {
	if b.lc == nil {
		b.lc = newLifecycle()
	}
	return b.lc
}

// Info is a read-only snapshot of a command, for listings and diagnostics.
type Info struct {
	Description    string   `json:"description"`
	TimeoutSeconds float64  `json:"timeoutSeconds"`
	Requirements   []string `json:"requirements"`
	Interruptible  bool     `json:"interruptible"`
	State          State    `json:"state"`
}

// Describe returns a snapshot of c. It must not race with a scheduler that is
// driving c; use Scheduler.Active for running commands.
func Describe(c Command) Info {
	b := c.base()
	return Info{
		Description:    describe(c),
		TimeoutSeconds: b.timeoutInSeconds(),
		Requirements:   b.requirementSet().Names(),
		Interruptible:  b.isInterruptible(),
		State:          b.lifecycle().state(),
	}
}

func describe(c Command) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

func seconds(d time.Duration) float64 {
	return float64(d) / float64(time.Second)
}

func checkTimeout(s float64) error {
	if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, s)
	}
	return nil
}
