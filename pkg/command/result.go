package command

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Outcome is how a command left the scheduler.
type Outcome string

const (
	// OutcomeCompleted means Execute returned true and End was called.
	OutcomeCompleted Outcome = "completed"
	// OutcomeTimedOut means the timeout elapsed and End was called.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeInterrupted means the command was preempted or shut down.
	OutcomeInterrupted Outcome = "interrupted"
	// OutcomeFaulted means Initialize or Execute panicked; Interrupted was called.
	OutcomeFaulted Outcome = "faulted"
	// OutcomeRejected means a non-interruptible command holds a requirement.
	OutcomeRejected Outcome = "rejected"
	// OutcomeDropped means the command never ran: it was still pending at
	// shutdown, or was preempted in the cycle it was admitted. No callback
	// was called and the command may be submitted again.
	OutcomeDropped Outcome = "dropped"
)

// Result reports one retired command.
type Result struct {
	Command     Command
	Description string
	Outcome     Outcome
	// Elapsed is the time since the first Initialize; zero if it never ran.
	Elapsed time.Duration
	// Err is the fault, rejection reason or callback panic, if any.
	Err error
}

// Phase names the callback a Fault occurred in.
type Phase string

const (
	PhaseInitialize  Phase = "initialize"
	PhaseExecute     Phase = "execute"
	PhaseEnd         Phase = "end"
	PhaseInterrupted Phase = "interrupted"
)

// Fault is a panic recovered from a command callback.
type Fault struct {
	Phase Phase
	Value any
	Stack []byte
}

func (f *Fault) Error() string {
	return fmt.Sprintf("command panicked in %s: %v", f.Phase, f.Value)
}

// Unwrap exposes the panic value when it was an error.
func (f *Fault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// guard runs fn and converts a panic into a Fault.
func guard(phase Phase, fn func()) (fault *Fault) {
	defer func() {
		if v := recover(); v != nil {
			fault = &Fault{Phase: phase, Value: v, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
