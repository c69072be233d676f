package command

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/robocmd/internal/pkg/util/fsm"
)

// State is the lifecycle phase of a command.
type State string

const (
	StateCreated     State = "created"
	StateInitialized State = "initialized"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
	StateInterrupted State = "interrupted"
)

// Terminal reports whether no further callbacks may run in this state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateInterrupted
}

const (
	eventInitialize = "initialize"
	eventExecute    = "execute"
	eventComplete   = "complete"
	eventInterrupt  = "interrupt"
)

// lifecycle guards the call order of a single command instance.
type lifecycle struct {
	*fsm.FSM
}

func newLifecycle() *lifecycle {
	events := fsm.Events{
		{Name: eventInitialize, Src: []string{string(StateCreated)}, Dst: string(StateInitialized)},
		{Name: eventExecute, Src: []string{string(StateInitialized), string(StateRunning)}, Dst: string(StateRunning)},
		{Name: eventComplete, Src: []string{string(StateInitialized), string(StateRunning)}, Dst: string(StateCompleted)},
		{Name: eventInterrupt, Src: []string{string(StateInitialized), string(StateRunning)}, Dst: string(StateInterrupted)},
	}
	return &lifecycle{FSM: fsm.NewFSM(string(StateCreated), events, fsm.Callbacks{})}
}

func (l *lifecycle) state() State {
	return State(l.Current())
}

// fire applies event. Re-executing a running command is a self-transition
// and not an error.
func (l *lifecycle) fire(event string) error {
	from := l.state()
	// Background: the transition must not be abandoned because a caller's
	// context was canceled during shutdown.
	err := l.Event(context.Background(), event)
	if fsmutil.IsRealError(err) {
		return fmt.Errorf("%w: %s from %s: %w", ErrIllegalTransition, event, from, err)
	}
	return nil
}
