package command

import (
	"fmt"
	"time"
)

// funcCommand is the single concrete type behind the function factories.
type funcCommand struct {
	Base

	execute  func() bool
	end      func()
	describe func() string
}

func (c *funcCommand) Execute() bool {
	return c.execute()
}

func (c *funcCommand) End() {
	if c.end != nil {
		c.end()
	}
}

func (c *funcCommand) String() string {
	if c.describe == nil {
		return "Command"
	}
	return c.describe()
}

func newFuncCommand(timeoutSeconds float64, execute func() bool, end func(), describe func() string, reqs []Requirable) (Command, error) {
	if execute == nil {
		return nil, ErrNilFunction
	}
	base, err := NewBaseSecondsFrom(timeoutSeconds, reqs)
	if err != nil {
		return nil, err
	}
	return &funcCommand{
		Base:     base,
		execute:  execute,
		end:      end,
		describe: describe,
	}, nil
}

// Create builds a command that calls isDone every cycle until it returns
// true, then calls end (which may be nil). A zero timeout means no timeout.
// describe supplies the command's String and may be nil.
func Create(timeout time.Duration, isDone func() bool, end func(), describe func() string, reqs ...Requirable) (Command, error) {
	return newFuncCommand(seconds(timeout), isDone, end, describe, reqs)
}

// Until builds a command without requirements that runs until isDone
// returns true.
func Until(isDone func() bool) (Command, error) {
	return UntilThen(isDone, nil)
}

// UntilThen is Until, calling end when the command completes.
func UntilThen(isDone func() bool, end func()) (Command, error) {
	return newFuncCommand(0, isDone, end, func() string {
		return "Command (repeatable)"
	}, nil)
}

// UntilWithin is Until bounded by timeout.
func UntilWithin(timeout time.Duration, isDone func() bool) (Command, error) {
	return UntilWithinThen(timeout, isDone, nil)
}

// UntilWithinThen is UntilThen bounded by timeout.
func UntilWithinThen(timeout time.Duration, isDone func() bool, end func()) (Command, error) {
	s := seconds(timeout)
	return newFuncCommand(s, isDone, end, func() string {
		return fmt.Sprintf("Command (timeout=%v sec, repeatable)", s)
	}, nil)
}

// Once builds a command without requirements that calls fn on its first
// cycle and completes immediately.
func Once(fn func()) (Command, error) {
	if fn == nil {
		return nil, ErrNilFunction
	}
	return newFuncCommand(0, oneShot(fn), nil, func() string {
		return "Command (one-time)"
	}, nil)
}

// OnceWithin is Once with a timeout.
func OnceWithin(timeout time.Duration, fn func()) (Command, error) {
	return OnceWithinThen(timeout, fn, nil)
}

// OnceWithinThen is OnceWithin, calling end (which may be nil) when the
// command completes.
func OnceWithinThen(timeout time.Duration, fn func(), end func()) (Command, error) {
	if fn == nil {
		return nil, ErrNilFunction
	}
	s := seconds(timeout)
	return newFuncCommand(s, oneShot(fn), end, func() string {
		return fmt.Sprintf("Command (one-time, duration=%v sec)", s)
	}, nil)
}

// oneShot runs fn on the first call only and always reports completion.
func oneShot(fn func()) func() bool {
	ran := false
	return func() bool {
		if !ran {
			ran = true
			fn()
		}
		return true
	}
}

// Cancel builds a command that completes on its first cycle. Submitting it
// interrupts every running command that shares one of reqs.
func Cancel(reqs ...Requirable) (Command, error) {
	set, err := RequirementsFrom(reqs)
	if err != nil {
		return nil, err
	}
	return &funcCommand{
		Base: Base{requirements: set},
		execute: func() bool {
			return true
		},
		describe: func() string {
			return "Cancel (requires " + set.String() + ")"
		},
	}, nil
}

// Pause builds a command without requirements that never completes on its
// own and is ended by its timeout d.
func Pause(d time.Duration) (Command, error) {
	ms := d.Milliseconds()
	return newFuncCommand(seconds(d), never, nil, func() string {
		return fmt.Sprintf("PauseCommand (%d milliseconds)", ms)
	}, nil)
}

// PauseSeconds is Pause with the duration in seconds.
func PauseSeconds(s float64) (Command, error) {
	return newFuncCommand(s, never, nil, func() string {
		return fmt.Sprintf("PauseCommand (%v sec)", s)
	}, nil)
}

func never() bool { return false }
