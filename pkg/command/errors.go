package command

import "errors"

// Construction errors.
var (
	ErrInvalidTimeout = errors.New("timeout must be a finite, non-negative number of seconds")
	ErrNilFunction    = errors.New("function must not be nil")
	ErrNilController  = errors.New("controller must not be nil")

	ErrUncomparableRequirement = errors.New("requirement type is not comparable")
)

// Scheduling errors.
var (
	ErrNilCommand        = errors.New("command must not be nil")
	ErrAlreadyScheduled  = errors.New("command is already scheduled")
	ErrAlreadyRun        = errors.New("command has already been run")
	ErrSchedulerClosed   = errors.New("scheduler is shut down")
	ErrRequirementInUse  = errors.New("requirement held by a non-interruptible command")
	ErrIllegalTransition = errors.New("illegal command lifecycle transition")
)
