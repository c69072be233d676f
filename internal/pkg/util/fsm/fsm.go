package fsm

import (
	"errors"

	"github.com/looplab/fsm"
)

// IsRealError reports whether err from fsm.Event is an actual failure rather
// than a self-transition or a guard cancellation.
func IsRealError(err error) bool {
	if err == nil {
		return false
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError

	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}

	return true
}
