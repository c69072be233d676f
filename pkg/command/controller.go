package command

import (
	"fmt"
	"reflect"
	"time"
)

// Controller is a closed-loop controller, such as a PID with feed-forward,
// that a command can drive toward a setpoint. The controller is itself the
// Requirable the command claims.
type Controller interface {
	Requirable

	// SetTarget sets the setpoint and the absolute tolerance around it.
	SetTarget(setpoint, tolerance float64)

	// Enable starts the controller from a clean state.
	Enable()

	// Disable stops the controller and zeroes its output.
	Disable()

	// ComputeOutput reads the input and writes one output sample.
	ComputeOutput()

	// IsWithinTolerance reports whether the last input was within tolerance
	// of the setpoint.
	IsWithinTolerance() bool
}

type controllerCommand struct {
	Base

	controller Controller
	setpoint   float64
	tolerance  float64
}

// Use builds a command that drives controller until it is within tolerance
// of setpoint.
func Use(controller Controller, setpoint, tolerance float64) (Command, error) {
	return UseWithin(0, controller, setpoint, tolerance)
}

// UseWithin is Use bounded by timeout.
func UseWithin(timeout time.Duration, controller Controller, setpoint, tolerance float64) (Command, error) {
	if isNil(controller) {
		return nil, ErrNilController
	}
	base, err := NewBase(timeout, controller)
	if err != nil {
		return nil, err
	}
	return &controllerCommand{
		Base:       base,
		controller: controller,
		setpoint:   setpoint,
		tolerance:  tolerance,
	}, nil
}

func (c *controllerCommand) Initialize() {
	c.controller.SetTarget(c.setpoint, c.tolerance)
	c.controller.Enable()
}

func (c *controllerCommand) Execute() bool {
	c.controller.ComputeOutput()
	return c.controller.IsWithinTolerance()
}

func (c *controllerCommand) End() {
	c.controller.Disable()
}

func (c *controllerCommand) Interrupted() {
	c.controller.Disable()
}

func (c *controllerCommand) String() string {
	return fmt.Sprintf("ControllerCommand (%s, setpoint=%v, tolerance=%v)", c.controller.Name(), c.setpoint, c.tolerance)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
