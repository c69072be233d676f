// Package control provides closed-loop controllers that commands can drive.
package control

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/autopeer-io/robocmd/pkg/command"
)

var (
	ErrNilInput      = errors.New("pid input must not be nil")
	ErrNilOutput     = errors.New("pid output must not be nil")
	ErrInvalidPeriod = errors.New("pid period must be positive")
	ErrInvalidLimits = errors.New("pid output limits must satisfy min < max")
)

// Gains are the proportional, integral, derivative and feed-forward terms.
type Gains struct {
	Kp float64 `json:"kp" mapstructure:"kp"`
	Ki float64 `json:"ki" mapstructure:"ki"`
	Kd float64 `json:"kd" mapstructure:"kd"`
	Kf float64 `json:"kf" mapstructure:"kf"`
}

// PID is a PID controller with feed-forward that samples once per period.
// It implements command.Controller and is the requirement its commands claim.
type PID struct {
	name   string
	gains  Gains
	dt     float64
	input  func() float64
	output func(float64)
	min    float64
	max    float64

	mu        sync.Mutex
	enabled   bool
	setpoint  float64
	tolerance float64
	integral  float64
	prevErr   float64
	lastInput float64
	lastOut   float64
	sampled   bool
}

var _ command.Controller = (*PID)(nil)

// Option configures a PID.
type Option func(*PID)

// WithOutputLimits clamps the output to [lo, hi].
func WithOutputLimits(lo, hi float64) Option {
	return func(p *PID) {
		p.min, p.max = lo, hi
	}
}

// NewPID creates a disabled controller reading input and writing output.
// The output is clamped to [-1, 1] unless WithOutputLimits says otherwise.
func NewPID(name string, gains Gains, period time.Duration, input func() float64, output func(float64), opts ...Option) (*PID, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if output == nil {
		return nil, ErrNilOutput
	}
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}

	p := &PID{
		name:   name,
		gains:  gains,
		dt:     period.Seconds(),
		input:  input,
		output: output,
		min:    -1,
		max:    1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if !(p.min < p.max) {
		return nil, ErrInvalidLimits
	}
	return p, nil
}

func (p *PID) Name() string { return p.name }

func (p *PID) SetTarget(setpoint, tolerance float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setpoint = setpoint
	p.tolerance = math.Abs(tolerance)
}

func (p *PID) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	p.enabled = true
}

func (p *PID) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
	p.reset()
	p.output(0)
}

// ComputeOutput samples the input and writes one output. It does nothing
// while the controller is disabled.
func (p *PID) ComputeOutput() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}

	in := p.input()
	e := p.setpoint - in

	var derivative float64
	if p.sampled {
		derivative = (e - p.prevErr) / p.dt
	}

	integral := p.integral + e*p.dt
	out := p.gains.Kp*e + p.gains.Ki*integral + p.gains.Kd*derivative + p.gains.Kf*p.setpoint
	clamped := clamp(out, p.min, p.max)
	// Anti-windup: only accumulate while the output is not saturated.
	if clamped == out {
		p.integral = integral
	}

	p.prevErr = e
	p.lastInput = in
	p.lastOut = clamped
	p.sampled = true
	p.output(clamped)
}

// IsWithinTolerance is false until the first sample after Enable.
func (p *PID) IsWithinTolerance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampled && math.Abs(p.setpoint-p.lastInput) <= p.tolerance
}

// Status is a point-in-time view of the controller.
type Status struct {
	Name     string  `json:"name"`
	Enabled  bool    `json:"enabled"`
	Setpoint float64 `json:"setpoint"`
	Input    float64 `json:"input"`
	Output   float64 `json:"output"`
}

func (p *PID) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Name:     p.name,
		Enabled:  p.enabled,
		Setpoint: p.setpoint,
		Input:    p.lastInput,
		Output:   p.lastOut,
	}
}

func (p *PID) reset() {
	p.integral = 0
	p.prevErr = 0
	p.lastOut = 0
	p.sampled = false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
