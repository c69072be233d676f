package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/log"
)

// plant records every output and reports a settable input.
type plant struct {
	value   float64
	outputs []float64
}

func (p *plant) read() float64   { return p.value }
func (p *plant) write(v float64) { p.outputs = append(p.outputs, v) }
func (p *plant) last() float64   { return p.outputs[len(p.outputs)-1] }

func newTestPID(t *testing.T, g Gains, pl *plant, opts ...Option) *PID {
	t.Helper()
	pid, err := NewPID("arm", g, 100*time.Millisecond, pl.read, pl.write, opts...)
	require.NoError(t, err)
	return pid
}

func TestNewPIDErrors(t *testing.T) {
	pl := &plant{}
	tests := []struct {
		name    string
		input   func() float64
		output  func(float64)
		period  time.Duration
		opts    []Option
		wantErr error
	}{
		{"nil input", nil, pl.write, time.Millisecond, nil, ErrNilInput},
		{"nil output", pl.read, nil, time.Millisecond, nil, ErrNilOutput},
		{"zero period", pl.read, pl.write, 0, nil, ErrInvalidPeriod},
		{"negative period", pl.read, pl.write, -time.Second, nil, ErrInvalidPeriod},
		{"inverted limits", pl.read, pl.write, time.Millisecond, []Option{WithOutputLimits(1, -1)}, ErrInvalidLimits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPID("arm", Gains{Kp: 1}, tt.period, tt.input, tt.output, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPIDDisabledWritesNothing(t *testing.T) {
	pl := &plant{}
	pid := newTestPID(t, Gains{Kp: 1}, pl)
	pid.SetTarget(1, 0.1)

	pid.ComputeOutput()
	assert.Empty(t, pl.outputs)
	assert.False(t, pid.IsWithinTolerance())
}

func TestPIDOutput(t *testing.T) {
	tests := []struct {
		name     string
		gains    Gains
		opts     []Option
		setpoint float64
		input    float64
		want     float64
	}{
		{"proportional", Gains{Kp: 0.5}, nil, 2, 1, 0.5},
		{"negative error", Gains{Kp: 0.5}, nil, 0, 1, -0.5},
		{"clamped high", Gains{Kp: 10}, nil, 2, 0, 1},
		{"clamped low", Gains{Kp: 10}, nil, -2, 0, -1},
		{"custom limits", Gains{Kp: 10}, []Option{WithOutputLimits(-12, 12)}, 1, 0, 10},
		{"feed-forward", Gains{Kf: 0.1}, nil, 5, 5, 0.5},
		{"integral", Gains{Ki: 1}, nil, 1, 0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := &plant{value: tt.input}
			pid := newTestPID(t, tt.gains, pl, tt.opts...)
			pid.SetTarget(tt.setpoint, 0)
			pid.Enable()

			pid.ComputeOutput()
			require.Len(t, pl.outputs, 1)
			assert.InDelta(t, tt.want, pl.last(), 1e-9)
		})
	}
}

func TestPIDDerivativeSkipsFirstSample(t *testing.T) {
	pl := &plant{}
	pid := newTestPID(t, Gains{Kd: 1}, pl, WithOutputLimits(-100, 100))
	pid.SetTarget(2, 0)
	pid.Enable()

	pid.ComputeOutput()
	assert.Zero(t, pl.last())

	pl.value = 1
	pid.ComputeOutput()
	assert.InDelta(t, -10, pl.last(), 1e-9)
}

func TestPIDAntiWindup(t *testing.T) {
	pl := &plant{}
	pid, err := NewPID("arm", Gains{Ki: 1}, time.Second, pl.read, pl.write)
	require.NoError(t, err)
	pid.SetTarget(10, 0)
	pid.Enable()

	for i := 0; i < 5; i++ {
		pid.ComputeOutput()
		assert.Equal(t, 1.0, pl.last())
	}

	pl.value = 10
	pid.ComputeOutput()
	assert.Zero(t, pl.last(), "saturated samples must not accumulate")
}

func TestPIDToleranceAndDisable(t *testing.T) {
	pl := &plant{value: 0.96}
	pid := newTestPID(t, Gains{Kp: 1}, pl)
	pid.SetTarget(1, -0.05)
	pid.Enable()

	assert.False(t, pid.IsWithinTolerance(), "no sample yet")
	pid.ComputeOutput()
	assert.True(t, pid.IsWithinTolerance())

	pid.Disable()
	assert.Zero(t, pl.last())
	assert.False(t, pid.IsWithinTolerance())
	assert.False(t, pid.Status().Enabled)
}

func TestPIDDrivesUseCommand(t *testing.T) {
	pl := &plant{}
	pid, err := NewPID("arm", Gains{Kp: 0.5}, 20*time.Millisecond, pl.read, func(v float64) {
		pl.write(v)
		pl.value += v
	})
	require.NoError(t, err)

	cmd, err := command.Use(pid, 1, 0.05)
	require.NoError(t, err)

	s := command.NewScheduler(command.WithLogger(log.NewNopLogger()))
	require.NoError(t, s.Submit(cmd))

	var results []command.Result
	for i := 0; i < 50 && len(results) == 0; i++ {
		results = s.Step()
	}

	require.Len(t, results, 1)
	assert.Equal(t, command.OutcomeCompleted, results[0].Outcome)
	assert.InDelta(t, 1, pl.value, 0.05)
	assert.Zero(t, pl.last(), "End disables the controller")
	assert.Equal(t, []string{"arm"}, command.Describe(cmd).Requirements)
}
