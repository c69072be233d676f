package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/robocmd/cmd/robocmd/app/options"
	"github.com/autopeer-io/robocmd/internal/robot"
	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/log"
)

func newRoutine(t *testing.T) (*robot.Robot, []step, *options.RobocmdOptions) {
	t.Helper()
	opts := options.NewRobocmdOptions()
	r := robot.New()
	arm, err := newArmPID(r, opts)
	require.NoError(t, err)
	steps, err := buildRoutine(r, arm, opts)
	require.NoError(t, err)
	return r, steps, opts
}

// TestRoutineOutcomes plays the whole routine in simulated time.
func TestRoutineOutcomes(t *testing.T) {
	r, steps, opts := newRoutine(t)
	period := opts.Scheduler.Period

	fc := testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := command.NewScheduler(command.WithClock(fc), command.WithLogger(log.NewNopLogger()))

	names := map[command.Command]string{}
	for _, s := range steps {
		names[s.Command] = s.Name
	}
	outcomes := map[string]command.Outcome{}
	record := func(results []command.Result) {
		for _, res := range results {
			outcomes[names[res.Command]] = res.Outcome
		}
	}

	next := 0
	for elapsed := time.Duration(0); elapsed < opts.Routine.Duration; elapsed += period {
		for next < len(steps) && steps[next].At <= elapsed {
			require.NoError(t, sched.Submit(steps[next].Command))
			next++
		}
		record(sched.Step())
		fc.Step(period)
	}
	record(sched.Shutdown())

	assert.Equal(t, map[string]command.Outcome{
		"simulate":      command.OutcomeInterrupted,
		"announce":      command.OutcomeCompleted,
		"grip":          command.OutcomeTimedOut,
		"drive":         command.OutcomeInterrupted,
		"raise-arm":     command.OutcomeCompleted,
		"release-early": command.OutcomeRejected,
		"wait-arm":      command.OutcomeCompleted,
		"pause":         command.OutcomeTimedOut,
		"abort-drive":   command.OutcomeCompleted,
		"report":        command.OutcomeCompleted,
	}, outcomes)

	state := r.State()
	assert.Zero(t, state.Speed, "an interrupted drive stops the drivetrain")
	assert.InDelta(t, 3.75, state.Distance, 0.1)
	assert.InDelta(t, opts.Routine.ArmSetpoint, state.ArmAngle, 1)
	assert.False(t, state.Gripped, "the gripper opens when its hold times out")
}

func TestFeedSubmitsOnSchedule(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := command.NewScheduler(command.WithClock(fc), command.WithLogger(log.NewNopLogger()))

	first, err := command.Pause(time.Hour)
	require.NoError(t, err)
	second, err := command.Pause(time.Hour)
	require.NoError(t, err)
	steps := []step{
		{At: 0, Name: "first", Command: first},
		{At: time.Second, Name: "second", Command: second},
	}

	done := make(chan error, 1)
	go func() { done <- feed(context.Background(), fc, sched, steps) }()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	sched.Step()
	assert.Len(t, sched.Active(), 1)

	fc.Step(time.Second)
	require.NoError(t, <-done)
	sched.Step()
	assert.Len(t, sched.Active(), 2)
}

func TestFeedStopsWhenSchedulerCloses(t *testing.T) {
	sched := command.NewScheduler(command.WithLogger(log.NewNopLogger()))
	sched.Shutdown()

	pause, err := command.Pause(time.Second)
	require.NoError(t, err)
	fc := testingclock.NewFakeClock(time.Now())
	assert.NoError(t, feed(context.Background(), fc, sched, []step{{Name: "pause", Command: pause}}))
}

func TestRoutineTable(t *testing.T) {
	_, steps, _ := newRoutine(t)
	out := routineTable(steps).String()

	assert.True(t, strings.HasPrefix(out, "AT"), out)
	assert.Contains(t, out, "Cancel (requires [gripper])")
	assert.Contains(t, out, "PauseCommand (500 milliseconds)")
	assert.Contains(t, out, "HoldGripper")
	assert.Contains(t, out, "ControllerCommand (arm, setpoint=45, tolerance=1)")
}
