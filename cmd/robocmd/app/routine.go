package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/robocmd/cmd/robocmd/app/options"
	"github.com/autopeer-io/robocmd/internal/robot"
	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/control"
	"github.com/autopeer-io/robocmd/pkg/log"
)

// step is one submission of the routine, made At after the routine starts.
type step struct {
	At      time.Duration
	Name    string
	Command command.Command
}

// driveDistance drives until the drivetrain has covered meters, and stops
// however it ends.
type driveDistance struct {
	command.Base
	drivetrain *robot.Drivetrain
	meters     float64
	speed      float64
	start      float64
}

func newDriveDistance(d *robot.Drivetrain, meters, speed float64, timeout time.Duration) (*driveDistance, error) {
	base, err := command.NewBase(timeout, d)
	if err != nil {
		return nil, err
	}
	return &driveDistance{Base: base, drivetrain: d, meters: meters, speed: speed}, nil
}

func (c *driveDistance) Initialize() {
	c.start = c.drivetrain.Distance()
	c.drivetrain.Drive(c.speed)
}

func (c *driveDistance) Execute() bool {
	return c.drivetrain.Distance()-c.start >= c.meters
}

func (c *driveDistance) End()         { c.drivetrain.Stop() }
func (c *driveDistance) Interrupted() { c.drivetrain.Stop() }

func (c *driveDistance) String() string {
	return fmt.Sprintf("DriveDistance (%vm at %v)", c.meters, c.speed)
}

// holdGripper keeps the gripper closed for its whole timeout and cannot be
// preempted.
type holdGripper struct {
	command.Base
	gripper *robot.Gripper
}

func newHoldGripper(g *robot.Gripper, d time.Duration) (*holdGripper, error) {
	base, err := command.NewBase(d, g)
	if err != nil {
		return nil, err
	}
	base.SetNotInterruptible()
	return &holdGripper{Base: base, gripper: g}, nil
}

func (c *holdGripper) Initialize()    { c.gripper.Close() }
func (c *holdGripper) Execute() bool  { return false }
func (c *holdGripper) End()           { c.gripper.Open() }
func (c *holdGripper) String() string { return "HoldGripper" }

// newArmPID wires a PID to the simulated arm.
func newArmPID(r *robot.Robot, opts *options.RobocmdOptions) (*control.PID, error) {
	return control.NewPID("arm", opts.Routine.ArmGains, opts.Scheduler.Period, r.Arm.Angle, r.Arm.SetOutput)
}

// buildRoutine returns the autonomous routine in submission order. It shows
// off preemption by Cancel, rejection by a non-interruptible command,
// timeouts and a controller command.
func buildRoutine(r *robot.Robot, arm *control.PID, opts *options.RobocmdOptions) ([]step, error) {
	period := opts.Scheduler.Period
	setpoint := opts.Routine.ArmSetpoint

	var (
		steps []step
		errs  []error
	)
	add := func(at time.Duration, name string, c command.Command, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		steps = append(steps, step{At: at, Name: name, Command: c})
	}

	simulate, err := command.Until(func() bool {
		r.Advance(period)
		return false
	})
	add(0, "simulate", simulate, err)

	announce, err := command.Once(func() {
		log.Info("Autonomous routine started")
	})
	add(0, "announce", announce, err)

	grip, err := newHoldGripper(r.Gripper, 2*time.Second)
	add(0, "grip", grip, err)

	drive, err := newDriveDistance(r.Drivetrain, 6, 0.5, 5*time.Second)
	add(0, "drive", drive, err)

	raise, err := command.UseWithin(3*time.Second, arm, setpoint, 1)
	add(0, "raise-arm", raise, err)

	release, err := command.Cancel(r.Gripper)
	add(500*time.Millisecond, "release-early", release, err)

	waitArm, err := command.Create(2*time.Second, func() bool {
		return r.Arm.Angle() >= setpoint-1
	}, func() {
		log.Info("Arm raised", "angle", r.Arm.Angle())
	}, func() string {
		return fmt.Sprintf("WaitForArm (%v deg)", setpoint)
	})
	add(time.Second, "wait-arm", waitArm, err)

	pause, err := command.Pause(500 * time.Millisecond)
	add(1500*time.Millisecond, "pause", pause, err)

	abort, err := command.Cancel(r.Drivetrain)
	add(2500*time.Millisecond, "abort-drive", abort, err)

	report, err := command.OnceWithinThen(time.Second, func() {
		s := r.State()
		log.Info("Robot state", "distance", s.Distance, "armAngle", s.ArmAngle, "gripped", s.Gripped)
	}, func() {
		log.Info("Routine complete")
	})
	add(3*time.Second, "report", report, err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return steps, nil
}
