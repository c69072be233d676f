// Package robot simulates the hardware a command routine drives. Every
// subsystem is a command.Requirable so commands can claim it exclusively.
package robot

import (
	"math"
	"sync"
	"time"

	"github.com/autopeer-io/robocmd/pkg/log"
)

const (
	// MaxDriveSpeed is the drivetrain speed in meters per second at full output.
	MaxDriveSpeed = 3.0
	// ArmRate is the arm speed in degrees per second at full output.
	ArmRate = 90.0
)

// Drivetrain integrates a commanded speed into distance travelled.
type Drivetrain struct {
	mu       sync.Mutex
	speed    float64
	distance float64
}

func (d *Drivetrain) Name() string { return "drivetrain" }

// Drive sets the output in [-1, 1].
func (d *Drivetrain) Drive(speed float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = clampUnit(speed)
}

func (d *Drivetrain) Stop() { d.Drive(0) }

// Distance returns the meters travelled since start.
func (d *Drivetrain) Distance() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.distance
}

func (d *Drivetrain) Speed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

func (d *Drivetrain) advance(dt float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.distance += d.speed * MaxDriveSpeed * dt
}

// Arm turns a motor output into an angle in degrees.
type Arm struct {
	mu     sync.Mutex
	output float64
	angle  float64
}

func (a *Arm) Name() string { return "arm" }

// SetOutput sets the motor output in [-1, 1].
func (a *Arm) SetOutput(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.output = clampUnit(v)
}

func (a *Arm) Angle() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.angle
}

func (a *Arm) advance(dt float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.angle += a.output * ArmRate * dt
}

// Gripper is either open or closed.
type Gripper struct {
	mu     sync.Mutex
	closed bool
}

func (g *Gripper) Name() string { return "gripper" }

func (g *Gripper) Open() {
	g.mu.Lock()
	g.closed = false
	g.mu.Unlock()
	log.Info("[Sim] Gripper opened")
}

func (g *Gripper) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	log.Info("[Sim] Gripper closed")
}

func (g *Gripper) IsClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Robot groups the simulated subsystems.
type Robot struct {
	Drivetrain *Drivetrain
	Arm        *Arm
	Gripper    *Gripper
}

func New() *Robot {
	return &Robot{
		Drivetrain: &Drivetrain{},
		Arm:        &Arm{},
		Gripper:    &Gripper{},
	}
}

// Advance moves the simulation forward by dt.
func (r *Robot) Advance(dt time.Duration) {
	s := dt.Seconds()
	r.Drivetrain.advance(s)
	r.Arm.advance(s)
}

// State is a snapshot of the simulation.
type State struct {
	Distance float64 `json:"distance"`
	Speed    float64 `json:"speed"`
	ArmAngle float64 `json:"armAngle"`
	Gripped  bool    `json:"gripped"`
}

func (r *Robot) State() State {
	return State{
		Distance: r.Drivetrain.Distance(),
		Speed:    r.Drivetrain.Speed(),
		ArmAngle: r.Arm.Angle(),
		Gripped:  r.Gripper.IsClosed(),
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
