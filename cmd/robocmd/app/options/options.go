package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/robocmd/pkg/control"
	"github.com/autopeer-io/robocmd/pkg/log"
	"github.com/autopeer-io/robocmd/pkg/options"
)

// RobocmdOptions is everything the robocmd binary can be configured with,
// from flags or from the config file.
type RobocmdOptions struct {
	Scheduler *options.SchedulerOptions `json:"scheduler" mapstructure:"scheduler"`
	Http      *options.HttpOptions      `json:"http" mapstructure:"http"`
	Routine   *RoutineOptions           `json:"routine" mapstructure:"routine"`
	Log       *log.Options              `json:"log" mapstructure:"log"`
}

// RoutineOptions tunes the simulated autonomous routine.
type RoutineOptions struct {
	// Duration is how long the routine runs before everything is shut down.
	Duration time.Duration `json:"duration" mapstructure:"duration"`

	// ArmSetpoint is the arm angle in degrees the PID drives to.
	ArmSetpoint float64 `json:"arm-setpoint" mapstructure:"arm-setpoint"`

	// ArmGains are the arm PID gains.
	ArmGains control.Gains `json:"arm-gains" mapstructure:"arm-gains"`
}

var _ options.IOptions = (*RoutineOptions)(nil)

func NewRobocmdOptions() *RobocmdOptions {
	return &RobocmdOptions{
		Scheduler: options.NewSchedulerOptions(),
		Http:      options.NewHttpOptions(),
		Routine: &RoutineOptions{
			Duration:    6 * time.Second,
			ArmSetpoint: 45,
			ArmGains:    control.Gains{Kp: 0.05, Kd: 0.002},
		},
		Log: log.NewOptions(),
	}
}

func (o *RobocmdOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Scheduler.AddFlags(fss.FlagSet("scheduler"))
	o.Http.AddFlags(fss.FlagSet("http"))
	o.Routine.AddFlags(fss.FlagSet("routine"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *RobocmdOptions) Complete() error {
	return nil
}

func (o *RobocmdOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Scheduler.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Routine.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *RoutineOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Duration <= 0 {
		errors = append(errors, fmt.Errorf("routine.duration must be positive, got %v", o.Duration))
	}
	if o.ArmGains.Kp < 0 || o.ArmGains.Ki < 0 || o.ArmGains.Kd < 0 {
		errors = append(errors, fmt.Errorf("routine.arm-gains must not be negative"))
	}

	return errors
}

func (o *RoutineOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Duration, "routine.duration", o.Duration, "How long the routine runs before shutdown.")
	fs.Float64Var(&o.ArmSetpoint, "routine.arm-setpoint", o.ArmSetpoint, "Arm angle in degrees the PID command drives to.")
	fs.Float64Var(&o.ArmGains.Kp, "routine.arm-gains.kp", o.ArmGains.Kp, "Arm PID proportional gain.")
	fs.Float64Var(&o.ArmGains.Ki, "routine.arm-gains.ki", o.ArmGains.Ki, "Arm PID integral gain.")
	fs.Float64Var(&o.ArmGains.Kd, "routine.arm-gains.kd", o.ArmGains.Kd, "Arm PID derivative gain.")
	fs.Float64Var(&o.ArmGains.Kf, "routine.arm-gains.kf", o.ArmGains.Kf, "Arm PID feed-forward gain.")
}
