package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SchedulerOptions)(nil)

// SchedulerOptions configures the control loop.
type SchedulerOptions struct {
	// Period is the time between two scheduler steps.
	Period time.Duration `json:"period" mapstructure:"period"`

	// Metrics registers the scheduler and executor metrics.
	Metrics bool `json:"metrics" mapstructure:"metrics"`
}

func NewSchedulerOptions() *SchedulerOptions {
	return &SchedulerOptions{
		Period:  20 * time.Millisecond,
		Metrics: true,
	}
}

func (o *SchedulerOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Period <= 0 {
		errors = append(errors, fmt.Errorf("scheduler.period must be positive, got %v", o.Period))
	}

	return errors
}

func (o *SchedulerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Period, "scheduler.period", o.Period, "Control period between two scheduler steps.")
	fs.BoolVar(&o.Metrics, "scheduler.metrics", o.Metrics, "Record scheduler and executor metrics.")
}
