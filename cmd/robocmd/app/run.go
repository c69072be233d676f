package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/robocmd/cmd/robocmd/app/options"
	"github.com/autopeer-io/robocmd/internal/robot"
	"github.com/autopeer-io/robocmd/internal/server/http"
	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/control"
	"github.com/autopeer-io/robocmd/pkg/executor"
	"github.com/autopeer-io/robocmd/pkg/log"
)

func newRunCommand(ctx context.Context, opts *options.RobocmdOptions, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the autonomous routine against the simulated robot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			watchConfig(v)
			return run(ctx, opts)
		},
	}
}

func run(ctx context.Context, opts *options.RobocmdOptions) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var registerer prometheus.Registerer
	if opts.Scheduler.Metrics {
		registerer = reg
	}

	sched := command.NewScheduler(command.WithRegisterer(registerer))
	r := robot.New()

	arm, err := newArmPID(r, opts)
	if err != nil {
		return fmt.Errorf("failed to create arm controller: %w", err)
	}
	steps, err := buildRoutine(r, arm, opts)
	if err != nil {
		return fmt.Errorf("failed to build routine: %w", err)
	}

	outcomes := map[command.Outcome]int{}
	exec, err := executor.New(sched,
		executor.WithPeriod(opts.Scheduler.Period),
		executor.WithRegisterer(registerer),
		executor.WithResultHandler(func(res command.Result) { outcomes[res.Outcome]++ }),
	)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Routine.Duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if opts.Http.Enabled {
		srv := http.NewServer(opts.Http, sched, reg)
		srv.HandleJSON("/robot", func() any { return r.State() })
		srv.HandleJSON("/controllers", func() any { return []control.Status{arm.Status()} })
		srv.SetReady(true)
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	g.Go(func() error {
		return exec.Run(ctx)
	})
	g.Go(func() error {
		return feed(ctx, clock.RealClock{}, sched, steps)
	})

	log.Info("Routine running", "steps", len(steps), "duration", opts.Routine.Duration)
	if err := g.Wait(); err != nil {
		return err
	}

	logOutcomes(outcomes, r.State())
	return nil
}

// feed submits every step once its offset from the start has elapsed.
func feed(ctx context.Context, clk clock.Clock, sched *command.Scheduler, steps []step) error {
	start := clk.Now()
	for _, s := range steps {
		if wait := s.At - clk.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-clk.After(wait):
			}
		}

		if err := sched.Submit(s.Command); err != nil {
			if errors.Is(err, command.ErrSchedulerClosed) {
				return nil
			}
			return fmt.Errorf("failed to submit %s: %w", s.Name, err)
		}
		log.Debug("Submitted command", "step", s.Name, "at", s.At)
	}
	return nil
}

func logOutcomes(outcomes map[command.Outcome]int, state robot.State) {
	keys := make([]string, 0, len(outcomes))
	for o := range outcomes {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys)+4)
	for _, k := range keys {
		kv = append(kv, k, outcomes[command.Outcome(k)])
	}
	kv = append(kv, "distance", state.Distance, "armAngle", state.ArmAngle)
	log.Info("Routine finished", kv...)
}
