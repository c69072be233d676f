package app

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/robocmd/cmd/robocmd/app/options"
	"github.com/autopeer-io/robocmd/internal/robot"
	"github.com/autopeer-io/robocmd/pkg/command"
)

func newListCommand(opts *options.RobocmdOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the steps of the autonomous routine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := robot.New()
			arm, err := newArmPID(r, opts)
			if err != nil {
				return err
			}
			steps, err := buildRoutine(r, arm, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), routineTable(steps))
			return nil
		},
	}
}

func routineTable(steps []step) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("AT", "STEP", "COMMAND", "TIMEOUT", "REQUIRES", "INTERRUPTIBLE")

	for _, s := range steps {
		info := command.Describe(s.Command)
		timeout := "-"
		if info.TimeoutSeconds > 0 {
			timeout = fmt.Sprintf("%vs", info.TimeoutSeconds)
		}
		requires := "-"
		if len(info.Requirements) > 0 {
			requires = strings.Join(info.Requirements, ",")
		}
		table.AddRow(s.At, s.Name, info.Description, timeout, requires, info.Interruptible)
	}
	return table
}
