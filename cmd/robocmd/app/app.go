package app

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/component-base/cli/globalflag"

	"github.com/autopeer-io/robocmd/cmd/robocmd/app/options"
	"github.com/autopeer-io/robocmd/pkg/log"
)

const (
	commandName = "robocmd"
	commandDesc = `robocmd runs a command-based control loop against a simulated robot.
Commands claim subsystems, are polled once per control period and are
preempted, rejected or timed out according to their requirements.`
)

func NewRobocmdCommand(ctx context.Context) *cobra.Command {
	opts := options.NewRobocmdOptions()
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:          commandName,
		Short:        "Run and inspect command-based robot routines",
		Long:         commandDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v, cmd.Flags(), configFile, opts); err != nil {
				return err
			}
			if err := opts.Complete(); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			log.Init(opts.Log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file; flags override its values.")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	fs := cmd.PersistentFlags()
	namedfs := opts.Flags()
	globalflag.AddGlobalFlags(namedfs.FlagSet("global"), cmd.Name())
	for _, f := range namedfs.FlagSets {
		fs.AddFlagSet(f)
	}

	cmd.AddCommand(newRunCommand(ctx, opts, v), newListCommand(opts))
	return cmd
}

// loadConfig merges the config file, if any, under the parsed flags and
// decodes the result into opts.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet, configFile string, opts *options.RobocmdOptions) error {
	v.SetEnvPrefix("ROBOCMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// watchConfig applies log level changes from the config file while running.
func watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		level := v.GetString("log.level")
		if err := log.SetLevel(level); err != nil {
			log.Error(err, "Ignoring config change", "file", e.Name)
			return
		}
		log.Info("Applied config change", "file", e.Name, "log.level", level)
	})
	v.WatchConfig()
}
