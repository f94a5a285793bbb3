package commands

import (
	"context"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/driver"
	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/service"
	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/version"
	"github.com/arfelious/omen-fan-control/internal/config"
	"github.com/arfelious/omen-fan-control/internal/doctor"
)

// examples:
// ./omenfan driver install --source /usr/src/hp-wmi-omen
// ./omenfan driver install --strategy hooks --source /usr/src/hp-wmi-omen
// ./omenfan driver restore
// ./omenfan service install

// rootCmd represents the base command when called without any subcommands
var (
	// Used for flags.
	flagConfig       string
	flagVersion      bool
	flagOutputFormat string

	rootCmd = &cobra.Command{
		Use:   "omenfan",
		Short: "Manage the patched hp-wmi driver for HP Omen fan control",
		Long:  "Omen Fan Control - build, install and manage the patched hp-wmi kernel module and its fan control service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagVersion {
				version.PrintVersion(cmd, flagOutputFormat)
				return nil
			}

			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")

	// support '--version', '-v' to show version information
	rootCmd.PersistentFlags().BoolVarP(&flagVersion, "version", "v", false, "Show version")
	rootCmd.PersistentFlags().StringVarP(&flagOutputFormat, "output", "o", "yaml", "Output format (yaml|json)")

	// disable command sorting to keep the order of commands as added
	cobra.EnableCommandSorting = false

	// add subcommands
	rootCmd.AddCommand(driver.GetCmd())
	rootCmd.AddCommand(service.GetCmd())
	rootCmd.AddCommand(version.GetCmd())
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errorx.IllegalArgument.New("context is required")
	}

	cobra.OnInitialize(func() {
		initConfig(ctx)
	})

	// execute the root command
	_, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		return errorx.IllegalState.Wrap(err, "failed to execute command")
	}

	return nil
}

func initConfig(ctx context.Context) {
	var err error
	err = config.Initialize(flagConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	logConfig := config.Get().Log
	err = logx.Initialize(logConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
