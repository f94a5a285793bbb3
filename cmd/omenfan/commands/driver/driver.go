// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/common"
	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/workflows"
)

var (
	flagStopOnError     bool
	flagRollbackOnError bool
	flagContinueOnError bool

	flagForce         bool
	flagStrategy      string
	flagSourceDir     string
	flagModuleVersion string

	driverCmd = &cobra.Command{
		Use:   "driver",
		Short: "Manage the patched hp-wmi kernel module",
		Long:  "Build, install, reload and restore the patched hp-wmi kernel module",
		RunE:  common.DefaultRunE, // ensure we have a default action to make it runnable
	}
)

func init() {
	common.FlagForce.SetVarP(driverCmd, &flagForce, false)

	driverCmd.AddCommand(installCmd, restoreCmd, reloadCmd)
}

func GetCmd() *cobra.Command {
	return driverCmd
}

// prepareUserInputs prepares and validates user inputs from command flags.
func prepareUserInputs(cmd *cobra.Command, args []string) (*core.UserInputs[core.DriverInputs], error) {
	var err error

	flagForce, err = common.FlagForce.Value(cmd, args)
	if err != nil {
		return nil, errorx.IllegalArgument.Wrap(err, "failed to get force flag")
	}

	// Determine execution mode based on flags
	execMode, err := common.GetExecutionMode(flagContinueOnError, flagStopOnError, flagRollbackOnError)
	if err != nil {
		return nil, errorx.Decorate(err, "failed to determine execution mode")
	}
	execOpts := workflows.DefaultWorkflowExecutionOptions()
	execOpts.ExecutionMode = execMode

	inputs := &core.UserInputs[core.DriverInputs]{
		Common: core.CommonInputs{
			Force:            flagForce,
			ExecutionOptions: *execOpts,
		},
		Custom: core.DriverInputs{
			Strategy:       flagStrategy,
			SourceDir:      flagSourceDir,
			PackageVersion: flagModuleVersion,
		},
	}

	if err := inputs.Validate(); err != nil {
		return nil, errorx.IllegalArgument.Wrap(err, "invalid user inputs")
	}

	return inputs, nil
}
