// SPDX-License-Identifier: Apache-2.0

package service

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

	serviceCmd = &cobra.Command{
		Use:   "service",
		Short: "Manage the fan control systemd service",
		Long:  "Install or remove the systemd unit that runs the fan control daemon",
		RunE:  common.DefaultRunE, // ensure we have a default action to make it runnable
	}
)

func init() {
	serviceCmd.AddCommand(installCmd, removeCmd)
}

func GetCmd() *cobra.Command {
	return serviceCmd
}

// prepareUserInputs prepares and validates user inputs from command flags.
func prepareUserInputs(cmd *cobra.Command, args []string) (*core.UserInputs[core.DriverInputs], error) {
	execMode, err := common.GetExecutionMode(flagContinueOnError, flagStopOnError, flagRollbackOnError)
	if err != nil {
		return nil, errorx.Decorate(err, "failed to determine execution mode")
	}
	execOpts := workflows.DefaultWorkflowExecutionOptions()
	execOpts.ExecutionMode = execMode

	inputs := &core.UserInputs[core.DriverInputs]{
		Common: core.CommonInputs{
			ExecutionOptions: *execOpts,
		},
	}

	if err := inputs.Validate(); err != nil {
		return nil, errorx.IllegalArgument.Wrap(err, "invalid user inputs")
	}

	return inputs, nil
}
