// SPDX-License-Identifier: Apache-2.0

package service

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/common"
	"github.com/arfelious/omen-fan-control/internal/workflows"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the fan control service",
	Long:  "Install the systemd unit, reload the daemon, enable and start the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := prepareUserInputs(cmd, args)
		if err != nil {
			return err
		}

		wb, err := workflows.NewServiceInstallWorkflow(*inputs)
		if err != nil {
			return err
		}

		common.RunWorkflow(cmd.Context(), wb)
		logx.As().Info().Msg("Successfully installed fan control service")
		return nil
	},
}

func init() {
	common.FlagStopOnError.SetVar(installCmd, &flagStopOnError, false)
	common.FlagRollbackOnError.SetVar(installCmd, &flagRollbackOnError, false)
	common.FlagContinueOnError.SetVar(installCmd, &flagContinueOnError, false)
}
