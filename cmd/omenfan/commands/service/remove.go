// SPDX-License-Identifier: Apache-2.0

package service

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/common"
	"github.com/arfelious/omen-fan-control/internal/workflows"
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the fan control service",
	Long:  "Stop and disable the service, then remove its systemd unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := prepareUserInputs(cmd, args)
		if err != nil {
			return err
		}

		wb, err := workflows.NewServiceRemoveWorkflow(*inputs)
		if err != nil {
			return err
		}

		common.RunWorkflow(cmd.Context(), wb)
		logx.As().Info().Msg("Successfully removed fan control service")
		return nil
	},
}

func init() {
	common.FlagStopOnError.SetVar(removeCmd, &flagStopOnError, false)
	common.FlagRollbackOnError.SetVar(removeCmd, &flagRollbackOnError, false)
	common.FlagContinueOnError.SetVar(removeCmd, &flagContinueOnError, false)
}
