// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/common"
	"github.com/arfelious/omen-fan-control/internal/workflows"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the hp-wmi module",
	Long:  "Refresh module dependencies and reload the hp-wmi module in place",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := prepareUserInputs(cmd, args)
		if err != nil {
			return err
		}

		wb, err := workflows.NewDriverReloadWorkflow(*inputs)
		if err != nil {
			return err
		}

		common.RunWorkflow(cmd.Context(), wb)
		logx.As().Info().Msg("Module reload completed")
		return nil
	},
}

func init() {
	common.FlagStopOnError.SetVar(reloadCmd, &flagStopOnError, false)
	common.FlagRollbackOnError.SetVar(reloadCmd, &flagRollbackOnError, false)
	common.FlagContinueOnError.SetVar(reloadCmd, &flagContinueOnError, false)
}
