// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/common"
	"github.com/arfelious/omen-fan-control/internal/workflows"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the stock hp-wmi module",
	Long:  "Remove the patched module, its DKMS registration and kernel update hooks, then restore the stock hp-wmi module from backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := prepareUserInputs(cmd, args)
		if err != nil {
			return err
		}

		wb, err := workflows.NewDriverRestoreWorkflow(*inputs)
		if err != nil {
			return err
		}

		common.RunWorkflow(cmd.Context(), wb)
		logx.As().Info().Msg("Successfully restored stock hp-wmi module")
		return nil
	},
}

func init() {
	common.FlagStopOnError.SetVar(restoreCmd, &flagStopOnError, false)
	common.FlagRollbackOnError.SetVar(restoreCmd, &flagRollbackOnError, false)
	common.FlagContinueOnError.SetVar(restoreCmd, &flagContinueOnError, false)
}
