// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/cmd/omenfan/commands/common"
	"github.com/arfelious/omen-fan-control/internal/workflows"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the patched hp-wmi module",
	Long:  "Build the patched hp-wmi module, back up the stock module and install the replacement via DKMS or kernel update hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := prepareUserInputs(cmd, args)
		if err != nil {
			return err
		}

		logx.As().Debug().
			Any("inputs", inputs).
			Msg("Installing patched hp-wmi module")

		wb, err := workflows.NewDriverInstallWorkflow(*inputs)
		if err != nil {
			return err
		}

		common.RunWorkflow(cmd.Context(), wb)
		logx.As().Info().Msg("Successfully installed patched hp-wmi module")
		return nil
	},
}

func init() {
	common.FlagStrategy.SetVar(installCmd, &flagStrategy, false)
	common.FlagSourceDir.SetVar(installCmd, &flagSourceDir, false)
	common.FlagModuleVersion.SetVar(installCmd, &flagModuleVersion, false)
	common.FlagStopOnError.SetVar(installCmd, &flagStopOnError, false)
	common.FlagRollbackOnError.SetVar(installCmd, &flagRollbackOnError, false)
	common.FlagContinueOnError.SetVar(installCmd, &flagContinueOnError, false)
}
