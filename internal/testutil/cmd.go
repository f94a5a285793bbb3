// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
)

// PrepareSubCmdForTest creates a root command with the given subcommand added.
// Use this from tests in other packages to avoid duplicating the helper.
func PrepareSubCmdForTest(sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "root"}
	root.AddCommand(sub)
	return root
}

// ExecuteCommand runs a cobra command with the given args and returns its
// combined output.
func ExecuteCommand(ctx context.Context, cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}
