// SPDX-License-Identifier: Apache-2.0

package core

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("omenfan")

	// MissingTool indicates a required external tool or package is not
	// available on the system.
	MissingTool = ErrorsNamespace.NewType("missing_tool", errorx.NotFound())

	// NoBackupToRestore indicates a restore was requested but no backed up
	// stock module file exists anywhere under the live module roots.
	NoBackupToRestore = ErrorsNamespace.NewType("no_backup_to_restore", errorx.NotFound())

	// InvalidStrategy indicates an unrecognized install strategy value.
	InvalidStrategy = ErrorsNamespace.NewType("invalid_strategy")
)
