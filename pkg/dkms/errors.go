// SPDX-License-Identifier: Apache-2.0

package dkms

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("dkms")

	// StageError indicates a dkms registration stage (add, build or install)
	// failed. The failing stage is attached via ErrPropertyStage; the
	// registration is left frozen at that stage for inspection.
	StageError = ErrorsNamespace.NewType("registry_stage_failed")
	// StagingError indicates the module source could not be placed under the
	// dkms source root.
	StagingError = ErrorsNamespace.NewType("source_staging_failed")

	// ErrPropertyStage carries the name of the failed registration stage.
	ErrPropertyStage = errorx.RegisterPrintableProperty("stage")
)
