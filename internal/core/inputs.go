// SPDX-License-Identifier: Apache-2.0

package core

import (
	"github.com/automa-saga/automa"
	"github.com/joomcode/errorx"

	"github.com/arfelious/omen-fan-control/pkg/sanity"
)

// Install strategies for the patched driver.
const (
	StrategyAuto  = "auto"
	StrategyDkms  = "dkms"
	StrategyHooks = "hooks"
)

func AllStrategies() []string {
	return []string{StrategyAuto, StrategyDkms, StrategyHooks}
}

func AllExecutionModes() []automa.TypeMode {
	return []automa.TypeMode{
		automa.StopOnError,
		automa.ContinueOnError,
		automa.RollbackOnError,
	}
}

type UserInputs[T any] struct {
	Common CommonInputs
	Custom T
}

// WorkflowExecutionOptions defines how the workflow engine reacts to step failures.
type WorkflowExecutionOptions struct {
	ExecutionMode automa.TypeMode
	RollbackMode  automa.TypeMode
}

type CommonInputs struct {
	Force            bool
	ExecutionOptions WorkflowExecutionOptions
}

// DriverInputs carries user choices for driver install/restore/reload.
type DriverInputs struct {
	Strategy       string
	SourceDir      string
	PackageVersion string
}

// Validate validates all user inputs fields to ensure they are safe and secure.
func (u *UserInputs[T]) Validate() error {

	if err := u.Common.Validate(); err != nil {
		return err
	}

	// Try value receiver first, then pointer receiver (covers both method sets)
	if validator, ok := any(u.Custom).(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	if validator, ok := any(&u.Custom).(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate validates all common inputs fields to ensure they are safe and secure.
func (c *CommonInputs) Validate() error {
	modes := AllExecutionModes()
	if sanity.Contains[automa.TypeMode](c.ExecutionOptions.ExecutionMode, modes) == false {
		return errorx.IllegalArgument.New("invalid execution mode: %s", c.ExecutionOptions.ExecutionMode)
	}
	if sanity.Contains[automa.TypeMode](c.ExecutionOptions.RollbackMode, modes) == false {
		return errorx.IllegalArgument.New("invalid rollback mode: %s", c.ExecutionOptions.RollbackMode)
	}

	return nil
}

// Validate validates all driver inputs fields to ensure they are safe and secure.
func (d *DriverInputs) Validate() error {
	if d.Strategy != "" {
		if sanity.Contains(d.Strategy, AllStrategies()) == false {
			return InvalidStrategy.New("invalid strategy: %s (expected one of auto, dkms, hooks)", d.Strategy)
		}
	}

	// Validate the source directory path if provided
	if d.SourceDir != "" {
		validated, err := sanity.SanitizePath(d.SourceDir)
		if err != nil {
			return err
		}

		if validated != d.SourceDir {
			return errorx.IllegalArgument.New("source directory is not valid [ input = %s, validated = %s ]",
				d.SourceDir, validated)
		}
	}

	// Validate version if provided (semantic version)
	if d.PackageVersion != "" {
		if err := sanity.ValidateVersion(d.PackageVersion); err != nil {
			return err
		}
	}

	return nil
}
