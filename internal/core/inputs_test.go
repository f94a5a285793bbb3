// SPDX-License-Identifier: Apache-2.0

package core

import (
	"testing"

	"github.com/automa-saga/automa"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func validExecutionOptions() WorkflowExecutionOptions {
	return WorkflowExecutionOptions{
		ExecutionMode: automa.StopOnError,
		RollbackMode:  automa.RollbackOnError,
	}
}

func TestCommonInputs_Validate(t *testing.T) {
	t.Run("should accept valid execution modes", func(t *testing.T) {
		c := CommonInputs{ExecutionOptions: validExecutionOptions()}
		require.NoError(t, c.Validate())
	})

	t.Run("should reject unknown execution mode", func(t *testing.T) {
		c := CommonInputs{
			ExecutionOptions: WorkflowExecutionOptions{
				ExecutionMode: automa.TypeMode(99),
				RollbackMode:  automa.TypeMode(99),
			},
		}
		require.Error(t, c.Validate())
	})
}

func TestDriverInputs_Validate(t *testing.T) {
	t.Run("should accept all known strategies", func(t *testing.T) {
		for _, s := range AllStrategies() {
			d := DriverInputs{Strategy: s}
			require.NoError(t, d.Validate())
		}
	})

	t.Run("should reject unknown strategy", func(t *testing.T) {
		d := DriverInputs{Strategy: "manual"}
		err := d.Validate()
		require.Error(t, err)
		require.True(t, errorx.IsOfType(err, InvalidStrategy))
	})

	t.Run("should accept a clean absolute source dir", func(t *testing.T) {
		d := DriverInputs{SourceDir: "/usr/src/hp-wmi-omen-1.0"}
		require.NoError(t, d.Validate())
	})

	t.Run("should reject relative source dir", func(t *testing.T) {
		d := DriverInputs{SourceDir: "src/hp-wmi"}
		require.Error(t, d.Validate())
	})

	t.Run("should reject source dir with traversal", func(t *testing.T) {
		d := DriverInputs{SourceDir: "/usr/src/../etc"}
		require.Error(t, d.Validate())
	})

	t.Run("should validate package version", func(t *testing.T) {
		d := DriverInputs{PackageVersion: "1.0"}
		require.NoError(t, d.Validate())

		d = DriverInputs{PackageVersion: "bogus"}
		require.Error(t, d.Validate())
	})
}

func TestUserInputs_Validate(t *testing.T) {
	t.Run("should validate custom inputs via pointer receiver", func(t *testing.T) {
		u := UserInputs[DriverInputs]{
			Common: CommonInputs{ExecutionOptions: validExecutionOptions()},
			Custom: DriverInputs{Strategy: "manual"},
		}
		require.Error(t, u.Validate())

		u.Custom.Strategy = StrategyAuto
		require.NoError(t, u.Validate())
	})
}
