// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"testing"

	"github.com/automa-saga/automa"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/pkg/exit"
	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

func TestToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want exit.Code
	}{
		{
			name: "missing tool",
			err:  core.MissingTool.New("dkms is not installed"),
			want: exit.MissingDependency,
		},
		{
			name: "build failure",
			err:  kmod.BuildError.New("make exited with status 2"),
			want: exit.BuildFailure,
		},
		{
			name: "nothing to restore",
			err:  core.NoBackupToRestore.New("no backup found"),
			want: exit.NothingToRestore,
		},
		{
			name: "invalid strategy",
			err:  core.InvalidStrategy.New("invalid strategy: manual"),
			want: exit.UsageError,
		},
		{
			name: "illegal argument",
			err:  errorx.IllegalArgument.New("missing flag"),
			want: exit.UsageError,
		},
		{
			name: "wrapped build failure",
			err:  kmod.BuildError.Wrap(errorx.ExternalError.New("boom"), "module build failed"),
			want: exit.BuildFailure,
		},
		{
			name: "unclassified",
			err:  errorx.InternalError.New("boom"),
			want: exit.GeneralError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, toExitCode(tc.err))
		})
	}
}

func TestFindResolution(t *testing.T) {
	t.Run("should prefer resolution property", func(t *testing.T) {
		err := core.MissingTool.New("dkms is not installed").
			WithProperty(ErrPropertyResolution, "Install dkms via your package manager.")

		steps := findResolution(err)
		require.Len(t, steps, 1)
		assert.Equal(t, "Install dkms via your package manager.", steps[0])
	})

	t.Run("should fall back to type based advice", func(t *testing.T) {
		steps := findResolution(kmod.BuildError.New("make failed"))
		require.NotEmpty(t, steps)
		assert.Contains(t, steps[1], "kernel headers")
	})
}

func TestGetInstructionsFromReport(t *testing.T) {
	t.Run("should find nested instructions", func(t *testing.T) {
		report := &automa.Report{
			Metadata: map[string]string{},
			StepReports: []*automa.Report{
				{Metadata: map[string]string{"instructions": "run with sudo"}},
			},
		}
		assert.Equal(t, "run with sudo", GetInstructionsFromReport(report))
	})

	t.Run("should return empty when absent", func(t *testing.T) {
		assert.Equal(t, "", GetInstructionsFromReport(&automa.Report{}))
		assert.Equal(t, "", GetInstructionsFromReport(nil))
	})
}
