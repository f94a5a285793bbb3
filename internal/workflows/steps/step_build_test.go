// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"

	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

type fakeBuilder struct {
	artifact string
	err      error
	calls    int
}

func (f *fakeBuilder) Build(ctx context.Context, sourceDir string, kernelRelease string) (string, error) {
	f.calls++
	return f.artifact, f.err
}

func TestBuildModuleStep(t *testing.T) {
	t.Run("should report artifact path on success", func(t *testing.T) {
		fb := &fakeBuilder{artifact: "/src/hp-wmi.ko"}

		step, err := BuildModuleStep(fb, "/src", "6.8.0-41-generic").Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Equal(t, automa.StatusSuccess, report.Status)
		require.Equal(t, "/src/hp-wmi.ko", report.Metadata[MetaArtifact])
		require.Equal(t, 1, fb.calls)
	})

	t.Run("should fail on build error", func(t *testing.T) {
		fb := &fakeBuilder{err: kmod.BuildError.New("make exited with status 2")}

		step, err := BuildModuleStep(fb, "/src", "6.8.0-41-generic").Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Equal(t, automa.StatusFailed, report.Status)
		require.True(t, errorx.IsOfType(report.Error, kmod.BuildError))
	})
}
