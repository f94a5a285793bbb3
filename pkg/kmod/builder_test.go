// SPDX-License-Identifier: Apache-2.0

package kmod

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func TestMakeBuilder_Build(t *testing.T) {
	ctx := context.Background()

	t.Run("returns artifact path on success", func(t *testing.T) {
		srcDir := t.TempDir()
		artifact := filepath.Join(srcDir, "hp-wmi.ko")

		var gotDir string
		var gotArgs []string
		b := NewMakeBuilder("hp-wmi.ko", WithBuilderRunner(
			func(ctx context.Context, dir string, name string, args ...string) (string, error) {
				gotDir = dir
				gotArgs = append([]string{name}, args...)
				return "", os.WriteFile(artifact, []byte("elf"), 0o644)
			}))

		path, err := b.Build(ctx, srcDir, "6.8.0-41-generic")
		require.NoError(t, err)
		require.Equal(t, artifact, path)
		require.Equal(t, srcDir, gotDir)
		require.Equal(t, []string{
			"make", "-C", "/lib/modules/6.8.0-41-generic/build", "M=" + srcDir, "modules",
		}, gotArgs)
	})

	t.Run("non-zero exit is a build failure", func(t *testing.T) {
		b := NewMakeBuilder("hp-wmi.ko", WithBuilderRunner(
			func(ctx context.Context, dir string, name string, args ...string) (string, error) {
				return "cc1: error: something broke", errors.New("exit status 2")
			}))

		_, err := b.Build(ctx, t.TempDir(), "6.8.0-41-generic")
		require.Error(t, err)
		require.True(t, errorx.IsOfType(err, BuildError))
	})

	t.Run("missing artifact after clean exit is a build failure", func(t *testing.T) {
		b := NewMakeBuilder("hp-wmi.ko", WithBuilderRunner(
			func(ctx context.Context, dir string, name string, args ...string) (string, error) {
				return "", nil
			}))

		_, err := b.Build(ctx, t.TempDir(), "6.8.0-41-generic")
		require.Error(t, err)
		require.True(t, errorx.IsOfType(err, BuildError))
	})
}

func TestTail(t *testing.T) {
	require.Equal(t, "c\nd", tail("a\nb\nc\nd", 2))
	require.Equal(t, "a\nb", tail("a\nb\n", 5))
}
