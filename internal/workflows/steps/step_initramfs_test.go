// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/stretchr/testify/require"

	"github.com/arfelious/omen-fan-control/pkg/initramfs"
)

func TestRefreshInitramfsStep(t *testing.T) {
	t.Run("should succeed when a generator runs", func(t *testing.T) {
		r := initramfs.NewRefresher(
			initramfs.WithLookPath(func(file string) (string, error) {
				if file == "dracut" {
					return "/usr/bin/dracut", nil
				}
				return "", errors.New("not found")
			}),
			initramfs.WithRunner(func(ctx context.Context, tool string, args ...string) (string, error) {
				return "", nil
			}),
		)

		step, err := RefreshInitramfsStep(r).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Equal(t, automa.StatusSuccess, report.Status)
		require.Equal(t, "dracut", report.Metadata[MetaTool])
	})

	t.Run("should be a no-op without a generator", func(t *testing.T) {
		r := initramfs.NewRefresher(
			initramfs.WithLookPath(func(file string) (string, error) {
				return "", errors.New("not found")
			}),
		)

		step, err := RefreshInitramfsStep(r).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Equal(t, automa.StatusSuccess, report.Status)
		require.Equal(t, "no-generator", report.Metadata[MetaOutcome])
	})

	t.Run("should skip with warning when the generator fails", func(t *testing.T) {
		r := initramfs.NewRefresher(
			initramfs.WithLookPath(func(file string) (string, error) {
				if file == "update-initramfs" {
					return "/usr/sbin/update-initramfs", nil
				}
				return "", errors.New("not found")
			}),
			initramfs.WithRunner(func(ctx context.Context, tool string, args ...string) (string, error) {
				return "", errors.New("exit status 1")
			}),
		)

		step, err := RefreshInitramfsStep(r).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Equal(t, automa.StatusSkipped, report.Status)
		require.NoError(t, report.Error)
	})
}
