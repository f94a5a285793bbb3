// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/initramfs"
)

// RefreshInitramfsStep regenerates the initramfs so an early-loaded copy of
// the module does not shadow the new build. A system without an initramfs
// generator is a no-op; a failing generator is a warning, never fatal.
func RefreshInitramfsStep(refresher *initramfs.Refresher) automa.Builder {
	return automa.NewStepBuilder().WithId("refresh-initramfs").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			tool, err := refresher.Refresh(ctx)
			if err != nil {
				logx.As().Warn().Err(err).
					Str("tool", tool).
					Msg("Initramfs refresh failed; the stale module may still load from the initramfs at boot")
				return automa.SkippedReport(stp,
					automa.WithDetail(fmt.Sprintf("initramfs refresh via %q failed: %v", tool, err)),
					automa.WithMetadata(map[string]string{
						MetaTool:      tool,
						MetaSkippedBy: "generator-failed",
					}))
			}

			if tool == "" {
				logx.As().Info().Msg("No initramfs generator found, skipping refresh")
				return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
					MetaOutcome: "no-generator",
				}))
			}

			logx.As().Info().Str("tool", tool).Msg("Initramfs refreshed")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaTool: tool,
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Refreshing initramfs")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Initramfs refresh failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Initramfs refresh step completed")
		})
}
