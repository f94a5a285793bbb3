// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

// ReloadModuleStep refreshes module dependencies and swaps the running
// module for the newly installed build. A module that is busy (held by a
// dependent module or an open device) is skipped with a warning; the new
// build takes effect on the next boot.
func ReloadModuleStep(reloader kmod.ModuleReloader, moduleName string) automa.Builder {
	return automa.NewStepBuilder().WithId("reload-module").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			outcome, err := reloader.Reload(ctx, moduleName)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if outcome == kmod.OutcomeSkippedBusy {
				logx.As().Warn().
					Str("module", moduleName).
					Msg("Module is busy and was not reloaded; the new build takes effect after a reboot")
				return automa.SkippedReport(stp,
					automa.WithDetail(fmt.Sprintf("module %q is busy, reload skipped", moduleName)),
					automa.WithMetadata(map[string]string{
						MetaOutcome: string(kmod.OutcomeSkippedBusy),
					}))
			}

			logx.As().Info().Str("module", moduleName).Msg("Module reloaded")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaOutcome: string(outcome),
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Reloading module %q", moduleName)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Module reload failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Module reload step completed")
		})
}
