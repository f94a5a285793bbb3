// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/distro"
	"github.com/arfelious/omen-fan-control/pkg/hook"
)

// InstallKernelHookStep installs the distro-specific kernel update hook so
// the patched module is rebuilt after kernel upgrades. An unrecognized
// distro family is a warning, not a failure: the install itself succeeded,
// the module just will not survive the next kernel update automatically.
func InstallKernelHookStep(installer *hook.Installer, family distro.Family) automa.Builder {
	return automa.NewStepBuilder().WithId("install-kernel-hook").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			path, supported, err := installer.Install(family)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if !supported {
				logx.As().Warn().
					Str("family", string(family)).
					Msg("Unknown distro family, no kernel update hook installed; the patched module will need reinstalling after kernel updates")
				return automa.SkippedReport(stp,
					automa.WithDetail(fmt.Sprintf("no hook available for distro family %q", string(family))),
					automa.WithMetadata(map[string]string{
						MetaSkippedBy: "unknown-distro-family",
					}))
			}

			logx.As().Info().Str("path", path).Msg("Kernel update hook installed")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaHookPath: path,
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Installing kernel update hook for %q", string(family))
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Kernel update hook installation failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Kernel update hook step completed")
		})
}

// RemoveKernelHooksStep removes all known hook variants regardless of the
// current distro family, so a restore cleans up hooks installed under a
// previously detected family too.
func RemoveKernelHooksStep(installer *hook.Installer) automa.Builder {
	return automa.NewStepBuilder().WithId("remove-kernel-hooks").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			removed, err := installer.Remove()
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Strs("removed", removed).Msg("Kernel update hooks removed")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"removed": strings.Join(removed, ","),
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Removing kernel update hooks")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Kernel update hook removal failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Kernel update hook removal completed")
		})
}
