// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/dkms"
)

// RemoveDkmsRegistrationStep removes any stale registration of the module
// from the DKMS registry. An unregistered module is a no-op.
func RemoveDkmsRegistrationStep(installer *dkms.Installer, name string, version string) automa.Builder {
	return automa.NewStepBuilder().WithId("remove-dkms-registration").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := installer.Remove(ctx, name, version); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Str("module", name+"/"+version).Msg("DKMS registration removed")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Removing stale DKMS registration for %s/%s", name, version)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "DKMS registration removal failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "DKMS registration removal completed")
		})
}

// StageDkmsSourceStep copies the module sources into the DKMS source root
// and renders dkms.conf. Rollback unstages if this step staged.
func StageDkmsSourceStep(installer *dkms.Installer, sourceTree string, name string, version string) automa.Builder {
	var stagedByThisStep bool

	return automa.NewStepBuilder().WithId("stage-dkms-source").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			dest, err := installer.Stage(sourceTree, name, version)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			stagedByThisStep = true
			logx.As().Info().Str("dest", dest).Msg("DKMS source staged")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"stagedTo": dest,
			}))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if stagedByThisStep {
				if err := installer.Unstage(name, version); err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}
				logx.As().Info().Msg("DKMS source unstaged")
			}
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Staging module sources for DKMS")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "DKMS source staging failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "DKMS source staging completed")
		})
}

// RegisterDkmsModuleStep runs dkms add, build and install in order. On
// failure the registry is deliberately left at the stage reached, so the
// operator can inspect and resume with plain dkms commands. There is no
// rollback here for the same reason.
func RegisterDkmsModuleStep(installer *dkms.Installer, name string, version string) automa.Builder {
	return automa.NewStepBuilder().WithId("register-dkms-module").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := installer.Register(ctx, name, version); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Str("module", name+"/"+version).Msg("Module registered with DKMS")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Registering %s/%s with DKMS", name, version)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "DKMS registration failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "DKMS registration completed")
		})
}

// UnstageDkmsSourceStep removes the staged sources from the DKMS source root.
func UnstageDkmsSourceStep(installer *dkms.Installer, name string, version string) automa.Builder {
	return automa.NewStepBuilder().WithId("unstage-dkms-source").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := installer.Unstage(name, version); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Str("module", name+"/"+version).Msg("DKMS source unstaged")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Removing staged DKMS sources for %s/%s", name, version)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "DKMS source removal failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "DKMS source removal completed")
		})
}
