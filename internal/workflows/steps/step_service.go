// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	_ "embed"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/systemd"
)

//go:embed omen-fan-control.service
var serviceUnitContent []byte

// InstallServiceStep writes the fan-control unit file, reloads the systemd
// daemon and enables and starts the unit. Rollback stops, disables and
// removes the unit again if this step installed it.
func InstallServiceStep(mgr *systemd.Manager) automa.Builder {
	var installedByThisStep bool

	return automa.NewStepBuilder().WithId("install-service-unit").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := mgr.InstallUnit(serviceUnitContent); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			installedByThisStep = true

			if err := mgr.DaemonReload(ctx); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if err := mgr.Enable(ctx); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if err := mgr.Start(ctx); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Str("unit", mgr.UnitPath()).Msg("Service installed and started")
			return automa.SuccessReport(stp)
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if installedByThisStep {
				// best effort teardown, mirror of the execute order
				_ = mgr.Stop(ctx)
				_ = mgr.Disable(ctx)
				if err := mgr.RemoveUnit(); err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}
				_ = mgr.DaemonReload(ctx)
			}
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Installing service unit")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Service installation failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Service installation completed")
		})
}

// RemoveServiceStep stops and disables the unit, removes the unit file and
// reloads the systemd daemon. Stop and disable are best effort so removal
// works for a unit that was never started.
func RemoveServiceStep(mgr *systemd.Manager) automa.Builder {
	return automa.NewStepBuilder().WithId("remove-service-unit").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := mgr.Stop(ctx); err != nil {
				logx.As().Warn().Err(err).Msg("Failed to stop service, continuing removal")
			}
			if err := mgr.Disable(ctx); err != nil {
				logx.As().Warn().Err(err).Msg("Failed to disable service, continuing removal")
			}

			if err := mgr.RemoveUnit(); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if err := mgr.DaemonReload(ctx); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Str("unit", mgr.UnitPath()).Msg("Service removed")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Removing service unit")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Service removal failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Service removal completed")
		})
}
