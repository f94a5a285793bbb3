// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/backup"
)

// ReconcileBackupsStep moves stock copies of the module artifact aside under
// the given roots. An existing backup is never overwritten, so running this
// step repeatedly preserves the original stock file.
func ReconcileBackupsStep(artifact string, roots []string, exclude string) automa.Builder {
	return automa.NewStepBuilder().WithId("reconcile-module-backups").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			mgr, err := backup.NewManager(
				backup.WithArtifactName(artifact),
				backup.WithLogger(logx.As()),
			)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			report, err := mgr.Reconcile(roots, exclude)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().
				Strs("backed_up", report.BackedUp).
				Strs("skipped", report.Skipped).
				Msg("Stock module backups reconciled")

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaBackedUp: strings.Join(report.BackedUp, ","),
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Reconciling stock module backups for %q", artifact)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Backup reconciliation failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Backup reconciliation completed")
		})
}

// RestoreBackupsStep moves backed up stock module files back into place.
// Finding no backup anywhere is a hard failure: there is nothing to restore.
func RestoreBackupsStep(artifact string, roots []string) automa.Builder {
	return automa.NewStepBuilder().WithId("restore-module-backups").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			mgr, err := backup.NewManager(
				backup.WithArtifactName(artifact),
				backup.WithLogger(logx.As()),
			)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			count, err := mgr.Restore(roots)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if count == 0 {
				return automa.FailureReport(stp, automa.WithError(
					core.NoBackupToRestore.New("no backup of %q found under %v", artifact, roots)))
			}

			logx.As().Info().Int("restored", count).Msg("Stock module files restored")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaRestored: fmt.Sprintf("%d", count),
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Restoring stock module files for %q", artifact)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Stock module restore failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Stock module restore completed")
		})
}
