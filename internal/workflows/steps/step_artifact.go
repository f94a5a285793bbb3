// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"

	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
)

// InstallModuleArtifactStep copies the built module object into the live
// module tree (the updates directory wins over the stock location at module
// resolution time). Rollback removes the file again if this step placed it.
func InstallModuleArtifactStep(artifactPath string, destDir string) automa.Builder {
	var installedByThisStep bool
	destPath := filepath.Join(destDir, filepath.Base(artifactPath))

	return automa.NewStepBuilder().WithId("install-module-artifact").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := os.MkdirAll(destDir, core.DefaultDirPerm); err != nil {
				return automa.FailureReport(stp,
					automa.WithError(errorx.ExternalError.Wrap(err, "failed to create %s", destDir)))
			}

			src, err := os.Open(artifactPath)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(errorx.ExternalError.Wrap(err, "failed to open built artifact %s", artifactPath)))
			}
			defer src.Close()

			dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, core.DefaultFilePerm)
			if err != nil {
				return automa.FailureReport(stp,
					automa.WithError(errorx.ExternalError.Wrap(err, "failed to create %s", destPath)))
			}
			defer dst.Close()

			if _, err := io.Copy(dst, src); err != nil {
				_ = os.Remove(destPath)
				return automa.FailureReport(stp,
					automa.WithError(errorx.ExternalError.Wrap(err, "failed to copy artifact to %s", destPath)))
			}

			installedByThisStep = true
			logx.As().Info().Str("path", destPath).Msg("Module artifact installed")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaArtifact: destPath,
			}))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if installedByThisStep {
				if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
					return automa.FailureReport(stp,
						automa.WithError(errorx.ExternalError.Wrap(err, "failed to remove %s", destPath)))
				}
				logx.As().Info().Str("path", destPath).Msg("Installed module artifact removed")
			}
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Installing module artifact into %s", destDir)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Module artifact installation failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Module artifact installation completed")
		})
}
