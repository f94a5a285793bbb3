// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

// BuildModuleStep compiles the module sources against the running kernel.
// The build is treated as opaque: only the exit status and the presence of
// the artifact decide success.
func BuildModuleStep(builder kmod.Builder, sourceDir string, kernelRelease string) automa.Builder {
	return automa.NewStepBuilder().WithId("build-module").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			artifact, err := builder.Build(ctx, sourceDir, kernelRelease)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			logx.As().Info().Str("artifact", artifact).Msg("Module built successfully")
			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				MetaArtifact: artifact,
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Building module from %s", sourceDir)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Module build failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Module build completed")
		})
}
