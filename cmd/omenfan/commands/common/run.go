// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/doctor"
	"github.com/arfelious/omen-fan-control/internal/workflows/steps"
	"github.com/arfelious/omen-fan-control/pkg/plock"
)

// RunWorkflow executes a workflow and handles error.
// A process lock guards the run so concurrent invocations cannot race on
// the module tree.
func RunWorkflow(ctx context.Context, b automa.Builder) {
	lock := plock.New(core.AppName, plock.WithLogger(logx.As()))
	if err := lock.Acquire(); err != nil {
		doctor.CheckErr(ctx, err)
	}
	defer func() {
		_ = lock.Release()
	}()

	wb, err := b.Build()
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	report := wb.Execute(ctx)
	CheckWorkflowReport(ctx, report)
}

func CheckWorkflowReport(ctx context.Context, report *automa.Report) {
	if report.Error != nil {
		doctor.CheckReportErr(ctx, report)
	}

	// For each step that failed, run the doctor to diagnose the error
	if len(report.StepReports) > 0 {
		for _, stepReport := range report.StepReports {
			if stepReport.Status == automa.StatusFailed {
				doctor.CheckReportErr(ctx, stepReport)
			}
		}
	}

	timestamp := time.Now().Format("20060102_150405")
	reportPath := path.Join(core.Paths().LogsDir, fmt.Sprintf("setup_report_%s.yaml", timestamp))
	steps.PrintWorkflowReport(report, reportPath)
	logx.As().Info().Str("report_path", reportPath).Msg("Workflow report is saved")
}

// DefaultRunE is a default RunE function that shows help message and provides a placeholder to add common behaviour.
// We always add a run function to commands to ensure cobra marks it as Runnable and allows our commands to invoke
// PersistentPreRunE functions of the root command.
func DefaultRunE(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
