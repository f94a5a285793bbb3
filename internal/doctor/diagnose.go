package doctor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"

	"github.com/arfelious/omen-fan-control/internal/config"
	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/version"
	"github.com/arfelious/omen-fan-control/pkg/exit"
	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

type ErrorDiagnosis struct {
	Error      error    `yaml:"error" json:"error"`
	Message    string   `yaml:"message" json:"message"`
	Cause      string   `yaml:"cause" json:"cause"`
	ErrorType  string   `yaml:"errorType" json:"errorType"`
	TraceId    string   `yaml:"traceId" json:"traceId"`
	Commit     string   `yaml:"commit" json:"commit"`
	Version    string   `yaml:"version" json:"version"`
	Pid        int      `yaml:"pid" json:"pid"`
	Code       int      `yaml:"code" json:"code"`
	Logfile    string   `yaml:"log" json:"log"`
	StackTrace string   `yaml:"stackTrace" json:"stackTrace"`
	Resolution []string `yaml:"steps" json:"steps"`
}

// toExitCode maps an error to the process exit code contract. Distinct codes
// let scripted callers tell a missing toolchain, a failed module build and a
// restore with nothing to restore apart.
func toExitCode(err error) exit.Code {
	switch {
	case errorx.IsOfType(err, core.MissingTool):
		return exit.MissingDependency
	case errorx.IsOfType(err, kmod.BuildError):
		return exit.BuildFailure
	case errorx.IsOfType(err, core.NoBackupToRestore):
		return exit.NothingToRestore
	case errorx.IsOfType(err, core.InvalidStrategy),
		errorx.IsOfType(err, errorx.IllegalArgument):
		return exit.UsageError
	case errorx.IsOfType(err, config.NotFoundError):
		return exit.ConfigurationError
	default:
		return exit.GeneralError
	}
}

func toErrorMessage(err error) (string, string) {
	e := errorx.Cast(err)
	if e == nil {
		return err.Error(), ""
	}

	return e.Message(), fmt.Sprintf("%s", e.Cause())
}

func findResolution(err error) []string {
	// A resolution hint attached at the error site wins over generic advice.
	if hint, ok := errorx.ExtractProperty(err, ErrPropertyResolution); ok {
		if s, ok := hint.(string); ok && s != "" {
			return strings.Split(s, "\n")
		}
	}

	switch {
	case errorx.IsOfType(err, core.MissingTool):
		return []string{"Install the missing tool or package and retry."}
	case errorx.IsOfType(err, kmod.BuildError):
		return []string{
			"Check the build output above for compiler errors.",
			"Ensure kernel headers matching the running kernel are installed.",
		}
	case errorx.IsOfType(err, core.NoBackupToRestore):
		return []string{"No backed up stock module was found; there is nothing to restore."}
	case errorx.IsOfType(err, errorx.IllegalArgument):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure %q is provided.", arg.(string))}
		}
		return []string{"Ensure all required arguments are provided."}
	case errorx.IsOfType(err, errorx.IllegalFormat):
		return []string{"Ensure provided data is in correct format."}
	case errorx.IsOfType(err, config.NotFoundError):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure configuration file %q exists, is correctly formatted and accessible", arg.(string))}
		}
		return []string{"Ensure configuration file exists and is accessible."}
	default:
		return []string{"Check error message for details or contact support"}
	}
}

// writeStackTraceSnapshot stores the error stack trace under the diagnostics
// directory so a failed run can be inspected after the fact.
func writeStackTraceSnapshot(ex error) string {
	timestamp := time.Now().Format("20060102-150405")

	snapshotDir := path.Join(core.Paths().DiagnosticsDir, timestamp)
	if err := os.MkdirAll(snapshotDir, core.DefaultDirPerm); err != nil {
		log.Printf("failed to create diagnostics directory: %v", err)
		return ""
	}

	stacktraceFile := filepath.Join(snapshotDir, "stacktrace-"+timestamp+".txt")
	f, err := os.Create(stacktraceFile)
	if err != nil {
		log.Printf("failed to create stack trace file: %v", err)
		return ""
	}
	defer f.Close()

	if ex != nil {
		_, _ = fmt.Fprintf(f, "%+v\n", ex)
	} else {
		// Capture current stack trace if no error provided
		buf := make([]byte, 1<<16)
		n := runtime.Stack(buf, true)
		_, _ = f.Write(buf[:n])
	}

	return stacktraceFile
}

// Diagnose attempts to find a resolution and provide a human friendly error response
func Diagnose(ctx context.Context, ex error) *ErrorDiagnosis {
	var traceId string
	if ctx.Value("traceId") == nil {
		traceId = ""
	} else {
		traceId = ctx.Value("traceId").(string)
	}

	msg, cause := toErrorMessage(ex)
	return &ErrorDiagnosis{
		Error:      ex,
		ErrorType:  errorx.GetTypeName(ex),
		Message:    msg,
		Cause:      cause,
		TraceId:    traceId,
		Code:       toExitCode(ex).Int(),
		Commit:     version.Commit(),
		Version:    version.Number(),
		Pid:        os.Getpid(),
		Logfile:    config.Get().Log.Filename,
		StackTrace: writeStackTraceSnapshot(ex),
		Resolution: findResolution(ex),
	}
}

// CheckErr prints diagnosis and exits with the error's mapped exit code.
// Optional instructions can be provided to give additional context to the user
func CheckErr(ctx context.Context, err error, instructions ...string) {

	logx.As().Error().Err(err).Msg("error occurred")
	fmt.Printf("%+v\n", err)
	resp := Diagnose(ctx, err)

	fmt.Printf("\n%s%s************************************** Error Diagnostics ******************************************%s\n", Bold, Red, Reset)
	fmt.Printf("%s*%s\t%sError:%s %s\n", Red, Reset, Bold+White, Reset, resp.Message)
	if resp.Cause != "" {
		fmt.Printf("%s*%s\t%sCause:%s %s\n", Red, Reset, Bold+White, Reset, resp.Cause)
	}
	fmt.Printf("%s*%s\t%sError Type:%s %s\n", Red, Reset, Bold+White, Reset, resp.ErrorType)
	fmt.Printf("%s*%s\t%sExit Code:%s %d\n", Red, Reset, Bold+White, Reset, resp.Code)
	fmt.Printf("%s*%s\t%sCommit:%s %s\n", Red, Reset, Gray, Reset, resp.Commit)
	fmt.Printf("%s*%s\t%sPid:%s %d\n", Red, Reset, Gray, Reset, resp.Pid)
	fmt.Printf("%s*%s\t%sTraceId:%s %s\n", Red, Reset, Gray, Reset, resp.TraceId)
	fmt.Printf("%s*%s\t%sVersion:%s %s\n", Red, Reset, Gray, Reset, resp.Version)
	if resp.Logfile != "" {
		fmt.Printf("%s*%s\t%sLogfile:%s %s\n", Red, Reset, Cyan, Reset, resp.Logfile)
	}
	if resp.StackTrace != "" {
		fmt.Printf("%s*%s\t%sStack Trace:%s %s\n", Red, Reset, Cyan, Reset, resp.StackTrace)
	}
	fmt.Printf("%s%s***************************************************************************************************%s\n", Bold, Red, Reset)
	fmt.Printf("\n%s%s****************************************** Resolution *********************************************%s\n", Bold, Yellow, Reset)

	// Print custom instructions first if provided
	if len(instructions) > 0 && instructions[0] != "" {
		for _, line := range strings.Split(instructions[0], "\n") {
			if line == "" {
				fmt.Printf("%s*%s\n", Yellow, Reset)
			} else {
				fmt.Printf("%s*%s\t%s\n", Yellow, Reset, Bold+White+line+Reset)
			}
		}
		if len(resp.Resolution) > 0 {
			fmt.Printf("%s*%s\n", Yellow, Reset)
		}
	}

	// Print default resolution steps
	for _, r := range resp.Resolution {
		fmt.Printf("%s*%s\t%s\n", Yellow, Reset, White+r+Reset)
	}

	fmt.Printf("%s%s***************************************************************************************************%s\n", Bold, Yellow, Reset)

	exit.Code(resp.Code).TerminateProcess()
}

// CheckReportErr inspects a workflow report and, if it failed, prints the
// diagnosis (including any step-provided instructions) and exits.
func CheckReportErr(ctx context.Context, report *automa.Report) {
	if report == nil || !report.HasError() {
		return
	}

	CheckErr(ctx, report.Error, GetInstructionsFromReport(report))
}

// GetInstructionsFromReport recursively searches for instructions in report metadata.
// Returns the first non-empty instructions found in the report tree, or an empty string if none exist.
func GetInstructionsFromReport(report *automa.Report) string {
	if report == nil {
		return ""
	}

	// Check if this report has instructions
	if instructions, ok := report.Metadata["instructions"]; ok {
		return instructions
	}

	// Recursively check nested step reports
	for _, stepReport := range report.StepReports {
		if instructions := GetInstructionsFromReport(stepReport); instructions != "" {
			return instructions
		}
	}

	return ""
}
