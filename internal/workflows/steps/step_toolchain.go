// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/bluet/syspkg"
	"github.com/joomcode/errorx"

	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/doctor"
	"github.com/arfelious/omen-fan-control/internal/workflows/notify"
	"github.com/arfelious/omen-fan-control/pkg/distro"
	"github.com/arfelious/omen-fan-control/pkg/software"
)

// overridable in tests
var (
	lookPath = exec.LookPath
	statPath = os.Stat
)

func buildToolsHint(family distro.Family) string {
	switch family {
	case distro.FamilyDebian:
		return "Install the build toolchain: sudo apt install build-essential"
	case distro.FamilyArch:
		return "Install the build toolchain: sudo pacman -S base-devel"
	case distro.FamilyFedora:
		return "Install the build toolchain: sudo dnf install make gcc"
	default:
		return "Install make and a C compiler toolchain for your distribution"
	}
}

func kernelHeadersHint(family distro.Family) string {
	switch family {
	case distro.FamilyDebian:
		return "Install kernel headers: sudo apt install linux-headers-$(uname -r)"
	case distro.FamilyArch:
		return "Install kernel headers: sudo pacman -S linux-headers"
	case distro.FamilyFedora:
		return "Install kernel headers: sudo dnf install kernel-devel"
	default:
		return "Install the kernel headers matching the running kernel"
	}
}

// CheckBuildToolsStep verifies that make is available on PATH.
func CheckBuildToolsStep(family distro.Family) automa.Builder {
	return automa.NewStepBuilder().WithId("check-build-tools").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if _, err := lookPath("make"); err != nil {
				return automa.FailureReport(stp,
					automa.WithError(
						core.MissingTool.Wrap(err, "make is not installed").
							WithProperty(doctor.ErrPropertyResolution, buildToolsHint(family))))
			}

			logx.As().Info().Msg("Build tools validated")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking build tools")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Build tools check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Build tools check completed")
		})
}

// CheckKernelHeadersStep verifies the kernel build tree for the running
// kernel exists. Module compilation is impossible without it.
func CheckKernelHeadersStep(family distro.Family, kernelRelease string) automa.Builder {
	return automa.NewStepBuilder().WithId("check-kernel-headers").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			buildDir := core.KernelBuildDir(kernelRelease)
			if _, err := statPath(buildDir); err != nil {
				return automa.FailureReport(stp,
					automa.WithError(
						core.MissingTool.Wrap(err, "kernel build tree not found: %s", buildDir).
							WithProperty(doctor.ErrPropertyResolution, kernelHeadersHint(family))))
			}

			logx.As().Info().Str("build_dir", buildDir).Msg("Kernel headers validated")
			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Checking kernel headers for %s", kernelRelease)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Kernel headers check failed")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Kernel headers check completed")
		})
}

// EnsureSystemPackageStep installs a system package if it is not already
// present. If the package was installed by this step, rollback removes it
// again.
func EnsureSystemPackageStep(name string) automa.Builder {
	var installedByThisStep bool
	stepId := fmt.Sprintf("ensure-package-%s", name)

	newInstaller := func() (*software.PackageInstaller, error) {
		return software.NewPackageInstaller(software.WithPackageName(name))
	}

	return automa.NewStepBuilder().
		WithId(stepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			pkg, err := newInstaller()
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			var info *syspkg.PackageInfo
			if !pkg.IsInstalled() {
				logx.As().Debug().Msgf("Installing %s...", pkg.Name())

				info, err = pkg.Install()
				if err != nil {
					return automa.FailureReport(stp, automa.WithError(
						core.MissingTool.Wrap(err, "failed to install package %q", name)))
				}

				logx.As().Info().
					Str("name", info.Name).
					Str("version", info.Version).
					Str("status", string(info.Status)).
					Msgf("Package %q is installed by this step successfully", pkg.Name())
				installedByThisStep = true
			} else {
				info, err = pkg.Info()
				if err != nil {
					return automa.FailureReport(stp,
						automa.WithError(errorx.IllegalState.Wrap(err, "failed to get package info")))
				}

				logx.As().Info().Msgf("Package %q is already installed, skipping installation", pkg.Name())
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"packageName":    info.Name,
				"packageVersion": info.Version,
				"packageStatus":  string(info.Status),
			}))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			pkg, err := newInstaller()
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			if pkg.IsInstalled() && installedByThisStep {
				// Only uninstall if it was installed in this step
				logx.As().Debug().Msgf("Uninstalling %s...", pkg.Name())
				info, err := pkg.Uninstall()
				if err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}

				logx.As().Info().
					Str("name", info.Name).
					Str("version", info.Version).
					Msgf("Package %q is uninstalled successfully", pkg.Name())
			} else {
				logx.As().Info().Msgf("Package %q is not installed by this step, skipping uninstallation", pkg.Name())
			}

			return automa.SuccessReport(stp)
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Ensuring package %q is installed", name)
			return ctx, nil
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, report *automa.Report) {
			notify.As().StepCompletion(ctx, stp, report,
				"Package %q check completed successfully", name)
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, report *automa.Report) {
			notify.As().StepFailure(ctx, stp, report,
				"Package %q check failed", name)
		})
}
