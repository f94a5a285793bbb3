// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"path/filepath"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"

	"github.com/arfelious/omen-fan-control/internal/config"
	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/doctor"
	"github.com/arfelious/omen-fan-control/internal/workflows/steps"
	"github.com/arfelious/omen-fan-control/pkg/distro"
	"github.com/arfelious/omen-fan-control/pkg/dkms"
	"github.com/arfelious/omen-fan-control/pkg/hook"
	"github.com/arfelious/omen-fan-control/pkg/initramfs"
	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

// DefaultWorkflowExecutionOptions returns the execution options used when a
// command does not override them.
func DefaultWorkflowExecutionOptions() *core.WorkflowExecutionOptions {
	return &core.WorkflowExecutionOptions{
		ExecutionMode: automa.StopOnError,
		RollbackMode:  automa.StopOnError,
	}
}

// ResolveStrategy decides which install strategy to use.
//
// Precedence:
//  1. forceHooks pins the hooks strategy regardless of anything else.
//  2. An explicit hooks request is honored as-is.
//  3. An explicit dkms request fails when dkms is not installed.
//  4. auto picks dkms when available, hooks otherwise.
func ResolveStrategy(requested string, forceHooks bool, dkmsAvailable bool) (string, error) {
	if forceHooks {
		return core.StrategyHooks, nil
	}

	switch requested {
	case "", core.StrategyAuto:
		if dkmsAvailable {
			return core.StrategyDkms, nil
		}
		return core.StrategyHooks, nil
	case core.StrategyHooks:
		return core.StrategyHooks, nil
	case core.StrategyDkms:
		if !dkmsAvailable {
			return "", core.MissingTool.New("dkms strategy requested but dkms is not installed").
				WithProperty(doctor.ErrPropertyResolution,
					"Install dkms via your package manager, or rerun with --strategy hooks")
		}
		return core.StrategyDkms, nil
	default:
		return "", core.InvalidStrategy.New("invalid strategy: %s (expected one of auto, dkms, hooks)", requested)
	}
}

// driverEnv bundles the host facts and collaborators every driver workflow
// needs.
type driverEnv struct {
	moduleName    string
	artifact      string
	pkgName       string
	pkgVersion    string
	sourceDir     string
	kernelRelease string
	family        distro.Family
	roots         []string

	dkms      *dkms.Installer
	hooks     *hook.Installer
	reloader  *kmod.Reloader
	refresher *initramfs.Refresher
}

// EnvOption overrides a collaborator in the workflow environment, mainly
// for tests.
type EnvOption = func(e *driverEnv)

// WithDkmsInstaller substitutes the dkms collaborator.
func WithDkmsInstaller(i *dkms.Installer) EnvOption {
	return func(e *driverEnv) {
		if i != nil {
			e.dkms = i
		}
	}
}

func newDriverEnv(in core.UserInputs[core.DriverInputs], opts ...EnvOption) (*driverEnv, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cfg := config.Get()

	rel, err := kmod.KernelRelease()
	if err != nil {
		return nil, err
	}

	env := &driverEnv{
		moduleName:    cfg.Driver.ModuleName,
		artifact:      core.ArtifactName,
		pkgName:       cfg.Driver.PackageName,
		pkgVersion:    cfg.Driver.PackageVersion,
		sourceDir:     cfg.Driver.SourceDir,
		kernelRelease: rel,
		family:        distro.NewDetector(distro.WithLogger(logx.As())).Detect(),
		roots:         core.LiveModuleRoots(rel),
		dkms:          dkms.NewInstaller(dkms.WithLogger(logx.As())),
		hooks:         hook.NewInstaller(hook.WithLogger(logx.As())),
		reloader:      kmod.NewReloader(kmod.WithReloaderLogger(logx.As())),
		refresher:     initramfs.NewRefresher(initramfs.WithLogger(logx.As())),
	}

	if in.Custom.SourceDir != "" {
		env.sourceDir = in.Custom.SourceDir
	}
	if in.Custom.PackageVersion != "" {
		env.pkgVersion = in.Custom.PackageVersion
	}

	for _, opt := range opts {
		opt(env)
	}

	return env, nil
}

// NewDriverInstallWorkflow builds the install workflow for the patched
// driver. The strategy decides the shape of the workflow up front: a DKMS
// managed install delegates build and placement to the DKMS registry, a
// hook managed install builds and places the artifact itself and leaves a
// kernel update hook behind.
func NewDriverInstallWorkflow(in core.UserInputs[core.DriverInputs], opts ...EnvOption) (*automa.WorkflowBuilder, error) {
	env, err := newDriverEnv(in, opts...)
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	requested := in.Custom.Strategy
	if requested == "" {
		requested = cfg.Driver.Strategy
	}

	strategy, err := ResolveStrategy(requested, cfg.Driver.ForceHooks, env.dkms.Available())
	if err != nil {
		return nil, err
	}

	if env.sourceDir == "" {
		return nil, errorx.IllegalArgument.New("module source directory is required; pass --source or set driver.sourceDir in the config").
			WithProperty(errorx.PropertyPayload(), "source")
	}

	logx.As().Info().
		Str("strategy", strategy).
		Str("kernel", env.kernelRelease).
		Str("family", string(env.family)).
		Msg("Driver install strategy resolved")

	mode := in.Common.ExecutionOptions.ExecutionMode
	if strategy == core.StrategyDkms {
		return newDkmsInstallWorkflow(env).WithExecutionMode(mode), nil
	}

	return newHooksInstallWorkflow(env).WithExecutionMode(mode), nil
}

func newDkmsInstallWorkflow(env *driverEnv) *automa.WorkflowBuilder {
	// The DKMS framework installs its build under updates/dkms; that subtree
	// is DKMS-owned and must not be mistaken for a stock module.
	exclude := filepath.Join(core.UpdatesDir(env.kernelRelease), "dkms")

	return automa.NewWorkflowBuilder().WithId("driver-install-dkms").Steps(
		CheckPrivilegesStep(),
		steps.CheckBuildToolsStep(env.family),
		steps.CheckKernelHeadersStep(env.family, env.kernelRelease),
		steps.EnsureSystemPackageStep("dkms"),
		steps.RemoveDkmsRegistrationStep(env.dkms, env.pkgName, env.pkgVersion),
		steps.StageDkmsSourceStep(env.dkms, env.sourceDir, env.pkgName, env.pkgVersion),
		steps.ReconcileBackupsStep(env.artifact, env.roots, exclude),
		steps.RegisterDkmsModuleStep(env.dkms, env.pkgName, env.pkgVersion),
		steps.ReloadModuleStep(env.reloader, env.moduleName),
		steps.RefreshInitramfsStep(env.refresher),
	)
}

func newHooksInstallWorkflow(env *driverEnv) *automa.WorkflowBuilder {
	builder := kmod.NewMakeBuilder(env.artifact, kmod.WithBuilderLogger(logx.As()))
	builtArtifact := filepath.Join(env.sourceDir, env.artifact)
	updatesDir := core.UpdatesDir(env.kernelRelease)

	return automa.NewWorkflowBuilder().WithId("driver-install-hooks").Steps(
		CheckPrivilegesStep(),
		steps.CheckBuildToolsStep(env.family),
		steps.CheckKernelHeadersStep(env.family, env.kernelRelease),
		steps.BuildModuleStep(builder, env.sourceDir, env.kernelRelease),
		steps.ReconcileBackupsStep(env.artifact, env.roots, ""),
		steps.InstallModuleArtifactStep(builtArtifact, updatesDir),
		steps.ReloadModuleStep(env.reloader, env.moduleName),
		steps.InstallKernelHookStep(env.hooks, env.family),
		steps.RefreshInitramfsStep(env.refresher),
	)
}

// NewDriverRestoreWorkflow builds the workflow that undoes an install:
// deregister from DKMS, drop staged sources and hooks, put the stock module
// files back and reload. Restore fails hard when there is no backup to put
// back.
func NewDriverRestoreWorkflow(in core.UserInputs[core.DriverInputs], opts ...EnvOption) (*automa.WorkflowBuilder, error) {
	env, err := newDriverEnv(in, opts...)
	if err != nil {
		return nil, err
	}

	return automa.NewWorkflowBuilder().WithId("driver-restore").
		WithExecutionMode(in.Common.ExecutionOptions.ExecutionMode).Steps(
		CheckPrivilegesStep(),
		steps.RemoveDkmsRegistrationStep(env.dkms, env.pkgName, env.pkgVersion),
		steps.UnstageDkmsSourceStep(env.dkms, env.pkgName, env.pkgVersion),
		steps.RemoveKernelHooksStep(env.hooks),
		steps.RestoreBackupsStep(env.artifact, env.roots),
		steps.ReloadModuleStep(env.reloader, env.moduleName),
		steps.RefreshInitramfsStep(env.refresher),
	), nil
}

// NewDriverReloadWorkflow refreshes module dependencies and reloads the
// module in place.
func NewDriverReloadWorkflow(in core.UserInputs[core.DriverInputs], opts ...EnvOption) (*automa.WorkflowBuilder, error) {
	env, err := newDriverEnv(in, opts...)
	if err != nil {
		return nil, err
	}

	return automa.NewWorkflowBuilder().WithId("driver-reload").
		WithExecutionMode(in.Common.ExecutionOptions.ExecutionMode).Steps(
		CheckPrivilegesStep(),
		steps.ReloadModuleStep(env.reloader, env.moduleName),
	), nil
}
