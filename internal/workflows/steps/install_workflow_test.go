// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/stretchr/testify/require"

	"github.com/arfelious/omen-fan-control/pkg/dkms"
	"github.com/arfelious/omen-fan-control/pkg/kmod"
)

// Fresh hook-managed install over a fake module tree: build, back up the
// stock module, place the replacement.
func TestHookManagedInstall_EndToEnd(t *testing.T) {
	sourceDir := t.TempDir()
	liveRoot := t.TempDir()
	updatesDir := filepath.Join(t.TempDir(), "updates")

	// stock module in the live tree
	stock := filepath.Join(liveRoot, "hp-wmi.ko")
	writeFile(t, stock, "stock")

	// fake builder drops the patched artifact into the source dir
	artifact := filepath.Join(sourceDir, "hp-wmi.ko")
	fb := &fakeBuilder{artifact: artifact}
	writeFile(t, artifact, "patched")

	wf, err := automa.NewWorkflowBuilder().WithId("hook-managed-install").
		WithExecutionMode(automa.StopOnError).Steps(
		BuildModuleStep(fb, sourceDir, "6.8.0-41-generic"),
		ReconcileBackupsStep("hp-wmi.ko", []string{liveRoot}, ""),
		InstallModuleArtifactStep(artifact, updatesDir),
	).Build()
	require.NoError(t, err)

	report := wf.Execute(context.Background())
	require.True(t, report.IsSuccess(), "workflow failed: %v", report.Error)

	// stock module moved aside, exactly one backup
	_, err = os.Stat(stock)
	require.True(t, os.IsNotExist(err))
	backup, err := os.ReadFile(stock + ".bak")
	require.NoError(t, err)
	require.Equal(t, "stock", string(backup))

	// replacement placed in the updates overlay
	installed, err := os.ReadFile(filepath.Join(updatesDir, "hp-wmi.ko"))
	require.NoError(t, err)
	require.Equal(t, "patched", string(installed))

	// a second run must not disturb the backup
	wf2, err := automa.NewWorkflowBuilder().WithId("hook-managed-install-again").
		WithExecutionMode(automa.StopOnError).Steps(
		BuildModuleStep(fb, sourceDir, "6.8.0-41-generic"),
		ReconcileBackupsStep("hp-wmi.ko", []string{liveRoot}, ""),
		InstallModuleArtifactStep(artifact, updatesDir),
	).Build()
	require.NoError(t, err)

	report = wf2.Execute(context.Background())
	require.True(t, report.IsSuccess(), "second run failed: %v", report.Error)

	backup, err = os.ReadFile(stock + ".bak")
	require.NoError(t, err)
	require.Equal(t, "stock", string(backup))
}

type fakeDkmsRunner struct {
	calls     []string
	installed bool
}

func (f *fakeDkmsRunner) run(ctx context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args[0])
	switch args[0] {
	case "status":
		if f.installed {
			return args[1] + ", 6.8.0-41-generic, x86_64: installed", nil
		}
		return "", nil
	case "install":
		f.installed = true
	}
	return "", nil
}

type fakeReloader struct {
	reloaded []string
}

func (f *fakeReloader) Reload(ctx context.Context, name string) (kmod.Outcome, error) {
	f.reloaded = append(f.reloaded, name)
	return kmod.OutcomeReloaded, nil
}

// Fresh DKMS-managed install with a stubbed dkms binary: deregister, stage
// the sources, back up the stock module, walk add/build/install, reload.
func TestDkmsManagedInstall_EndToEnd(t *testing.T) {
	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "dkms.conf"),
		"PACKAGE_NAME=\"__MODULE_NAME__\"\nPACKAGE_VERSION=\"__MODULE_VERSION__\"\n")
	writeFile(t, filepath.Join(sourceDir, "hp-wmi.c"), "patched")

	liveRoot := t.TempDir()
	stock := filepath.Join(liveRoot, "hp-wmi.ko")
	writeFile(t, stock, "stock")

	// the dkms-owned overlay inside the live tree must never be backed up
	overlay := filepath.Join(liveRoot, "dkms")
	writeFile(t, filepath.Join(overlay, "hp-wmi.ko"), "dkms-built")

	runner := &fakeDkmsRunner{}
	installer := dkms.NewInstaller(
		dkms.WithSourceRoot(t.TempDir()),
		dkms.WithRunner(runner.run),
	)
	rl := &fakeReloader{}

	wf, err := automa.NewWorkflowBuilder().WithId("dkms-managed-install").
		WithExecutionMode(automa.StopOnError).Steps(
		RemoveDkmsRegistrationStep(installer, "hp-wmi-omen", "1.0"),
		StageDkmsSourceStep(installer, sourceDir, "hp-wmi-omen", "1.0"),
		ReconcileBackupsStep("hp-wmi.ko", []string{liveRoot}, overlay),
		RegisterDkmsModuleStep(installer, "hp-wmi-omen", "1.0"),
		ReloadModuleStep(rl, "hp-wmi"),
	).Build()
	require.NoError(t, err)

	report := wf.Execute(context.Background())
	require.True(t, report.IsSuccess(), "workflow failed: %v", report.Error)

	// stock module moved aside, exactly one backup; the overlay left alone
	_, err = os.Stat(stock)
	require.True(t, os.IsNotExist(err))
	backup, err := os.ReadFile(stock + ".bak")
	require.NoError(t, err)
	require.Equal(t, "stock", string(backup))
	_, err = os.Stat(filepath.Join(overlay, "hp-wmi.ko.bak"))
	require.True(t, os.IsNotExist(err))

	// staged sources carry the rendered package identity
	conf, err := os.ReadFile(filepath.Join(installer.SourceDir("hp-wmi-omen", "1.0"), "dkms.conf"))
	require.NoError(t, err)
	require.Contains(t, string(conf), `PACKAGE_NAME="hp-wmi-omen"`)

	// registration walked add, build and install strictly in that order;
	// the leading status probe belongs to the deregistration step
	require.Equal(t, []string{"status", "add", "build", "install"}, runner.calls)

	status, err := installer.Status(context.Background(), "hp-wmi-omen", "1.0")
	require.NoError(t, err)
	require.Equal(t, dkms.RegistrationInstalled, status)

	// module reloaded exactly once
	require.Equal(t, []string{"hp-wmi"}, rl.reloaded)
}

// A build failure must leave the live tree untouched.
func TestHookManagedInstall_BuildFailureLeavesTreeAlone(t *testing.T) {
	sourceDir := t.TempDir()
	liveRoot := t.TempDir()

	stock := filepath.Join(liveRoot, "hp-wmi.ko")
	writeFile(t, stock, "stock")

	fb := &fakeBuilder{err: os.ErrPermission}

	wf, err := automa.NewWorkflowBuilder().WithId("hook-managed-install").
		WithExecutionMode(automa.StopOnError).Steps(
		BuildModuleStep(fb, sourceDir, "6.8.0-41-generic"),
		ReconcileBackupsStep("hp-wmi.ko", []string{liveRoot}, ""),
	).Build()
	require.NoError(t, err)

	report := wf.Execute(context.Background())
	require.True(t, report.HasError())

	// stock module still in place, no backup created
	data, err := os.ReadFile(stock)
	require.NoError(t, err)
	require.Equal(t, "stock", string(data))
	_, err = os.Stat(stock + ".bak")
	require.True(t, os.IsNotExist(err))
}
