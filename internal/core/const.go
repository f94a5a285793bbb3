// SPDX-License-Identifier: Apache-2.0

package core

import (
	"os"
	"path/filepath"
)

const (
	AppName = "omenfan"

	// ModuleName is the kernel module being replaced.
	ModuleName = "hp-wmi"

	// ArtifactName is the built kernel object file.
	ArtifactName = "hp-wmi.ko"

	// PackageName and PackageVersion identify the patched driver in the
	// DKMS registry (<name>/<version>).
	PackageName    = "hp-wmi-omen"
	PackageVersion = "1.0"

	// BackupSuffix marks stock module files moved aside before the
	// patched build is installed.
	BackupSuffix = ".bak"

	// ServiceUnitName is the systemd unit that applies fan control at boot.
	ServiceUnitName = "omen-fan-control"

	DefaultDirPerm  = os.FileMode(0o755)
	DefaultFilePerm = os.FileMode(0o644)
)

// LiveModuleRoots returns the directories that may hold a live copy of the
// stock module for the given kernel release. The distribution ships hp-wmi
// under the platform tree; updates/ is where out-of-tree builds land.
func LiveModuleRoots(kernelRelease string) []string {
	base := filepath.Join("/lib/modules", kernelRelease)
	return []string{
		filepath.Join(base, "kernel", "drivers", "platform", "x86", "hp"),
		filepath.Join(base, "updates"),
	}
}

// UpdatesDir returns the directory where the patched module artifact is
// installed for the hooks strategy.
func UpdatesDir(kernelRelease string) string {
	return filepath.Join("/lib/modules", kernelRelease, "updates")
}

// KernelBuildDir returns the kernel headers/build tree for a release.
func KernelBuildDir(kernelRelease string) string {
	return filepath.Join("/lib/modules", kernelRelease, "build")
}

type AppPaths struct {
	HomeDir        string
	LogsDir        string
	DiagnosticsDir string
}

// Paths returns the application directories. They are not created here;
// callers create them on demand.
func Paths() AppPaths {
	home := filepath.Join("/var/lib", AppName)
	logs := filepath.Join("/var/log", AppName)
	return AppPaths{
		HomeDir:        home,
		LogsDir:        logs,
		DiagnosticsDir: filepath.Join(logs, "diagnostics"),
	}
}
