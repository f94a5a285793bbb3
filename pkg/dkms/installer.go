// SPDX-License-Identifier: Apache-2.0

// Package dkms drives the Dynamic Kernel Module Support framework: staging a
// module source tree under the dkms source root and walking a registration
// through its add, build and install stages.
package dkms

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Registration describes how far a module has progressed through dkms.
type Registration string

const (
	RegistrationNone      Registration = "none"
	RegistrationAdded     Registration = "added"
	RegistrationBuilt     Registration = "built"
	RegistrationInstalled Registration = "installed"
)

// Registration stages, executed strictly in this order.
const (
	StageAdd     = "add"
	StageBuild   = "build"
	StageInstall = "install"
)

const (
	DefaultSourceRoot = "/usr/src"
	confFileName      = "dkms.conf"

	namePlaceholder    = "__MODULE_NAME__"
	versionPlaceholder = "__MODULE_VERSION__"
)

var nolog = zerolog.Nop()

// runner executes the dkms binary and returns its combined output.
type runner = func(ctx context.Context, args ...string) (string, error)

// Installer manages one dkms-registered module package.
type Installer struct {
	logger     *zerolog.Logger
	sourceRoot string
	run        runner
	lookPath   func(file string) (string, error)
}

type Option = func(i *Installer)

// WithLogger allows injecting a logger instance for the installer.
func WithLogger(logger *zerolog.Logger) Option {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithSourceRoot overrides the dkms source root, mainly for tests.
func WithSourceRoot(root string) Option {
	return func(i *Installer) {
		if root != "" {
			i.sourceRoot = root
		}
	}
}

// WithRunner substitutes the dkms command runner, mainly for tests.
func WithRunner(run runner) Option {
	return func(i *Installer) {
		if run != nil {
			i.run = run
		}
	}
}

// WithLookPath substitutes binary lookup, mainly for tests.
func WithLookPath(lookPath func(file string) (string, error)) Option {
	return func(i *Installer) {
		if lookPath != nil {
			i.lookPath = lookPath
		}
	}
}

func NewInstaller(opts ...Option) *Installer {
	i := &Installer{
		logger:     &nolog,
		sourceRoot: DefaultSourceRoot,
		run:        runDkms,
		lookPath:   exec.LookPath,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Available reports whether the dkms binary is present on the host.
func (i *Installer) Available() bool {
	_, err := i.lookPath("dkms")
	return err == nil
}

// SourceDir returns the staged source location for a package.
func (i *Installer) SourceDir(name string, version string) string {
	return filepath.Join(i.sourceRoot, fmt.Sprintf("%s-%s", name, version))
}

// Stage copies the module source tree into the dkms source root and fills
// the package name and version placeholders in dkms.conf. An existing
// staged tree is replaced.
func (i *Installer) Stage(sourceTree string, name string, version string) (string, error) {
	dest := i.SourceDir(name, version)

	if err := os.RemoveAll(dest); err != nil {
		return "", StagingError.Wrap(err, "failed to clear staging directory %s", dest)
	}

	if err := copyTree(sourceTree, dest); err != nil {
		return "", StagingError.Wrap(err, "failed to stage module source into %s", dest)
	}

	confPath := filepath.Join(dest, confFileName)
	conf, err := os.ReadFile(confPath)
	if err != nil {
		return "", StagingError.Wrap(err, "staged source has no %s", confFileName)
	}

	rendered := strings.ReplaceAll(string(conf), namePlaceholder, name)
	rendered = strings.ReplaceAll(rendered, versionPlaceholder, version)
	if err := os.WriteFile(confPath, []byte(rendered), 0o644); err != nil {
		return "", StagingError.Wrap(err, "failed to render %s", confFileName)
	}

	i.logger.Info().Str("source", sourceTree).Str("staged", dest).Msg("Staged module source for dkms")
	return dest, nil
}

// Unstage removes the staged source tree of a package.
func (i *Installer) Unstage(name string, version string) error {
	return os.RemoveAll(i.SourceDir(name, version))
}

// Register walks the package through add, build and install, strictly in
// that order. A failing stage stops the walk and leaves the registration
// frozen at the preceding stage; there is no automatic retry or cleanup.
func (i *Installer) Register(ctx context.Context, name string, version string) error {
	spec := fmt.Sprintf("%s/%s", name, version)

	for _, stage := range []string{StageAdd, StageBuild, StageInstall} {
		out, err := i.run(ctx, stage, spec)
		if err != nil {
			return StageError.Wrap(err, "dkms %s failed for %s: %s", stage, spec, strings.TrimSpace(out)).
				WithProperty(ErrPropertyStage, stage)
		}
		i.logger.Info().Str("package", spec).Str("stage", stage).Msg("Completed dkms registration stage")
	}

	return nil
}

// Status reports how far a package has progressed through dkms.
func (i *Installer) Status(ctx context.Context, name string, version string) (Registration, error) {
	spec := fmt.Sprintf("%s/%s", name, version)

	out, err := i.run(ctx, "status", spec)
	if err != nil {
		return RegistrationNone, StageError.Wrap(err, "dkms status failed for %s", spec)
	}

	return parseStatus(out), nil
}

// Remove deregisters the package from all kernels. A package that was never
// registered is not an error.
func (i *Installer) Remove(ctx context.Context, name string, version string) error {
	spec := fmt.Sprintf("%s/%s", name, version)

	status, err := i.Status(ctx, name, version)
	if err != nil {
		return err
	}
	if status == RegistrationNone {
		i.logger.Debug().Str("package", spec).Msg("Package is not registered with dkms, nothing to remove")
		return nil
	}

	out, err := i.run(ctx, "remove", spec, "--all")
	if err != nil {
		return StageError.Wrap(err, "dkms remove failed for %s: %s", spec, strings.TrimSpace(out))
	}

	i.logger.Info().Str("package", spec).Msg("Removed dkms registration")
	return nil
}

// parseStatus extracts the registration state from dkms status output.
// Lines look like "hp-wmi-omen/1.0, 6.8.0-41-generic, x86_64: installed"
// or "hp-wmi-omen/1.0: added" depending on the dkms version.
func parseStatus(out string) Registration {
	state := RegistrationNone

	for _, line := range strings.Split(out, "\n") {
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			continue
		}

		switch strings.TrimSpace(line[idx+1:]) {
		case "installed":
			return RegistrationInstalled
		case "built":
			state = RegistrationBuilt
		case "added":
			if state == RegistrationNone {
				state = RegistrationAdded
			}
		}
	}

	return state
}

func runDkms(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "dkms", args...).CombinedOutput()
	return string(out), err
}

func copyTree(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src string, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
