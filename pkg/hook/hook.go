// SPDX-License-Identifier: Apache-2.0

// Package hook installs the kernel-update hooks that keep the patched
// hp-wmi module alive across kernel upgrades on hosts without dkms. Each
// supported distribution family has exactly one hook variant; the variant
// table is closed, so an unsupported family installs nothing.
package hook

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/arfelious/omen-fan-control/pkg/distro"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

//go:embed payloads/zz-hp-wmi-omen
var debianPayload []byte

//go:embed payloads/90-hp-wmi-omen.hook
var archPayload []byte

//go:embed payloads/99-hp-wmi-omen.install
var fedoraPayload []byte

// Variant is a distribution specific kernel-update hook.
type Variant struct {
	// Path is the absolute install location of the hook file.
	Path string
	// Mode is the file mode; script hooks are executable, declarative
	// pacman hooks are not.
	Mode os.FileMode

	payload []byte
}

var variants = map[distro.Family]Variant{
	distro.FamilyDebian: {
		Path:    "/etc/kernel/postinst.d/zz-hp-wmi-omen",
		Mode:    0o755,
		payload: debianPayload,
	},
	distro.FamilyArch: {
		Path:    "/etc/pacman.d/hooks/90-hp-wmi-omen.hook",
		Mode:    0o644,
		payload: archPayload,
	},
	distro.FamilyFedora: {
		Path:    "/etc/kernel/install.d/99-hp-wmi-omen.install",
		Mode:    0o755,
		payload: fedoraPayload,
	},
}

var nolog = zerolog.Nop()

// Installer writes and removes the hook files.
type Installer struct {
	logger *zerolog.Logger
	// rootDir is prepended to every hook path, "/" in production.
	rootDir string
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

// WithRootDir re-roots all hook paths, mainly for tests.
func WithRootDir(root string) Option {
	return func(i *Installer) {
		if root != "" {
			i.rootDir = root
		}
	}
}

func NewInstaller(opts ...Option) *Installer {
	i := &Installer{
		logger:  &nolog,
		rootDir: "/",
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Install writes the hook variant for the given family. The returned bool
// reports whether a variant exists for the family: a false return with a
// nil error means the host's future kernel updates will not refresh the
// module, which callers surface as a warning, never a failure.
func (i *Installer) Install(family distro.Family) (string, bool, error) {
	variant, found := variants[family]
	if !found {
		i.logger.Warn().Str("family", string(family)).
			Msg("No kernel-update hook variant for this distribution family")
		return "", false, nil
	}

	path := filepath.Join(i.rootDir, variant.Path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", true, errorx.InternalError.Wrap(err, "failed to create hook directory for %s", path)
	}

	if err := os.WriteFile(path, variant.payload, variant.Mode); err != nil {
		return "", true, errorx.InternalError.Wrap(err, "failed to write hook %s", path)
	}

	i.logger.Info().Str("path", path).Str("family", string(family)).Msg("Installed kernel-update hook")
	return path, true, nil
}

// Remove deletes every hook file that exists, regardless of family, and
// returns the removed paths. Used by the restore flow, which cannot assume
// the hooks were written by the same distribution the host now reports.
func (i *Installer) Remove() ([]string, error) {
	var removed []string

	for _, variant := range variants {
		path := filepath.Join(i.rootDir, variant.Path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		if err := os.Remove(path); err != nil {
			return removed, errorx.InternalError.Wrap(err, "failed to remove hook %s", path)
		}

		i.logger.Info().Str("path", path).Msg("Removed kernel-update hook")
		removed = append(removed, path)
	}

	return removed, nil
}
