// SPDX-License-Identifier: Apache-2.0

// Package backup manages sidecar backups of a kernel module artifact inside
// the live module tree. A live file is backed up by moving it aside to
// "<file><suffix>" so that the stock artifact no longer shadows the patched
// one. At most one backup exists per live path; an existing backup is never
// overwritten.
package backup

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

const DefaultSuffix = ".bak"

var nolog = zerolog.Nop()

// Manager reconciles and restores sidecar backups of a single named artifact.
type Manager struct {
	logger   *zerolog.Logger
	artifact string
	suffix   string
}

// ReconcileReport describes what a reconcile pass did.
type ReconcileReport struct {
	// BackedUp lists live paths that were moved aside during this pass.
	BackedUp []string `yaml:"backedUp" json:"backedUp"`
	// Skipped lists live paths whose backup already existed. The live file
	// is still removed so the stale artifact cannot shadow the patched one.
	Skipped []string `yaml:"skipped" json:"skipped"`
}

type Option = func(m *Manager)

// WithLogger allows injecting a logger instance for the manager.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithArtifactName sets the base file name the manager operates on.
func WithArtifactName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.artifact = name
		}
	}
}

// WithSuffix overrides the backup file suffix.
func WithSuffix(suffix string) Option {
	return func(m *Manager) {
		if suffix != "" {
			m.suffix = suffix
		}
	}
}

func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		logger: &nolog,
		suffix: DefaultSuffix,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.artifact == "" {
		return nil, errorx.IllegalArgument.New("artifact name is required")
	}

	return m, nil
}

// Reconcile walks the given roots recursively and moves every live copy of
// the artifact aside to its backup path. Roots that do not exist are
// ignored. Paths under exclude are never touched, so a staged source tree
// inside a root does not get its artifact backed up.
//
// The move is copy, verify, then remove: if the copy fails the live file is
// left in place and the partial backup is deleted. If a backup already
// exists the live file is removed without touching the backup, preserving
// the original stock artifact across repeated installs.
func (m *Manager) Reconcile(roots []string, exclude string) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			m.logger.Debug().Str("root", root).Msg("Backup root does not exist, skipping")
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errorx.InternalError.Wrap(err, "failed to walk %s", path)
			}
			if d.IsDir() {
				if exclude != "" && path == exclude {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() != m.artifact {
				return nil
			}

			return m.backupFile(path, report)
		})
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func (m *Manager) backupFile(path string, report *ReconcileReport) error {
	bakPath := path + m.suffix

	if _, err := os.Stat(bakPath); err == nil {
		// A backup from an earlier run already holds the stock artifact.
		if err := os.Remove(path); err != nil {
			return errorx.InternalError.Wrap(err, "failed to remove live file %s", path)
		}
		m.logger.Info().Str("path", path).Str("backup", bakPath).
			Msg("Backup already exists, removed reappeared live file")
		report.Skipped = append(report.Skipped, path)
		return nil
	}

	if err := copyFile(path, bakPath); err != nil {
		_ = os.Remove(bakPath)
		return errorx.InternalError.Wrap(err, "failed to back up %s", path)
	}

	if err := verifyCopy(path, bakPath); err != nil {
		_ = os.Remove(bakPath)
		return err
	}

	if err := os.Remove(path); err != nil {
		return errorx.InternalError.Wrap(err, "failed to remove live file %s after backup", path)
	}

	m.logger.Info().Str("path", path).Str("backup", bakPath).Msg("Backed up live module file")
	report.BackedUp = append(report.BackedUp, path)
	return nil
}

// Restore walks the given roots and moves every backup of the artifact back
// onto its live path, overwriting whatever is there. It returns the number
// of files restored; the caller decides whether zero is an error.
func (m *Manager) Restore(roots []string) (int, error) {
	restored := 0

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errorx.InternalError.Wrap(err, "failed to walk %s", path)
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), m.suffix) {
				return nil
			}
			if strings.TrimSuffix(d.Name(), m.suffix) != m.artifact {
				return nil
			}

			livePath := strings.TrimSuffix(path, m.suffix)
			if err := os.Rename(path, livePath); err != nil {
				return errorx.InternalError.Wrap(err, "failed to restore %s", path)
			}

			m.logger.Info().Str("backup", path).Str("path", livePath).Msg("Restored module file from backup")
			restored++
			return nil
		})
		if err != nil {
			return restored, err
		}
	}

	return restored, nil
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

func verifyCopy(src string, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return errorx.InternalError.Wrap(err, "failed to stat source %s", src)
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		return errorx.InternalError.Wrap(err, "failed to stat backup %s", dst)
	}

	if srcInfo.Size() != dstInfo.Size() {
		return errorx.InternalError.New("backup verification failed for %s [ source = %d bytes, backup = %d bytes ]",
			src, srcInfo.Size(), dstInfo.Size())
	}

	return nil
}
