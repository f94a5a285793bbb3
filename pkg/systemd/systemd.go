// SPDX-License-Identifier: Apache-2.0

// Package systemd manages the fan control service unit over the systemd
// D-Bus API, equivalent to systemctl daemon-reload/enable/disable/start/stop
// plus installing the unit file itself.
package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/rs/zerolog"
)

const (
	DefaultUnitDir = "/etc/systemd/system"

	dbusTimeout = 10 * time.Second
)

var nolog = zerolog.Nop()

// Manager operates on a single named service unit.
type Manager struct {
	logger  *zerolog.Logger
	unit    string
	unitDir string
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

// WithUnitDir overrides the unit file directory, mainly for tests.
func WithUnitDir(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.unitDir = dir
		}
	}
}

// NewManager returns a manager bound to the given service unit. The unit
// name may be given with or without the .service suffix.
func NewManager(unit string, opts ...Option) *Manager {
	m := &Manager{
		logger:  &nolog,
		unit:    ensureServiceSuffix(unit),
		unitDir: DefaultUnitDir,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// UnitPath returns the on-disk location of the unit file.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, m.unit)
}

// InstallUnit writes the unit file. The systemd manager configuration must
// be reloaded afterwards for the unit to become visible.
func (m *Manager) InstallUnit(content []byte) error {
	if err := os.MkdirAll(m.unitDir, 0o755); err != nil {
		return fmt.Errorf("create unit directory %s: %w", m.unitDir, err)
	}

	path := m.UnitPath()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write unit file %s: %w", path, err)
	}

	m.logger.Info().Str("path", path).Msg("Installed service unit file")
	return nil
}

// RemoveUnit deletes the unit file. A missing unit file is not an error.
func (m *Manager) RemoveUnit() error {
	path := m.UnitPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit file %s: %w", path, err)
	}

	m.logger.Info().Str("path", path).Msg("Removed service unit file")
	return nil
}

// DaemonReload reloads the systemd manager configuration.
// It is equivalent to running "systemctl daemon-reload".
func (m *Manager) DaemonReload(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, dbusTimeout)
	defer cancel()

	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	return nil
}

// Enable enables the unit persistently.
// It is equivalent to running "systemctl enable <unit>".
func (m *Manager) Enable(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, dbusTimeout)
	defer cancel()

	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	// The second parameter 'false' means not to enable for runtime only, but rather persistently.
	// The third parameter 'true' means to force overwrite existing symlinks.
	_, _, err = conn.EnableUnitFilesContext(ctx, []string{m.unit}, false, true)
	if err != nil {
		return fmt.Errorf("enable unit %s: %w", m.unit, err)
	}

	return nil
}

// Disable disables the unit persistently.
// It is equivalent to running "systemctl disable <unit>".
func (m *Manager) Disable(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, dbusTimeout)
	defer cancel()

	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	// The second parameter 'false' means not to disable for runtime only, but rather persistently.
	_, err = conn.DisableUnitFilesContext(ctx, []string{m.unit}, false)
	if err != nil {
		return fmt.Errorf("disable unit %s: %w", m.unit, err)
	}

	return nil
}

// Start starts the unit and waits until the job completes.
// It is equivalent to running "systemctl start <unit>".
func (m *Manager) Start(parent context.Context) error {
	return m.runJob(parent, "start",
		func(ctx context.Context, conn *dbus.Conn, jobChan chan string) (int, error) {
			return conn.StartUnitContext(ctx, m.unit, "replace", jobChan)
		})
}

// Stop stops the unit and waits until the job completes.
// It is equivalent to running "systemctl stop <unit>".
func (m *Manager) Stop(parent context.Context) error {
	return m.runJob(parent, "stop",
		func(ctx context.Context, conn *dbus.Conn, jobChan chan string) (int, error) {
			return conn.StopUnitContext(ctx, m.unit, "replace", jobChan)
		})
}

func (m *Manager) runJob(parent context.Context, verb string,
	submit func(ctx context.Context, conn *dbus.Conn, jobChan chan string) (int, error)) error {

	ctx, cancel := context.WithTimeout(parent, dbusTimeout)
	defer cancel()

	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	// Make this call synchronous and wait until the job completes.
	jobChan := make(chan string, 1) // buffered channel to avoid goroutine leaks

	if _, err := submit(ctx, conn, jobChan); err != nil {
		return fmt.Errorf("%s unit %s: %w", verb, m.unit, err)
	}

	select {
	case result := <-jobChan:
		if result != "done" {
			return fmt.Errorf("unit %s %s failed: %s", m.unit, verb, result)
		}
		return nil

	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for unit %s to %s: %w", m.unit, verb, ctx.Err())
	}
}

// ensureServiceSuffix ensures the unit name has the .service suffix.
func ensureServiceSuffix(name string) string {
	if !strings.HasSuffix(name, ".service") {
		return name + ".service"
	}
	return name
}
