// SPDX-License-Identifier: Apache-2.0

package systemd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureServiceSuffix(t *testing.T) {
	require.Equal(t, "omen-fan-control.service", ensureServiceSuffix("omen-fan-control"))
	require.Equal(t, "omen-fan-control.service", ensureServiceSuffix("omen-fan-control.service"))
}

func TestManager_UnitPath(t *testing.T) {
	m := NewManager("omen-fan-control", WithUnitDir("/tmp/units"))
	require.Equal(t, "/tmp/units/omen-fan-control.service", m.UnitPath())
}

func TestManager_InstallAndRemoveUnit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "system")
	m := NewManager("omen-fan-control", WithUnitDir(dir))

	content := []byte("[Unit]\nDescription=test\n")
	require.NoError(t, m.InstallUnit(content))

	got, err := os.ReadFile(m.UnitPath())
	require.NoError(t, err)
	require.Equal(t, content, got)

	info, err := os.Stat(m.UnitPath())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	require.NoError(t, m.RemoveUnit())
	require.NoFileExists(t, m.UnitPath())

	// removing twice is fine
	require.NoError(t, m.RemoveUnit())
}
