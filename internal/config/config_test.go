// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arfelious/omen-fan-control/internal/core"
)

func TestInitialize_Defaults(t *testing.T) {
	require.NoError(t, Initialize(""))

	cfg := Get()
	assert.Equal(t, core.ModuleName, cfg.Driver.ModuleName)
	assert.Equal(t, core.PackageName, cfg.Driver.PackageName)
	assert.Equal(t, core.PackageVersion, cfg.Driver.PackageVersion)
	assert.Equal(t, core.StrategyAuto, cfg.Driver.Strategy)
	assert.False(t, cfg.Driver.ForceHooks)
	assert.Equal(t, core.ServiceUnitName, cfg.Service.UnitName)
}

func TestInitialize_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
driver:
  strategy: hooks
  sourceDir: /opt/hp-wmi-src
service:
  unitName: omen-fan-control
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	require.NoError(t, Initialize(path))

	cfg := Get()
	assert.Equal(t, "hooks", cfg.Driver.Strategy)
	assert.Equal(t, "/opt/hp-wmi-src", cfg.Driver.SourceDir)
	// untouched fields keep their defaults
	assert.Equal(t, core.ModuleName, cfg.Driver.ModuleName)
}

func TestInitialize_MissingFile(t *testing.T) {
	err := Initialize("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, NotFoundError))
}

func TestInitialize_EnvOverrides(t *testing.T) {
	t.Setenv("OMEN_FAN_DRIVER_FORCEHOOKS", "true")
	t.Setenv("OMEN_FAN_DRIVER_SOURCEDIR", "/opt/patched-driver")

	require.NoError(t, Initialize(""))

	cfg := Get()
	assert.True(t, cfg.Driver.ForceHooks)
	assert.Equal(t, "/opt/patched-driver", cfg.Driver.SourceDir)
}

func TestInitialize_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver:\n  strategy: manual\n"), 0o644))

	require.Error(t, Initialize(path))
}

func TestOverrideDriverConfig(t *testing.T) {
	require.NoError(t, Initialize(""))

	OverrideDriverConfig(DriverConfig{Strategy: "dkms", SourceDir: "/opt/src"})
	cfg := Get()
	assert.Equal(t, "dkms", cfg.Driver.Strategy)
	assert.Equal(t, "/opt/src", cfg.Driver.SourceDir)

	// empty overrides are ignored
	OverrideDriverConfig(DriverConfig{})
	cfg = Get()
	assert.Equal(t, "dkms", cfg.Driver.Strategy)
}
