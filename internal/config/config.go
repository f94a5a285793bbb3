// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strings"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/viper"

	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/pkg/sanity"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// OMEN_FAN_DRIVER_FORCEHOOKS maps to driver.forceHooks.
const EnvPrefix = "OMEN_FAN"

// Config holds the global configuration for the application.
type Config struct {
	Log     logx.LoggingConfig `yaml:"log" json:"log"`
	Driver  DriverConfig       `yaml:"driver" json:"driver"`
	Service ServiceConfig      `yaml:"service" json:"service"`
}

// DriverConfig represents the `driver` configuration block.
type DriverConfig struct {
	ModuleName     string `yaml:"moduleName" json:"moduleName"`
	PackageName    string `yaml:"packageName" json:"packageName"`
	PackageVersion string `yaml:"packageVersion" json:"packageVersion"`
	SourceDir      string `yaml:"sourceDir" json:"sourceDir"`
	Strategy       string `yaml:"strategy" json:"strategy"`
	ForceHooks     bool   `yaml:"forceHooks" json:"forceHooks"`
}

// ServiceConfig represents the `service` configuration block.
type ServiceConfig struct {
	UnitName string `yaml:"unitName" json:"unitName"`
}

// Validate validates all driver configuration fields to ensure they are safe
// and secure. This performs early validation of user-provided configuration to
// catch security issues before workflow execution begins.
func (c *DriverConfig) Validate() error {
	if c.ModuleName != "" {
		if err := sanity.ValidateIdentifier(c.ModuleName); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid module name: %s", c.ModuleName)
		}
	}

	if c.PackageName != "" {
		if err := sanity.ValidateIdentifier(c.PackageName); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid package name: %s", c.PackageName)
		}
	}

	// Validate version if provided (semantic version)
	if c.PackageVersion != "" {
		if err := sanity.ValidateVersion(c.PackageVersion); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid package version: %s", c.PackageVersion)
		}
	}

	// Validate source dir path if provided
	if c.SourceDir != "" {
		if _, err := sanity.SanitizePath(c.SourceDir); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid source dir: %s", c.SourceDir)
		}
	}

	if c.Strategy != "" {
		if sanity.Contains(c.Strategy, core.AllStrategies()) == false {
			return errorx.IllegalArgument.New("invalid strategy: %s", c.Strategy)
		}
	}

	return nil
}

// Validate validates all service configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.UnitName != "" {
		name := strings.TrimSuffix(c.UnitName, ".service")
		if err := sanity.ValidateIdentifier(name); err != nil {
			return errorx.IllegalArgument.Wrap(err, "invalid unit name: %s", c.UnitName)
		}
	}

	return nil
}

// Validate validates all configuration fields to ensure they are safe and secure.
func (c Config) Validate() error {
	if err := c.Driver.Validate(); err != nil {
		return err
	}
	if err := c.Service.Validate(); err != nil {
		return err
	}
	return nil
}

var globalConfig = defaultConfig()

func defaultConfig() Config {
	return Config{
		Log: logx.LoggingConfig{
			Level:          "Debug",
			ConsoleLogging: true,
			FileLogging:    false,
		},
		Driver: DriverConfig{
			ModuleName:     core.ModuleName,
			PackageName:    core.PackageName,
			PackageVersion: core.PackageVersion,
			SourceDir:      "",
			Strategy:       core.StrategyAuto,
			ForceHooks:     false,
		},
		Service: ServiceConfig{
			UnitName: core.ServiceUnitName,
		},
	}
}

// registerDefaults makes all known keys visible to viper so that
// AutomaticEnv can resolve them even when no config file is present.
func registerDefaults(d Config) {
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.consolelogging", d.Log.ConsoleLogging)
	viper.SetDefault("log.filelogging", d.Log.FileLogging)
	viper.SetDefault("driver.modulename", d.Driver.ModuleName)
	viper.SetDefault("driver.packagename", d.Driver.PackageName)
	viper.SetDefault("driver.packageversion", d.Driver.PackageVersion)
	viper.SetDefault("driver.sourcedir", d.Driver.SourceDir)
	viper.SetDefault("driver.strategy", d.Driver.Strategy)
	viper.SetDefault("driver.forcehooks", d.Driver.ForceHooks)
	viper.SetDefault("service.unitname", d.Service.UnitName)
}

// Initialize loads the configuration from the environment and, if path is
// non-empty, the specified file. Environment variables override file values.
//
// Parameters:
//   - path: The path to the configuration file. May be empty.
//
// Returns:
//   - An error if the configuration cannot be loaded.
func Initialize(path string) error {
	globalConfig = defaultConfig()
	viper.Reset()
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(globalConfig)

	if path != "" {
		viper.SetConfigFile(path)

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
			WithProperty(errorx.PropertyPayload(), path)
	}

	return globalConfig.Validate()
}

// Get returns the loaded configuration.
//
// Returns:
//   - The global configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	globalConfig = *c
	return nil
}

// OverrideDriverConfig updates the driver configuration with provided overrides.
// Empty string values are ignored (not applied).
func OverrideDriverConfig(overrides DriverConfig) {
	if overrides.ModuleName != "" {
		globalConfig.Driver.ModuleName = overrides.ModuleName
	}
	if overrides.PackageName != "" {
		globalConfig.Driver.PackageName = overrides.PackageName
	}
	if overrides.PackageVersion != "" {
		globalConfig.Driver.PackageVersion = overrides.PackageVersion
	}
	if overrides.SourceDir != "" {
		globalConfig.Driver.SourceDir = overrides.SourceDir
	}
	if overrides.Strategy != "" {
		globalConfig.Driver.Strategy = overrides.Strategy
	}
	if overrides.ForceHooks {
		globalConfig.Driver.ForceHooks = true
	}
}
