// SPDX-License-Identifier: Apache-2.0

// Package software wraps the system package manager for the toolchain
// packages (dkms, build tools, kernel headers) the driver install depends on.
package software

import (
	"sync"

	"github.com/bluet/syspkg"
	"github.com/bluet/syspkg/manager"
)

var (
	pkgManager syspkg.PackageManager
	once       sync.Once
)

func GetPackageManager() (syspkg.PackageManager, error) {
	var initErr error
	once.Do(func() {
		includeOptions := syspkg.IncludeOptions{AllAvailable: true}
		sysPackageManager, err := syspkg.New(includeOptions)
		if err != nil {
			initErr = PackageManagerError.Wrap(err, "failed to initialize system package manager")
			return
		}

		// Let syspkg automatically detect the best available package manager
		pm, err := sysPackageManager.GetPackageManager("") // Empty string returns first available
		if err != nil {
			initErr = PackageManagerError.Wrap(err, "no system package manager available")
			return
		}

		pkgManager = pm
	})

	return pkgManager, initErr
}

type option func(*PackageInstaller)

// PackageInstaller manages a single system package through the standard
// system package manager.
type PackageInstaller struct {
	pkgName    string
	pkgOptions manager.Options
	pkgManager syspkg.PackageManager
}

func (p *PackageInstaller) Name() string {
	return p.pkgName
}

func (p *PackageInstaller) Install() (*syspkg.PackageInfo, error) {
	_, err := p.pkgManager.Install([]string{p.pkgName}, &p.pkgOptions)
	if err != nil {
		return nil, PackageLookupError.Wrap(err, "failed to install package").
			WithProperty(packageNameProperty, p.pkgName)
	}

	return p.Info()
}

func (p *PackageInstaller) Uninstall() (*syspkg.PackageInfo, error) {
	info, err := p.Info()
	if err != nil {
		return nil, err
	}

	_, err = p.pkgManager.Delete([]string{p.pkgName}, &p.pkgOptions)
	if err != nil {
		return nil, PackageManagerError.Wrap(err, "failed to uninstall package").
			WithProperty(packageNameProperty, p.pkgName)
	}

	return info, nil
}

func (p *PackageInstaller) IsInstalled() bool {
	info, err := p.Info()
	if err != nil {
		return false
	}

	return info.Status == manager.PackageStatusInstalled
}

func (p *PackageInstaller) Info() (*syspkg.PackageInfo, error) {
	// Find gives more reliable results than ListInstalled, which on apt does
	// not distinguish a removed package whose config files remain.
	resp, err := p.pkgManager.Find([]string{p.pkgName}, &p.pkgOptions)
	if err != nil {
		return nil, PackageLookupError.Wrap(err, "failed to query package").
			WithProperty(packageNameProperty, p.pkgName)
	}

	// go through the list and verify if the package is found
	for _, pkg := range resp {
		if pkg.Name == p.pkgName {
			return &pkg, nil
		}
	}

	return nil, PackageLookupError.New("package %q not known to the package manager", p.pkgName)
}

func WithPackageName(name string) option {
	return func(pb *PackageInstaller) {
		pb.pkgName = name
	}
}

func WithPackageOptions(opts manager.Options) option {
	return func(pb *PackageInstaller) {
		pb.pkgOptions = opts
	}
}

func WithPackageManager(pm syspkg.PackageManager) option {
	return func(pb *PackageInstaller) {
		pb.pkgManager = pm
	}
}

func NewPackageInstaller(opts ...option) (*PackageInstaller, error) {
	p := &PackageInstaller{
		pkgOptions: manager.Options{DryRun: false, Interactive: false, AssumeYes: true},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.pkgManager == nil {
		pm, err := GetPackageManager()
		if err != nil {
			return nil, err
		}
		p.pkgManager = pm
	}

	return p, nil
}
