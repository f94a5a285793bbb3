// SPDX-License-Identifier: Apache-2.0

package kmod

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("kmod")

	// BuildError indicates the out-of-tree module compilation failed.
	BuildError = ErrorsNamespace.NewType("build_failed")
	// DepmodError indicates the module dependency index could not be rebuilt.
	DepmodError = ErrorsNamespace.NewType("depmod_failed")
	// UnloadError indicates the module could not be unloaded for a reason
	// other than being in use.
	UnloadError = ErrorsNamespace.NewType("unload_failed")
	// LoadError indicates the module could not be loaded.
	LoadError = ErrorsNamespace.NewType("load_failed")
	// LoadAfterUnloadError indicates the module was unloaded but the
	// replacement could not be loaded, leaving the host without the driver.
	LoadAfterUnloadError = ErrorsNamespace.NewType("load_after_unload_failed")
)
