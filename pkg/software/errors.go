// SPDX-License-Identifier: Apache-2.0

package software

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("software")

	PackageManagerError = ErrorsNamespace.NewType("package_manager_error")
	PackageLookupError  = ErrorsNamespace.NewType("package_lookup_error")

	packageNameProperty = errorx.RegisterPrintableProperty("package_name")
)
