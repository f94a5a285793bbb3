// SPDX-License-Identifier: Apache-2.0

package kmod

import (
	"github.com/joomcode/errorx"
	"github.com/zcalusic/sysinfo"
)

// KernelRelease returns the release string of the running kernel, e.g.
// "6.8.0-41-generic". It is a variable so tests can substitute a fixed value.
var KernelRelease = func() (string, error) {
	var si sysinfo.SysInfo
	si.GetSysInfo()

	if si.Kernel.Release == "" {
		return "", errorx.InternalError.New("unable to determine the running kernel release")
	}

	return si.Kernel.Release, nil
}
