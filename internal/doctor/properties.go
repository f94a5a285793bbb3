// SPDX-License-Identifier: Apache-2.0

package doctor

import "github.com/joomcode/errorx"

// ErrPropertyResolution carries a human readable resolution hint attached at
// the point where an error is raised. Diagnose prefers it over the generic
// type-based resolutions.
var ErrPropertyResolution = errorx.RegisterPrintableProperty("resolution")
