// SPDX-License-Identifier: Apache-2.0

package exit

import "github.com/stretchr/testify/require"
import "testing"

func TestCode_Int(t *testing.T) {
	req := require.New(t)

	req.Equal(0, NormalTermination.Int())
	req.Equal(80, MissingDependency.Int())
	req.Equal(81, BuildFailure.Int())
	req.Equal(82, NothingToRestore.Int())
	req.NotEqual(9999, NormalTermination.Int())
}

func TestCode_String(t *testing.T) {
	req := require.New(t)
	req.Equal("0", NormalTermination.String())
	req.Equal("82", NothingToRestore.String())
	req.NotEqual("65", TemporaryFailure.String())
}

func TestCode_Is(t *testing.T) {
	req := require.New(t)

	req.True(NormalTermination.Is(0))
	req.True(MissingDependency.Is(80))
	req.False(BuildFailure.Is(82))
}

func TestApplicationCodesAreDistinct(t *testing.T) {
	req := require.New(t)

	codes := []Code{NormalTermination, MissingDependency, BuildFailure, NothingToRestore}
	seen := map[int]bool{}
	for _, c := range codes {
		req.False(seen[c.Int()], "exit code %s is not unique", c)
		seen[c.Int()] = true
		req.GreaterOrEqual(c.Int(), MinValidExitCode.Int())
		req.LessOrEqual(c.Int(), MaxValidExitCode.Int())
	}
}
