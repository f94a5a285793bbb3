// SPDX-License-Identifier: Apache-2.0

package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()
	require.NotEmpty(t, info.Number)
	require.NotEmpty(t, info.Commit)
	require.NotEmpty(t, info.GoVersion)
}

func TestInfo_Format(t *testing.T) {
	info := Get()

	t.Run("json", func(t *testing.T) {
		out, err := info.Format(FormatJSON)
		require.NoError(t, err)

		var decoded Info
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		require.Equal(t, info, decoded)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := info.Format(FormatYAML)
		require.NoError(t, err)
		require.Contains(t, out, "version:")
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := info.Format("toml")
		require.Error(t, err)
	})
}

func TestBuildMode(t *testing.T) {
	require.Equal(t, "dev", BuildMode())
	require.False(t, IsReleaseBuild())
}
