// SPDX-License-Identifier: Apache-2.0

package sanity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains("dkms", []string{"auto", "dkms", "hooks"}))
	assert.False(t, Contains("manual", []string{"auto", "dkms", "hooks"}))
	assert.True(t, Contains(2, []int{1, 2, 3}))
	assert.False(t, Contains("x", nil))
}

func TestValidateIdentifier(t *testing.T) {
	require.NoError(t, ValidateIdentifier("hp-wmi"))
	require.NoError(t, ValidateIdentifier("hp-wmi-omen"))
	require.NoError(t, ValidateIdentifier("omen-fan-control"))

	require.Error(t, ValidateIdentifier(""))
	require.Error(t, ValidateIdentifier("-leading-dash"))
	require.Error(t, ValidateIdentifier("UpperCase"))
	require.Error(t, ValidateIdentifier("has space"))
	require.Error(t, ValidateIdentifier("semi;colon"))
}

func TestValidateVersion(t *testing.T) {
	require.NoError(t, ValidateVersion("1.0"))
	require.NoError(t, ValidateVersion("1.0.0"))
	require.NoError(t, ValidateVersion("0.3.0"))

	require.Error(t, ValidateVersion("not-a-version"))
	require.Error(t, ValidateVersion(""))
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "clean absolute path", input: "/usr/src/hp-wmi-omen-1.0", want: "/usr/src/hp-wmi-omen-1.0"},
		{name: "redundant slashes", input: "/usr//src/./module", want: "/usr/src/module"},
		{name: "empty", input: "", wantErr: true},
		{name: "relative", input: "src/module", wantErr: true},
		{name: "traversal", input: "/usr/src/../etc", wantErr: true},
		{name: "shell metacharacters", input: "/usr/src/$(whoami)", wantErr: true},
		{name: "spaces", input: "/usr/src/my module", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizePath(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
