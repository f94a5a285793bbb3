// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const artifact = "hp-wmi.ko"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(WithArtifactName(artifact))
	require.NoError(t, err)
	return m
}

func writeArtifact(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewManager_RequiresArtifactName(t *testing.T) {
	_, err := NewManager()
	require.Error(t, err)
}

func TestManager_Reconcile(t *testing.T) {
	t.Run("moves live file aside to backup", func(t *testing.T) {
		root := t.TempDir()
		live := writeArtifact(t, filepath.Join(root, "drivers"), artifact, "stock")

		m := newTestManager(t)
		report, err := m.Reconcile([]string{root}, "")
		require.NoError(t, err)
		require.Equal(t, []string{live}, report.BackedUp)
		require.Empty(t, report.Skipped)

		require.NoFileExists(t, live)
		b, err := os.ReadFile(live + DefaultSuffix)
		require.NoError(t, err)
		require.Equal(t, "stock", string(b))
	})

	t.Run("is idempotent", func(t *testing.T) {
		root := t.TempDir()
		writeArtifact(t, root, artifact, "stock")

		m := newTestManager(t)
		_, err := m.Reconcile([]string{root}, "")
		require.NoError(t, err)

		report, err := m.Reconcile([]string{root}, "")
		require.NoError(t, err)
		require.Empty(t, report.BackedUp)
		require.Empty(t, report.Skipped)
	})

	t.Run("never overwrites an existing backup", func(t *testing.T) {
		root := t.TempDir()
		live := writeArtifact(t, root, artifact, "reappeared stock")
		writeArtifact(t, root, artifact+DefaultSuffix, "original stock")

		m := newTestManager(t)
		report, err := m.Reconcile([]string{root}, "")
		require.NoError(t, err)
		require.Empty(t, report.BackedUp)
		require.Equal(t, []string{live}, report.Skipped)

		// the live file is gone but the original backup is untouched
		require.NoFileExists(t, live)
		b, err := os.ReadFile(live + DefaultSuffix)
		require.NoError(t, err)
		require.Equal(t, "original stock", string(b))
	})

	t.Run("ignores missing roots", func(t *testing.T) {
		m := newTestManager(t)
		report, err := m.Reconcile([]string{filepath.Join(t.TempDir(), "nope")}, "")
		require.NoError(t, err)
		require.Empty(t, report.BackedUp)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		root := t.TempDir()
		other := writeArtifact(t, root, "other.ko", "keep me")

		m := newTestManager(t)
		report, err := m.Reconcile([]string{root}, "")
		require.NoError(t, err)
		require.Empty(t, report.BackedUp)
		require.FileExists(t, other)
	})

	t.Run("skips the excluded subtree", func(t *testing.T) {
		root := t.TempDir()
		staged := filepath.Join(root, "staging")
		stagedFile := writeArtifact(t, staged, artifact, "freshly built")

		m := newTestManager(t)
		report, err := m.Reconcile([]string{root}, staged)
		require.NoError(t, err)
		require.Empty(t, report.BackedUp)
		require.FileExists(t, stagedFile)
	})
}

func TestManager_Restore(t *testing.T) {
	t.Run("round trip restores original content", func(t *testing.T) {
		root := t.TempDir()
		live := writeArtifact(t, filepath.Join(root, "hp"), artifact, "stock")

		m := newTestManager(t)
		_, err := m.Reconcile([]string{root}, "")
		require.NoError(t, err)

		n, err := m.Restore([]string{root})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		b, err := os.ReadFile(live)
		require.NoError(t, err)
		require.Equal(t, "stock", string(b))
		require.NoFileExists(t, live+DefaultSuffix)
	})

	t.Run("overwrites a conflicting live file", func(t *testing.T) {
		root := t.TempDir()
		live := writeArtifact(t, root, artifact, "patched")
		writeArtifact(t, root, artifact+DefaultSuffix, "stock")

		m := newTestManager(t)
		n, err := m.Restore([]string{root})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		b, err := os.ReadFile(live)
		require.NoError(t, err)
		require.Equal(t, "stock", string(b))
	})

	t.Run("returns zero when no backup exists", func(t *testing.T) {
		root := t.TempDir()
		writeArtifact(t, root, artifact, "live only")

		m := newTestManager(t)
		n, err := m.Restore([]string{root})
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("restores across multiple roots", func(t *testing.T) {
		rootA := t.TempDir()
		rootB := t.TempDir()
		writeArtifact(t, rootA, artifact+DefaultSuffix, "a")
		writeArtifact(t, rootB, artifact+DefaultSuffix, "b")

		m := newTestManager(t)
		n, err := m.Restore([]string{rootA, rootB})
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}
