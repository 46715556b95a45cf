// ABOUTME: Tests for cloud detection and .env discovery
// ABOUTME: Uses temp directory trees and t.Setenv to isolate the process environment

package runtimeenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearHostMarkers(t *testing.T) {
	t.Helper()
	for _, key := range hostMarkers {
		t.Setenv(key, "")
	}
}

func TestIsCloud(t *testing.T) {
	clearHostMarkers(t)
	assert.False(t, IsCloud())

	for _, key := range hostMarkers {
		t.Run(key, func(t *testing.T) {
			clearHostMarkers(t)
			t.Setenv(key, "1")
			assert.True(t, IsCloud())
		})
	}
}

func TestFindEnvFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	envPath := filepath.Join(root, "a", ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("X=1\n"), 0o600))

	got, err := FindEnvFile(nested)
	require.NoError(t, err)
	assert.Equal(t, envPath, got)
}

func TestFindEnvFile_PrefersNearest(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "inner")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("X=outer\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(nested, ".env"), []byte("X=inner\n"), 0o600))

	got, err := FindEnvFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nested, ".env"), got)
}

func TestFindEnvFile_IgnoresDirectoryNamedEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".env"), 0o755))

	got, err := FindEnvFile(root)
	require.NoError(t, err)
	if got != "" {
		assert.NotEqual(t, filepath.Join(root, ".env"), got)
	}
}

func TestLoadLocalEnvIfNeeded(t *testing.T) {
	clearHostMarkers(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"),
		[]byte("RUNTIMEENV_TEST_FROM_FILE=loaded\nRUNTIMEENV_TEST_PRESET=file\n"), 0o600))
	t.Setenv("RUNTIMEENV_TEST_FROM_FILE", "")
	os.Unsetenv("RUNTIMEENV_TEST_FROM_FILE")
	t.Setenv("RUNTIMEENV_TEST_PRESET", "process")

	path, err := LoadLocalEnvIfNeeded(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".env"), path)
	assert.Equal(t, "loaded", os.Getenv("RUNTIMEENV_TEST_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("RUNTIMEENV_TEST_PRESET"), "existing variables are not overridden")
}

func TestLoadLocalEnvIfNeeded_SkippedInCloud(t *testing.T) {
	clearHostMarkers(t)
	t.Setenv("WEBSITE_SITE_NAME", "my-app")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("RUNTIMEENV_TEST_CLOUD=1\n"), 0o600))
	t.Setenv("RUNTIMEENV_TEST_CLOUD", "")
	os.Unsetenv("RUNTIMEENV_TEST_CLOUD")

	path, err := LoadLocalEnvIfNeeded(root)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, set := os.LookupEnv("RUNTIMEENV_TEST_CLOUD")
	assert.False(t, set)
}
