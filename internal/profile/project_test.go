package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbt_project.yml"), []byte(content), 0o644))
	return dir
}

func TestSetProjectProfileReplacesExisting(t *testing.T) {
	dir := writeProject(t, "name: tuva\nprofile: old_profile\nversion: \"1.0\"\n")

	require.NoError(t, SetProjectProfile(dir, "tuva_demo"))

	raw, err := os.ReadFile(filepath.Join(dir, "dbt_project.yml"))
	require.NoError(t, err)
	content := string(raw)
	require.Contains(t, content, "profile: \"tuva_demo\"")
	require.NotContains(t, content, "old_profile")
	require.Contains(t, content, "version: \"1.0\"")
}

func TestSetProjectProfileInsertsAfterName(t *testing.T) {
	dir := writeProject(t, "name: tuva\nversion: \"1.0\"\n")

	require.NoError(t, SetProjectProfile(dir, "tuva_demo"))

	raw, err := os.ReadFile(filepath.Join(dir, "dbt_project.yml"))
	require.NoError(t, err)
	require.Equal(t, "name: tuva\nprofile: \"tuva_demo\"\nversion: \"1.0\"\n", string(raw))
}

func TestSetProjectProfileMissingFile(t *testing.T) {
	err := SetProjectProfile(t.TempDir(), "tuva_demo")
	require.Error(t, err)
}
