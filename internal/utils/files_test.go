package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("classes: []\n"), 0o644))
}

func TestFindDefinitionFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.yaml"))
	touch(t, filepath.Join(dir, "a.yml"))
	touch(t, filepath.Join(dir, "nested", "c.yaml"))
	touch(t, filepath.Join(dir, "notes.txt"))

	files, err := FindDefinitionFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)
}

func TestExpandDefinitionPaths(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.yaml")
	touch(t, single)
	touch(t, filepath.Join(dir, "models", "person.yaml"))

	files, err := ExpandDefinitionPaths([]string{single, filepath.Join(dir, "models"), single})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "models", "person.yaml")}, files)

	_, err = ExpandDefinitionPaths([]string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}
