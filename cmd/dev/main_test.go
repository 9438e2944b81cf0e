package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+modulePath+"\n\ngo 1.24\n"), 0o600))
	nested := filepath.Join(root, "cmd", "dev", "cmd")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := moduleRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestModuleRootSkipsOtherModules(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+modulePath+"\n"), 0o600))
	other := filepath.Join(root, "_examples", "teacher")
	require.NoError(t, os.MkdirAll(other, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(other, "go.mod"), []byte("module example.com/other\n"), 0o600))

	got, err := moduleRoot(other)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestModuleRootNotFound(t *testing.T) {
	_, err := moduleRoot(t.TempDir())
	assert.ErrorIs(t, err, errNoModule)
}

func TestRootCmdFlags(t *testing.T) {
	c := newRootCmd()
	assert.NotNil(t, c.PersistentFlags().Lookup("root"))
	assert.NotNil(t, c.PersistentFlags().Lookup("debug"))
	assert.Nil(t, c.PersistentFlags().Lookup("version"))
	names := []string{}
	for _, sub := range c.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"build", "test", "lint", "integration-test"}, names)
}
