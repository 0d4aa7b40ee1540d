package extension_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverOnMissingDirectoryErrors(t *testing.T) {
	h, _, _ := newHost(t)
	err := h.Discover(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestDiscoverSkipsNonPluginFilesAndBadBinaries(t *testing.T) {
	h, _, _ := newHost(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a plugin"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.so"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.so"), []byte("not an elf plugin"), 0o644))

	err := h.Discover(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, h.Enabled())
}
