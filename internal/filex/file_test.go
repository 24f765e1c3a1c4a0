package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	// second call is a no-op
	require.NoError(t, EnsureDir(dir))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()

	require.False(t, Exists(filepath.Join(dir, "missing.bin")))
	require.False(t, Exists(dir), "directories are not regular files")

	path := filepath.Join(dir, "blob.enc")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))
	require.True(t, Exists(path))
}
