package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir, nil)
	require.NoError(t, err)

	require.NoError(t, w.Write("core.go", []byte("first")))
	require.NoError(t, w.Write("core.go", []byte("second")))

	content, err := os.ReadFile(filepath.Join(dir, "core.go"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content), "module files are overwritten")
}

func TestWriter_WriteExclusive(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)

	written, err := w.WriteExclusive("VectorOfint.type.h", []byte("original"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = w.WriteExclusive("VectorOfint.type.h", []byte("replacement"))
	require.NoError(t, err)
	assert.False(t, written)

	content, err := os.ReadFile(w.Path("VectorOfint.type.h"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(content), "shared files are never overwritten")

	assert.Equal(t, []string{"VectorOfint.type.h"}, w.Written())
	assert.Equal(t, []string{"VectorOfint.type.h"}, w.Skipped())
}

func TestClearDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deeper"), os.ModePerm))

	empty, err := IsEmpty(dir)
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, ClearDirectory(dir))

	empty, err = IsEmpty(dir)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, ClearDirectory(filepath.Join(dir, "missing")))
}
