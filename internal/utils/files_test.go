package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	err := WriteFileAtomic(path, []byte("hello"), 0o644)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Overwrite through the same path leaves no temp files behind.
	err = WriteFileAtomic(path, []byte("world"), 0o644)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestFileHashMatchesContentHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	content := []byte("\\documentclass{article}")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	fileHash, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, ContentHash(content), fileHash)
}

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "deep", "copy", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestDirIsEmpty(t *testing.T) {
	dir := t.TempDir()

	empty, err := DirIsEmpty(dir)
	require.NoError(t, err)
	assert.True(t, empty)

	empty, err = DirIsEmpty(filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o644))
	empty, err = DirIsEmpty(dir)
	require.NoError(t, err)
	assert.False(t, empty)
}
