package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

func TestComputeDiff(t *testing.T) {
	prev := state.Snapshot{
		"same.tex":    {Hash: "h1"},
		"changed.tex": {Hash: "h2"},
		"gone.tex":    {Hash: "h3"},
	}
	next := state.Snapshot{
		"same.tex":    {Hash: "h1"},
		"changed.tex": {Hash: "h2-new"},
		"new.tex":     {Hash: "h4"},
	}

	diff := ComputeDiff(prev, next)
	assert.Equal(t, []string{"new.tex"}, diff.Added)
	assert.Equal(t, []string{"changed.tex"}, diff.Modified)
	assert.Equal(t, []string{"gone.tex"}, diff.Removed)
	assert.Equal(t, []string{"same.tex"}, diff.Unchanged)
	assert.False(t, diff.Empty())
	assert.Equal(t, []string{"changed.tex", "new.tex"}, diff.Changed())
}

func TestComputeDiffIdentical(t *testing.T) {
	snapshot := state.Snapshot{"a.tex": {Hash: "h1"}}
	diff := ComputeDiff(snapshot, snapshot)
	assert.True(t, diff.Empty())
	assert.Equal(t, []string{"a.tex"}, diff.Unchanged)
}

func TestScanLocal(t *testing.T) {
	root := t.TempDir()
	content := []byte("\\begin{document}")
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.tex"), content, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "chapters"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "chapters", "one.tex"), []byte("ch1"), 0o644))

	// Control directory contents are not project state.
	require.NoError(t, os.MkdirAll(filepath.Join(root, state.ControlDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, state.ControlDir, "sync-record.json"), []byte("{}"), 0o644))

	snapshot, err := ScanLocal(root)
	require.NoError(t, err)

	require.Len(t, snapshot, 2)
	assert.Equal(t, utils.ContentHash(content), snapshot["main.tex"].Hash)
	assert.Equal(t, int64(len(content)), snapshot["main.tex"].Size)
	assert.Contains(t, snapshot, "chapters/one.tex")
}

func TestScanLocalHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.tex"), []byte("doc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.log"), []byte("latex noise"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.aux"), []byte("aux"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("*.log\n*.aux\n"), 0o644))

	snapshot, err := ScanLocal(root)
	require.NoError(t, err)

	require.Len(t, snapshot, 1)
	assert.Contains(t, snapshot, "main.tex")
	assert.NotContains(t, snapshot, "main.log")
	assert.NotContains(t, snapshot, "main.aux")
	assert.NotContains(t, snapshot, IgnoreFileName, "the ignore file itself is local-only")
}

func TestScanLocalWithoutIgnoreFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.log"), []byte("kept"), 0o644))

	snapshot, err := ScanLocal(root)
	require.NoError(t, err)
	assert.Contains(t, snapshot, "main.log")
}
