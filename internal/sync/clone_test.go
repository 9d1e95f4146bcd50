package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

func TestClone(t *testing.T) {
	remote := newFakeRemote("thesis", map[string][]byte{
		"main.tex": []byte("\\documentclass{article}"),
		"refs.bib": []byte("@book{k}"),
	})
	syncer := NewSyncer(remote.factory(), nil)

	parent := t.TempDir()
	result, err := syncer.Clone(context.Background(), "proj-1", parent)
	require.NoError(t, err)

	root := filepath.Join(parent, "thesis")
	assert.Equal(t, root, result.Root)
	assert.Equal(t, []string{"main.tex", "refs.bib"}, result.Files)
	assert.Equal(t, int64(len("\\documentclass{article}")+len("@book{k}")), result.Bytes)
	assert.Equal(t, "\\documentclass{article}", readFile(t, filepath.Join(root, "main.tex")))
	assert.True(t, remote.closed, "connection must be released")

	record, err := state.NewTracker(root).Load()
	require.NoError(t, err)
	assert.Equal(t, "proj-1", record.Project.ID)
	assert.Equal(t, remote.snapshot, record.LastSnapshot)
}

func TestCloneRefusesNonEmptyTarget(t *testing.T) {
	remote := newFakeRemote("thesis", map[string][]byte{"main.tex": []byte("x")})
	syncer := NewSyncer(remote.factory(), nil)

	parent := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(parent, "thesis"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "thesis", "stale.txt"), []byte("old"), 0o644))

	_, err := syncer.Clone(context.Background(), "proj-1", parent)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCloneCleansUpOnFailure(t *testing.T) {
	remote := newFakeRemote("thesis", map[string][]byte{
		"a.tex": []byte("a"),
		"b.tex": []byte("b"),
		"c.tex": []byte("c"),
	})
	remote.fetchErrAfter = 2
	syncer := NewSyncer(remote.factory(), nil)

	parent := t.TempDir()
	_, err := syncer.Clone(context.Background(), "proj-1", parent)
	require.Error(t, err)

	assert.False(t, utils.DirExists(filepath.Join(parent, "thesis")), "partial clone must be removed")
	assert.True(t, remote.closed)
}

func TestCloneCleansUpPreexistingDirectory(t *testing.T) {
	remote := newFakeRemote("thesis", map[string][]byte{
		"a.tex": []byte("a"),
		"b.tex": []byte("b"),
		"c.tex": []byte("c"),
	})
	remote.fetchErrAfter = 2
	syncer := NewSyncer(remote.factory(), nil)

	// The user made the (empty) target directory themselves; a failed clone
	// must still leave nothing partial inside it.
	parent := t.TempDir()
	root := filepath.Join(parent, "thesis")
	require.NoError(t, os.MkdirAll(root, 0o755))

	_, err := syncer.Clone(context.Background(), "proj-1", parent)
	require.Error(t, err)

	assert.True(t, utils.DirExists(root), "user-created directory is kept")
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed clone must leave no partial files")
}
