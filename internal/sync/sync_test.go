package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// fakeRemote implements RemoteClient over in-memory project state.
type fakeRemote struct {
	project  state.Project
	snapshot state.Snapshot
	files    map[string][]byte

	fetchErrAfter int // fail FetchFile after this many successful fetches (0 = never)
	fetchCalls    int
	stateErr      error
	pushErr       error

	pushed map[string][]byte
	closed bool
}

func newFakeRemote(name string, files map[string][]byte) *fakeRemote {
	snapshot := state.Snapshot{}
	for path, content := range files {
		snapshot[path] = state.FileEntry{
			Hash: utils.ContentHash(content),
			Size: int64(len(content)),
		}
	}
	return &fakeRemote{
		project:  state.Project{ID: "proj-1", Name: name},
		snapshot: snapshot,
		files:    files,
		pushed:   map[string][]byte{},
	}
}

func (f *fakeRemote) FetchProjectState(ctx context.Context) (state.Project, state.Snapshot, error) {
	if f.stateErr != nil {
		return state.Project{}, nil, f.stateErr
	}
	return f.project, f.snapshot.Clone(), nil
}

func (f *fakeRemote) FetchFile(ctx context.Context, path string) ([]byte, error) {
	if f.fetchErrAfter > 0 && f.fetchCalls >= f.fetchErrAfter {
		return nil, errors.New("connection dropped")
	}
	f.fetchCalls++

	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("no such file: " + path)
	}
	return content, nil
}

func (f *fakeRemote) PushFile(ctx context.Context, path string, content []byte) (state.FileEntry, error) {
	if f.pushErr != nil {
		return state.FileEntry{}, f.pushErr
	}

	f.files[path] = content
	f.pushed[path] = content
	entry := state.FileEntry{
		Hash: utils.ContentHash(content),
		Size: int64(len(content)),
	}
	f.snapshot[path] = entry
	return entry, nil
}

func (f *fakeRemote) Close() {
	f.closed = true
}

func (f *fakeRemote) factory() ClientFactory {
	return func(projectID string) RemoteClient { return f }
}

// declineAll refuses every confirmation prompt.
var declineAll Confirmer = confirmFunc(func(string) (bool, error) { return false, nil })

// seedProject materializes a cloned project on disk: the given files plus a
// sync record matching them exactly.
func seedProject(t *testing.T, files map[string][]byte) (string, *state.Record) {
	t.Helper()

	root := t.TempDir()
	snapshot := state.Snapshot{}
	for path, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, path), content, 0o644))
		snapshot[path] = state.FileEntry{
			Hash: utils.ContentHash(content),
			Size: int64(len(content)),
		}
	}

	record := &state.Record{
		Project:      state.Project{ID: "proj-1", Name: "thesis"},
		LastSnapshot: snapshot,
	}
	require.NoError(t, state.NewTracker(root).Save(record))

	return root, record
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// recordingConfirmer approves every prompt and remembers what was asked.
type recordingConfirmer struct {
	prompts []string
}

func (r *recordingConfirmer) Confirm(prompt string) (bool, error) {
	r.prompts = append(r.prompts, prompt)
	return true, nil
}
