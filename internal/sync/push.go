package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// PushOptions control a push run.
type PushOptions struct {
	// Force skips the confirmation prompt before uploading.
	Force bool
}

// PushResult reports the per-file outcome of a push.
type PushResult struct {
	Pushed    []string
	Unchanged []string
	Conflicts []*ConflictError
}

// Push uploads the named local files to the project root.
//
// Files whose content matches the last-synced snapshot are skipped. Before
// uploading a candidate, the current remote state for that path is compared
// against the snapshot recorded at the last sync; an independent remote
// change refuses the upload with a conflict instead of losing it. A file
// that conflicts or fails leaves the snapshot untouched for that path, so a
// retry sees the same state.
func (s *Syncer) Push(ctx context.Context, root string, files []string, opts PushOptions) (*PushResult, error) {
	tracker := state.NewTracker(root)
	record, err := tracker.Load()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		relPath, err := normalizePushPath(root, file)
		if err != nil {
			return nil, err
		}
		paths = append(paths, relPath)
	}

	result := &PushResult{}

	// Hash the live files up front so unchanged ones are reported without
	// touching the network at all.
	type candidate struct {
		path    string
		content []byte
	}
	var candidates []candidate

	for _, relPath := range paths {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
		if err != nil {
			return nil, fmt.Errorf("sync: read %s: %w", relPath, err)
		}

		liveHash := utils.ContentHash(content)
		if entry, ok := record.LastSnapshot[relPath]; ok && entry.Hash == liveHash {
			result.Unchanged = append(result.Unchanged, relPath)
			continue
		}

		candidates = append(candidates, candidate{path: relPath, content: content})
	}

	if len(candidates) == 0 {
		return result, nil
	}

	if !opts.Force {
		ok, err := s.confirm.Confirm("Pushing will overwrite the remote files. Continue?")
		if err != nil {
			return nil, fmt.Errorf("sync: confirmation failed: %w", err)
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	client := s.newClient(record.Project.ID)
	defer client.Close()

	_, remote, err := client.FetchProjectState(ctx)
	if err != nil {
		return nil, err
	}

	var pushErrs []error
	for _, cand := range candidates {
		if conflict := detectConflict(cand.path, record.LastSnapshot, remote); conflict != nil {
			slog.Warn("push conflict", "path", cand.path)
			result.Conflicts = append(result.Conflicts, conflict)
			continue
		}

		entry, err := client.PushFile(ctx, cand.path, cand.content)
		if err != nil {
			pushErrs = append(pushErrs, err)
			continue
		}

		// Persist per file so an interrupted push stays consistent for the
		// files that did complete.
		record.LastSnapshot[cand.path] = entry
		if err := tracker.Save(record); err != nil {
			return result, err
		}
		result.Pushed = append(result.Pushed, cand.path)
		slog.Debug("pushed file", "path", cand.path, "hash", entry.Hash)
	}

	return result, errors.Join(pushErrs...)
}

// detectConflict is the lost-update guard: if the remote's current hash for
// path differs from the hash recorded at the last sync, someone changed the
// file remotely and the push must not overwrite it.
func detectConflict(path string, last, remote state.Snapshot) *ConflictError {
	lastEntry, tracked := last[path]
	remoteEntry, existsRemotely := remote[path]

	if !tracked {
		// New local file: conflicts only if the remote independently grew a
		// file at the same path.
		if existsRemotely {
			return &ConflictError{Path: path, RemoteHash: remoteEntry.Hash}
		}
		return nil
	}

	if !existsRemotely {
		// Tracked file deleted remotely since the last sync.
		return &ConflictError{Path: path, LocalHash: lastEntry.Hash}
	}

	if remoteEntry.Hash != lastEntry.Hash {
		return &ConflictError{Path: path, LocalHash: lastEntry.Hash, RemoteHash: remoteEntry.Hash}
	}

	return nil
}

// normalizePushPath validates that file names a path directly in the project
// root. Directory-structured pushes are rejected, not silently flattened.
func normalizePushPath(root, file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("sync: resolve %s: %w", file, err)
	}

	relPath, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("%w: %s is outside the project", ErrUnsupportedPath, file)
	}

	relPath = filepath.ToSlash(relPath)
	if strings.Contains(relPath, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPath, relPath)
	}
	if relPath == state.ControlDir || relPath == "." {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPath, file)
	}

	return relPath, nil
}
