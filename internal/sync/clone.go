package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// CloneResult reports what a clone produced.
type CloneResult struct {
	Project state.Project
	Root    string
	Files   []string
	Bytes   int64
}

// Clone fetches the full remote project state and materializes it in a fresh
// directory under parentDir, named after the project. A failed clone leaves
// no partial files behind.
func (s *Syncer) Clone(ctx context.Context, projectID, parentDir string) (*CloneResult, error) {
	client := s.newClient(projectID)
	defer client.Close()

	project, snapshot, err := client.FetchProjectState(ctx)
	if err != nil {
		return nil, err
	}

	root := filepath.Join(parentDir, project.Name)
	if empty, err := utils.DirIsEmpty(root); err != nil {
		return nil, fmt.Errorf("sync: inspect %s: %w", root, err)
	} else if !empty {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, root)
	}

	created := !utils.DirExists(root)
	if err := utils.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("sync: create %s: %w", root, err)
	}

	// A failed clone must leave no partial state behind. A directory this
	// clone created is removed outright; a pre-existing (empty) one is kept
	// but emptied of everything written into it.
	var written []string
	cleanup := func() {
		if created {
			os.RemoveAll(root)
			return
		}
		for _, dst := range written {
			os.Remove(dst)
		}
		os.RemoveAll(filepath.Join(root, state.ControlDir))
	}

	paths := make([]string, 0, len(snapshot))
	for path := range snapshot {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := &CloneResult{
		Project: project,
		Root:    root,
		Files:   paths,
	}

	for _, path := range paths {
		content, err := client.FetchFile(ctx, path)
		if err != nil {
			cleanup()
			return nil, err
		}

		dst := filepath.Join(root, filepath.FromSlash(path))
		if err := utils.WriteFileAtomic(dst, content, 0o644); err != nil {
			cleanup()
			return nil, fmt.Errorf("sync: write %s: %w", path, err)
		}
		written = append(written, dst)
		result.Bytes += int64(len(content))
		slog.Debug("cloned file", "path", path, "size", len(content))
	}

	tracker := state.NewTracker(root)
	record := &state.Record{
		Project:      project,
		LastSnapshot: snapshot,
	}
	if err := tracker.Save(record); err != nil {
		cleanup()
		return nil, err
	}

	return result, nil
}
