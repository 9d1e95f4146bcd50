package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// PullOptions control a pull run.
type PullOptions struct {
	// NoBackup skips the safety copy of files about to be mutated.
	NoBackup bool
	// Force skips the confirmation prompt for overwriting local edits.
	Force bool
}

// PullResult reports what a pull applied.
type PullResult struct {
	Downloaded []string
	Deleted    []string
	BackupDir  string
	Bytes      int64
}

// Pull replaces the local project state with the current remote state.
//
// Local edits since the last sync (drift) require confirmation unless forced
// and are backed up unless disabled. Every file write is atomic, and the
// sync record is only advanced after all writes and deletes succeeded: a
// pull that fails partway leaves the record at the pre-pull snapshot so a
// retry recomputes the same remaining diff.
func (s *Syncer) Pull(ctx context.Context, root string, opts PullOptions) (*PullResult, error) {
	tracker := state.NewTracker(root)
	record, err := tracker.Load()
	if err != nil {
		return nil, err
	}

	client := s.newClient(record.Project.ID)
	defer client.Close()

	_, remote, err := client.FetchProjectState(ctx)
	if err != nil {
		return nil, err
	}

	live, err := ScanLocal(root)
	if err != nil {
		return nil, err
	}

	// Files the user edited since the last sync.
	drift := ComputeDiff(record.LastSnapshot, live)

	if !drift.Empty() && !opts.Force {
		ok, err := s.confirm.Confirm("Pulling will overwrite local changes. Continue?")
		if err != nil {
			return nil, fmt.Errorf("sync: confirmation failed: %w", err)
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	// incoming: remote paths whose content differs from the live file (or
	// that do not exist locally yet). Unchanged files are left alone, which
	// also makes back-to-back pulls no-ops.
	incoming := ComputeDiff(live, remote)
	// stale: paths tracked by the last sync that the remote no longer has.
	stale := staleLocalPaths(record.LastSnapshot, remote, live)

	result := &PullResult{}

	if incoming.Empty() && len(stale) == 0 && ComputeDiff(record.LastSnapshot, remote).Empty() {
		// Nothing to apply and the snapshot is already current; leave the
		// record untouched.
		return result, nil
	}

	if !opts.NoBackup {
		backupDir, err := CreateBackup(tracker, record.Project.Name, backupSet(drift, incoming, stale))
		if err != nil {
			return nil, err
		}
		if backupDir != "" {
			slog.Info("saved local backup", "dir", backupDir)
		}
		result.BackupDir = backupDir
	}

	for _, path := range incoming.Changed() {
		content, err := client.FetchFile(ctx, path)
		if err != nil {
			return nil, err
		}

		dst := filepath.Join(root, filepath.FromSlash(path))
		if err := utils.WriteFileAtomic(dst, content, 0o644); err != nil {
			return nil, fmt.Errorf("sync: write %s: %w", path, err)
		}
		result.Downloaded = append(result.Downloaded, path)
		result.Bytes += int64(len(content))
	}

	for _, path := range stale {
		target := filepath.Join(root, filepath.FromSlash(path))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("sync: delete %s: %w", path, err)
		}
		result.Deleted = append(result.Deleted, path)
	}

	record.LastSnapshot = remote
	if err := tracker.Save(record); err != nil {
		return nil, err
	}

	return result, nil
}

// staleLocalPaths returns paths present in the previous snapshot but absent
// from the new remote snapshot, sorted. Only locally present files are
// returned; a file already deleted on both sides needs no action.
func staleLocalPaths(prev, remote, live state.Snapshot) []string {
	var stale []string
	for path := range prev {
		if _, ok := remote[path]; ok {
			continue
		}
		if _, ok := live[path]; !ok {
			continue
		}
		stale = append(stale, path)
	}
	sort.Strings(stale)
	return stale
}

// backupSet collects every local file a pull is about to mutate: drifted
// files, files the incoming remote content will overwrite, and files about
// to be deleted.
func backupSet(drift, incoming *Diff, stale []string) []string {
	set := mapset.NewThreadUnsafeSet[string]()
	set.Append(drift.Added...)
	set.Append(drift.Modified...)
	set.Append(incoming.Modified...)
	set.Append(stale...)

	out := set.ToSlice()
	sort.Strings(out)
	return out
}
