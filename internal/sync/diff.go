package sync

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// IgnoreFileName holds gitignore-style patterns for local files that are not
// part of the project state (editor artifacts, build output). It lives at the
// project root and is itself local-only.
const IgnoreFileName = ".olsyncignore"

// Diff is the comparison of two snapshots. Paths are project-root relative.
type Diff struct {
	Added     []string
	Modified  []string
	Removed   []string
	Unchanged []string
}

// Empty reports whether the diff carries no changes.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// Changed returns all added and modified paths, sorted.
func (d *Diff) Changed() []string {
	out := make([]string, 0, len(d.Added)+len(d.Modified))
	out = append(out, d.Added...)
	out = append(out, d.Modified...)
	sort.Strings(out)
	return out
}

// ComputeDiff compares snapshots by content hash. Entries in next but not in
// prev are added; entries in prev but not in next are removed.
func ComputeDiff(prev, next state.Snapshot) *Diff {
	var diff Diff

	for path, entry := range next {
		prevEntry, ok := prev[path]
		switch {
		case !ok:
			diff.Added = append(diff.Added, path)
		case prevEntry.Hash != entry.Hash:
			diff.Modified = append(diff.Modified, path)
		default:
			diff.Unchanged = append(diff.Unchanged, path)
		}
	}

	for path := range prev {
		if _, ok := next[path]; !ok {
			diff.Removed = append(diff.Removed, path)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Modified)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Unchanged)

	return &diff
}

// ScanLocal hashes the live project files under root into a snapshot. The
// .olsync control directory, the ignore file and any path matching its
// patterns are not part of the project state.
func ScanLocal(root string) (state.Snapshot, error) {
	ignorer, err := loadIgnoreRules(root)
	if err != nil {
		return nil, err
	}

	snapshot := state.Snapshot{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", path, walkErr)
		}

		if d.IsDir() {
			if d.Name() == state.ControlDir {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		if relPath == IgnoreFileName || ignorer.MatchesPath(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		hash, err := utils.FileHash(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}

		snapshot[relPath] = state.FileEntry{
			Hash: hash,
			Size: info.Size(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sync: local scan failed: %w", err)
	}

	return snapshot, nil
}

// loadIgnoreRules compiles the project's ignore file. A missing file yields
// an empty rule set that matches nothing.
func loadIgnoreRules(root string) (*ignore.GitIgnore, error) {
	path := filepath.Join(root, IgnoreFileName)
	if !utils.FileExists(path) {
		return ignore.CompileIgnoreLines(), nil
	}

	ignorer, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("sync: parse %s: %w", IgnoreFileName, err)
	}
	return ignorer, nil
}
