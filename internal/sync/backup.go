package sync

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// CreateBackup copies the named local files into a fresh timestamped
// directory under the project's control directory, preserving relative
// paths. Paths that do not exist locally are skipped. Returns the backup
// directory, or "" when nothing needed copying.
func CreateBackup(tracker *state.Tracker, projectName string, paths []string) (string, error) {
	backupDir := filepath.Join(
		tracker.ControlPath(),
		fmt.Sprintf("%s-%d.local.bak", projectName, time.Now().UnixMilli()),
	)

	copied := 0
	for _, relPath := range paths {
		src := filepath.Join(tracker.Root(), filepath.FromSlash(relPath))
		if !utils.FileExists(src) {
			continue
		}

		dst := filepath.Join(backupDir, filepath.FromSlash(relPath))
		if err := utils.CopyFile(src, dst); err != nil {
			return "", fmt.Errorf("sync: backup %s: %w", relPath, err)
		}
		copied++
	}

	if copied == 0 {
		return "", nil
	}
	return backupDir, nil
}
