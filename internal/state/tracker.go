package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/olsync/olsync/internal/utils"
)

const (
	// ControlDir is the per-project control directory, a sibling of the
	// synced files.
	ControlDir = ".olsync"

	recordFileName = "sync-record.json"
)

// ErrNoSyncRecord is returned when the project was never cloned through this
// engine and so has no sync record on disk.
var ErrNoSyncRecord = errors.New("state: no sync record found")

// Tracker reads and writes the sync record for one project root.
type Tracker struct {
	root string
}

// NewTracker returns a tracker for the project rooted at root.
func NewTracker(root string) *Tracker {
	return &Tracker{root: root}
}

// Root returns the project root directory.
func (t *Tracker) Root() string {
	return t.root
}

// ControlPath returns the project's .olsync directory.
func (t *Tracker) ControlPath() string {
	return filepath.Join(t.root, ControlDir)
}

// RecordPath resolves the on-disk location of the sync record.
func (t *Tracker) RecordPath() string {
	return filepath.Join(t.ControlPath(), recordFileName)
}

// Load reads the sync record, failing with ErrNoSyncRecord if absent.
func (t *Tracker) Load() (*Record, error) {
	data, err := os.ReadFile(t.RecordPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSyncRecord
		}
		return nil, fmt.Errorf("state: read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("state: decode record %s: %w", t.RecordPath(), err)
	}
	if rec.LastSnapshot == nil {
		rec.LastSnapshot = Snapshot{}
	}

	return &rec, nil
}

// Save persists the record atomically: the new content is written to a
// temporary file in the control directory and renamed into place, so a crash
// mid-write never leaves a corrupted record.
func (t *Tracker) Save(rec *Record) error {
	rec.SyncedAt = time.Now().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}

	if err := utils.WriteFileAtomic(t.RecordPath(), data, 0o644); err != nil {
		return fmt.Errorf("state: write record: %w", err)
	}

	return nil
}

// FindRoot walks from dir upwards looking for a .olsync control directory
// and returns the project root containing it. It returns ErrNoSyncRecord
// when no ancestor is a cloned project.
func FindRoot(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("state: resolve %s: %w", dir, err)
	}

	for {
		if utils.DirExists(filepath.Join(current, ControlDir)) {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNoSyncRecord
		}
		current = parent
	}
}
