// Package state tracks the last-known remote snapshot of a cloned project.
// The record lives under the project's .olsync directory and is only
// advanced after a sync command has fully applied its filesystem effects.
package state

import (
	"time"
)

// Project identifies a sync target. The id never changes for a given local
// root once the project has been cloned.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileEntry describes one remote file as last observed by the server.
type FileEntry struct {
	Hash    string `json:"hash"`
	Size    int64  `json:"size"`
	Version int64  `json:"version"`
}

// Snapshot maps project-root relative paths to their server-observed state.
type Snapshot map[string]FileEntry

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for path, entry := range s {
		out[path] = entry
	}
	return out
}

// Record is the persisted synchronization record: the project identity and
// the remote snapshot as of the last successful clone, pull or push.
type Record struct {
	Project      Project   `json:"project"`
	LastSnapshot Snapshot  `json:"last_snapshot"`
	SyncedAt     time.Time `json:"synced_at"`
}
