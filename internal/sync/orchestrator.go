// Package sync implements clone, pull and push as algorithms over the local
// filesystem, the last-known remote snapshot and the realtime channel.
//
// Each command is a one-shot run over a single remote connection. Filesystem
// effects happen first; the sync record is only advanced once they have all
// succeeded, so an interrupted command recomputes the same remaining diff on
// retry.
package sync

import (
	"context"

	"github.com/olsync/olsync/internal/state"
)

// RemoteClient is the slice of the protocol client the orchestrator uses.
// One instance corresponds to one connection; Close must be called on every
// exit path.
type RemoteClient interface {
	FetchProjectState(ctx context.Context) (state.Project, state.Snapshot, error)
	FetchFile(ctx context.Context, path string) ([]byte, error)
	PushFile(ctx context.Context, path string, content []byte) (state.FileEntry, error)
	Close()
}

// ClientFactory opens a remote client for one project. The orchestrator
// creates exactly one per command invocation.
type ClientFactory func(projectID string) RemoteClient

// Confirmer asks the user to approve a destructive step. Implementations
// return false when the user declines.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// confirmFunc adapts a plain function to the Confirmer interface.
type confirmFunc func(prompt string) (bool, error)

func (f confirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// AlwaysConfirm approves every prompt. Used by --force and in tests.
var AlwaysConfirm Confirmer = confirmFunc(func(string) (bool, error) { return true, nil })

// Syncer orchestrates sync commands against one account's remote.
type Syncer struct {
	newClient ClientFactory
	confirm   Confirmer
}

// NewSyncer builds a Syncer. confirm may be nil, in which case every
// destructive step is approved.
func NewSyncer(newClient ClientFactory, confirm Confirmer) *Syncer {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Syncer{
		newClient: newClient,
		confirm:   confirm,
	}
}
