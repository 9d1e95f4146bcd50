package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists means the clone target directory is non-empty.
	ErrAlreadyExists = errors.New("sync: target directory already exists")
	// ErrCancelled means the user declined a confirmation prompt.
	ErrCancelled = errors.New("sync: cancelled")
	// ErrUnsupportedPath rejects pushes outside the project root directory.
	// Pushing into subdirectories is a deliberate scope limitation.
	ErrUnsupportedPath = errors.New("sync: only files in the project root can be pushed")
)

// ConflictError marks a push that would overwrite an independent remote
// change. Conflicts are detected and refused, never auto-resolved.
type ConflictError struct {
	Path       string
	LocalHash  string
	RemoteHash string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sync: %s changed remotely since last sync (remote %s); pull first", e.Path, shortHash(e.RemoteHash))
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	if h == "" {
		return "removed"
	}
	return h
}
