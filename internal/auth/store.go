package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/olsync/olsync/internal/utils"
)

const sessionFileName = "session.json"

// ErrNotAuthenticated is returned by Load when no usable session is stored.
var ErrNotAuthenticated = errors.New("auth: not logged in")

// Store reads and writes the session credential under a fixed directory
// (~/.olsync by default). The file is owner-readable only.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the per-user credential directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("auth: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".olsync"), nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, sessionFileName)
}

// Save persists the session durably with 0600 permissions.
func (s *Store) Save(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}

	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("auth: create %s: %w", s.dir, err)
	}

	if err := utils.WriteFileAtomic(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("auth: write session file: %w", err)
	}

	return nil
}

// Load returns the stored session, or ErrNotAuthenticated if none exists or
// the stored session cookie has expired.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("auth: read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("auth: decode session file: %w", err)
	}

	if !session.Valid() {
		return nil, ErrNotAuthenticated
	}

	return &session, nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("auth: remove session file: %w", err)
	}
	return nil
}
