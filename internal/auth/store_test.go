package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *Session {
	return &Session{
		Email:         "user@example.com",
		SessionCookie: Cookie{Name: "overleaf_session2", Value: "s:abc123"},
		GCLBCookie:    Cookie{Name: "GCLB", Value: "xyz"},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(testSession()))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", loaded.Email)
	assert.Equal(t, "s:abc123", loaded.SessionCookie.Value)
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestStoreLoadExpired(t *testing.T) {
	store := NewStore(t.TempDir())

	session := testSession()
	session.SessionCookie.Expires = time.Now().Add(-time.Hour).Unix()
	require.NoError(t, store.Save(session))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestStoreClear(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(testSession()))

	require.NoError(t, store.Clear())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Clearing again is not an error.
	require.NoError(t, store.Clear())
}

func TestStoreFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save(testSession()))

	info, err := os.Stat(filepath.Join(dir, sessionFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCookieHeaderOrder(t *testing.T) {
	session := testSession()
	assert.Equal(t, "GCLB=xyz; overleaf_session2=s:abc123", session.CookieHeader())
}
