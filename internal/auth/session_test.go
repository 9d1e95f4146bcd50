package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	ts, err := ParseExpiry("2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC).Unix(), ts)

	ts, err = ParseExpiry("2026-09-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC).Unix(), ts)
}

func TestParseExpiryEmpty(t *testing.T) {
	ts, err := ParseExpiry("  ")
	require.NoError(t, err)
	assert.Zero(t, ts, "blank input means expiry unknown")
}

func TestParseExpiryInvalid(t *testing.T) {
	_, err := ParseExpiry("next tuesday")
	assert.Error(t, err)
}

func TestParsedExpiryDrivesExpired(t *testing.T) {
	past, err := ParseExpiry("2020-01-01")
	require.NoError(t, err)
	expired := Cookie{Name: "overleaf_session2", Value: "v", Expires: past}
	assert.True(t, expired.Expired())

	unknown := Cookie{Name: "overleaf_session2", Value: "v"}
	assert.False(t, unknown.Expired())
}
