// ABOUTME: Tests for dashboard session token mint/verify round trips.
// ABOUTME: Covers expiry, wrong secret, malformed tokens, and secret length.

package dashauth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestBridge_RoundTrip(t *testing.T) {
	b, err := NewBridge(testSecret)
	require.NoError(t, err)

	tok, err := b.Mint("u1", "g1", time.Hour)
	require.NoError(t, err)

	session, err := b.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "g1", session.GuildID)
}

func TestBridge_Expired(t *testing.T) {
	b, err := NewBridge(testSecret)
	require.NoError(t, err)

	tok, err := b.Mint("u1", "g1", -time.Minute)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestBridge_WrongSecret(t *testing.T) {
	b1, err := NewBridge(testSecret)
	require.NoError(t, err)
	b2, err := NewBridge([]byte(strings.Repeat("x", 32)))
	require.NoError(t, err)

	tok, err := b1.Mint("u1", "g1", time.Hour)
	require.NoError(t, err)

	_, err = b2.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBridge_Malformed(t *testing.T) {
	b, err := NewBridge(testSecret)
	require.NoError(t, err)

	_, err = b.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewBridge_ShortSecret(t *testing.T) {
	_, err := NewBridge([]byte("short"))
	assert.Error(t, err)
}
