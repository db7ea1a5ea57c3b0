// ABOUTME: Tests for the Redis store against an in-process miniredis instance.
// ABOUTME: Mirrors the SQLite coverage: round trips, convergence, not-found.

package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisStore_GuildSettings(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.GetGuildSettings(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertGuildSettings(ctx, &GuildSettings{
		GuildID:           "g1",
		AnnounceChannelID: "c1",
	}))

	got, err := s.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.AnnounceChannelID)
	assert.Nil(t, got.AvatarChannelID)
}

func TestRedisStore_Streamers(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	entry := &Streamer{
		GuildID:     "g1",
		RequestID:   "m1",
		RequesterID: "u1",
		Usernames:   map[string]string{"twitch": "foo"},
		Channels:    []string{"A"},
	}
	require.NoError(t, s.UpsertStreamer(ctx, entry))
	require.NoError(t, s.UpsertStreamer(ctx, entry)) // converges, not additive

	list, err := s.ListStreamers(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]string{"twitch": "foo"}, list[0].Usernames)

	got, err := s.GetStreamer(ctx, "g1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.RequesterID)

	_, err = s.GetStreamer(ctx, "g1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Resolutions(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetResolution(ctx, &Resolution{
		GuildID:     "g1",
		MessageID:   "m1",
		Status:      ResolutionApproved,
		ModeratorID: "mod",
	}))

	got, err := s.GetResolution(ctx, "g1", "m1")
	require.NoError(t, err)
	assert.Equal(t, ResolutionApproved, got.Status)

	_, err = s.GetResolution(ctx, "g1", "m2")
	assert.ErrorIs(t, err, ErrNotFound)
}
