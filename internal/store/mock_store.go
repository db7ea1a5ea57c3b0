// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows workflow tests to run without SQLite or Redis, with injectable failures

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing. Setting
// FailWrites makes every write return the given error, which tests use to
// exercise the recoverable upstream-write path.
type MockStore struct {
	mu          sync.RWMutex
	settings    map[string]*GuildSettings // keyed by guildID
	streamers   map[string]*Streamer      // keyed by "guildID:requestID"
	resolutions map[string]*Resolution    // keyed by "guildID:messageID"

	// FailWrites, when non-nil, is returned from every write method.
	FailWrites error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		settings:    make(map[string]*GuildSettings),
		streamers:   make(map[string]*Streamer),
		resolutions: make(map[string]*Resolution),
	}
}

// UpsertGuildSettings stores a copy of the settings.
func (m *MockStore) UpsertGuildSettings(ctx context.Context, settings *GuildSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}

	s := *settings
	s.UpdatedAt = time.Now().UTC()
	m.settings[s.GuildID] = &s
	return nil
}

// GetGuildSettings retrieves guild settings by guild ID.
func (m *MockStore) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

// UpsertStreamer stores a copy of the streamer entry.
func (m *MockStore) UpsertStreamer(ctx context.Context, st *Streamer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}

	copied := *st
	copied.UpdatedAt = time.Now().UTC()
	m.streamers[st.GuildID+":"+st.RequestID] = &copied
	return nil
}

// GetStreamer retrieves one streamer entry.
func (m *MockStore) GetStreamer(ctx context.Context, guildID, requestID string) (*Streamer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.streamers[guildID+":"+requestID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *st
	return &copied, nil
}

// ListStreamers returns all streamer entries for a guild, ordered by request ID.
func (m *MockStore) ListStreamers(ctx context.Context, guildID string) ([]*Streamer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Streamer
	for _, st := range m.streamers {
		if st.GuildID == guildID {
			copied := *st
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestID < result[j].RequestID
	})
	return result, nil
}

// SetResolution stores a copy of the resolution.
func (m *MockStore) SetResolution(ctx context.Context, r *Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}

	copied := *r
	copied.ResolvedAt = time.Now().UTC()
	m.resolutions[r.GuildID+":"+r.MessageID] = &copied
	return nil
}

// GetResolution retrieves a resolution.
func (m *MockStore) GetResolution(ctx context.Context, guildID, messageID string) (*Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.resolutions[guildID+":"+messageID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
