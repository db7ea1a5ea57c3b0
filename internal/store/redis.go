// ABOUTME: Redis implementation of the Store interface using go-redis.
// ABOUTME: JSON values under guild-scoped keys; listing via a per-guild index set.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface backed by Redis. Each logical
// setting lives under its own guild-scoped key, written as a single JSON
// value, so every upsert is one idempotent SET.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	logger := slog.Default().With("component", "store")
	logger.Info("Redis store initialized", "addr", addr, "db", db)

	return &RedisStore{client: client, logger: logger}, nil
}

func settingsKey(guildID string) string {
	return "guild:" + guildID + ":settings"
}

func streamerKey(guildID, requestID string) string {
	return "guild:" + guildID + ":streamer:" + requestID
}

func streamerIndexKey(guildID string) string {
	return "guild:" + guildID + ":streamers"
}

func resolutionKey(guildID, messageID string) string {
	return "guild:" + guildID + ":resolution:" + messageID
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return nil
}

// UpsertGuildSettings writes the setup wizard's result. Last write wins.
func (s *RedisStore) UpsertGuildSettings(ctx context.Context, settings *GuildSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return s.setJSON(ctx, settingsKey(settings.GuildID), settings)
}

// GetGuildSettings retrieves a guild's setup configuration.
func (s *RedisStore) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	settings := &GuildSettings{}
	if err := s.getJSON(ctx, settingsKey(guildID), settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpsertStreamer writes an approved streamer entry and indexes it for listing.
func (s *RedisStore) UpsertStreamer(ctx context.Context, st *Streamer) error {
	st.UpdatedAt = time.Now().UTC()
	if err := s.setJSON(ctx, streamerKey(st.GuildID, st.RequestID), st); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, streamerIndexKey(st.GuildID), st.RequestID).Err(); err != nil {
		return fmt.Errorf("indexing streamer: %w", err)
	}
	return nil
}

// GetStreamer retrieves one streamer entry.
func (s *RedisStore) GetStreamer(ctx context.Context, guildID, requestID string) (*Streamer, error) {
	st := &Streamer{}
	if err := s.getJSON(ctx, streamerKey(guildID, requestID), st); err != nil {
		return nil, err
	}
	return st, nil
}

// ListStreamers returns all streamer entries for a guild.
func (s *RedisStore) ListStreamers(ctx context.Context, guildID string) ([]*Streamer, error) {
	ids, err := s.client.SMembers(ctx, streamerIndexKey(guildID)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing streamer index: %w", err)
	}

	var streamers []*Streamer
	for _, id := range ids {
		st, err := s.GetStreamer(ctx, guildID, id)
		if errors.Is(err, ErrNotFound) {
			continue // index entry without a value, skip
		}
		if err != nil {
			return nil, err
		}
		streamers = append(streamers, st)
	}
	return streamers, nil
}

// SetResolution records an approval record's final state. Last write wins.
func (s *RedisStore) SetResolution(ctx context.Context, r *Resolution) error {
	r.ResolvedAt = time.Now().UTC()
	return s.setJSON(ctx, resolutionKey(r.GuildID, r.MessageID), r)
}

// GetResolution retrieves an approval record's resolution, if any.
func (s *RedisStore) GetResolution(ctx context.Context, guildID, messageID string) (*Resolution, error) {
	r := &Resolution{}
	if err := s.getJSON(ctx, resolutionKey(guildID, messageID), r); err != nil {
		return nil, err
	}
	return r, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
