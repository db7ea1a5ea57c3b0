// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Guild settings, streamer entries, and resolutions with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			announce_channel_id TEXT NOT NULL,
			avatar_channel_id TEXT,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS streamers (
			guild_id TEXT NOT NULL,
			request_id TEXT NOT NULL,
			requester_id TEXT NOT NULL,
			usernames TEXT NOT NULL,
			channels TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (guild_id, request_id)
		);

		CREATE INDEX IF NOT EXISTS idx_streamers_guild
			ON streamers(guild_id);

		CREATE TABLE IF NOT EXISTS resolutions (
			guild_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			status TEXT NOT NULL,
			moderator_id TEXT NOT NULL,
			resolved_at DATETIME NOT NULL,
			PRIMARY KEY (guild_id, message_id)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// UpsertGuildSettings writes the setup wizard's result. Last write wins.
func (s *SQLiteStore) UpsertGuildSettings(ctx context.Context, settings *GuildSettings) error {
	settings.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, announce_channel_id, avatar_channel_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			announce_channel_id = excluded.announce_channel_id,
			avatar_channel_id = excluded.avatar_channel_id,
			updated_at = excluded.updated_at`,
		settings.GuildID, settings.AnnounceChannelID, settings.AvatarChannelID, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting guild settings: %w", err)
	}
	return nil
}

// GetGuildSettings retrieves a guild's setup configuration.
func (s *SQLiteStore) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	settings := &GuildSettings{}
	err := s.db.QueryRowContext(ctx, `
		SELECT guild_id, announce_channel_id, avatar_channel_id, updated_at
		FROM guild_settings WHERE guild_id = ?`, guildID).
		Scan(&settings.GuildID, &settings.AnnounceChannelID, &settings.AvatarChannelID, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting guild settings: %w", err)
	}
	return settings, nil
}

// UpsertStreamer writes an approved streamer entry keyed by guild and
// originating request, so re-delivery converges instead of duplicating.
func (s *SQLiteStore) UpsertStreamer(ctx context.Context, st *Streamer) error {
	usernames, err := json.Marshal(st.Usernames)
	if err != nil {
		return fmt.Errorf("marshaling usernames: %w", err)
	}
	channels, err := json.Marshal(st.Channels)
	if err != nil {
		return fmt.Errorf("marshaling channels: %w", err)
	}

	st.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO streamers (guild_id, request_id, requester_id, usernames, channels, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, request_id) DO UPDATE SET
			requester_id = excluded.requester_id,
			usernames = excluded.usernames,
			channels = excluded.channels,
			updated_at = excluded.updated_at`,
		st.GuildID, st.RequestID, st.RequesterID, usernames, channels, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting streamer: %w", err)
	}
	return nil
}

// GetStreamer retrieves one streamer entry.
func (s *SQLiteStore) GetStreamer(ctx context.Context, guildID, requestID string) (*Streamer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT guild_id, request_id, requester_id, usernames, channels, updated_at
		FROM streamers WHERE guild_id = ? AND request_id = ?`, guildID, requestID)
	return scanStreamer(row)
}

// ListStreamers returns all streamer entries for a guild.
func (s *SQLiteStore) ListStreamers(ctx context.Context, guildID string) ([]*Streamer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, request_id, requester_id, usernames, channels, updated_at
		FROM streamers WHERE guild_id = ? ORDER BY updated_at`, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing streamers: %w", err)
	}
	defer rows.Close()

	var streamers []*Streamer
	for rows.Next() {
		st, err := scanStreamer(rows)
		if err != nil {
			return nil, err
		}
		streamers = append(streamers, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating streamers: %w", err)
	}
	return streamers, nil
}

// scanner matches both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanStreamer(row scanner) (*Streamer, error) {
	st := &Streamer{}
	var usernames, channels []byte

	err := row.Scan(&st.GuildID, &st.RequestID, &st.RequesterID, &usernames, &channels, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning streamer: %w", err)
	}

	if err := json.Unmarshal(usernames, &st.Usernames); err != nil {
		return nil, fmt.Errorf("unmarshaling usernames: %w", err)
	}
	if err := json.Unmarshal(channels, &st.Channels); err != nil {
		return nil, fmt.Errorf("unmarshaling channels: %w", err)
	}
	return st, nil
}

// SetResolution records an approval record's final state. Last write wins.
func (s *SQLiteStore) SetResolution(ctx context.Context, r *Resolution) error {
	r.ResolvedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (guild_id, message_id, status, moderator_id, resolved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, message_id) DO UPDATE SET
			status = excluded.status,
			moderator_id = excluded.moderator_id,
			resolved_at = excluded.resolved_at`,
		r.GuildID, r.MessageID, r.Status, r.ModeratorID, r.ResolvedAt)
	if err != nil {
		return fmt.Errorf("setting resolution: %w", err)
	}
	return nil
}

// GetResolution retrieves an approval record's resolution, if any.
func (s *SQLiteStore) GetResolution(ctx context.Context, guildID, messageID string) (*Resolution, error) {
	r := &Resolution{}
	err := s.db.QueryRowContext(ctx, `
		SELECT guild_id, message_id, status, moderator_id, resolved_at
		FROM resolutions WHERE guild_id = ? AND message_id = ?`, guildID, messageID).
		Scan(&r.GuildID, &r.MessageID, &r.Status, &r.ModeratorID, &r.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting resolution: %w", err)
	}
	return r, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
