// ABOUTME: Store interface and data types for herald's durable guild configuration.
// ABOUTME: Writes only happen at workflow terminal steps and are idempotent upserts.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// GuildSettings holds the channels chosen during the setup wizard.
type GuildSettings struct {
	GuildID           string
	AnnounceChannelID string
	AvatarChannelID   *string // nil when the avatar step was skipped
	UpdatedAt         time.Time
}

// Streamer is an approved streamer-announcement entry. RequestID is the
// message ID of the approval record it came from, which makes re-delivered
// terminal tokens converge on the same row instead of duplicating it.
type Streamer struct {
	GuildID     string
	RequestID   string
	RequesterID string
	Usernames   map[string]string // platform name -> username
	Channels    []string          // channels announcements post to
	UpdatedAt   time.Time
}

// ResolutionStatus values for an approval record.
const (
	ResolutionApproved = "approved"
	ResolutionDenied   = "denied"
)

// Resolution records the final state of an approval record. A second
// button press on a resolved record finds this row and is rejected.
type Resolution struct {
	GuildID     string
	MessageID   string
	Status      string
	ModeratorID string
	ResolvedAt  time.Time
}

// Store defines the interface for guild configuration persistence.
// Every write is a single upsert keyed by guild plus a logical name;
// terminal steps of different workflows write disjoint keys.
type Store interface {
	// Setup wizard
	UpsertGuildSettings(ctx context.Context, settings *GuildSettings) error
	GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error)

	// Streamer announcements
	UpsertStreamer(ctx context.Context, s *Streamer) error
	GetStreamer(ctx context.Context, guildID, requestID string) (*Streamer, error)
	ListStreamers(ctx context.Context, guildID string) ([]*Streamer, error)

	// Approval record resolutions
	SetResolution(ctx context.Context, r *Resolution) error
	GetResolution(ctx context.Context, guildID, messageID string) (*Resolution, error)

	// Close releases any resources held by the store
	Close() error
}
