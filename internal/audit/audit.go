// ABOUTME: Normalized audit events emitted at the guild-protection boundary.
// ABOUTME: The anti-nuke engine consumes these externally; herald only attributes and emits.

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action types herald emits.
const (
	ActionMessageCreate  = "message_create"
	ActionMessageUpdate  = "message_update"
	ActionConfigWrite    = "config_write"
	ActionStreamerUpsert = "streamer_upsert"
)

// Event is a normalized audit event. ActorID is always the bot's own
// service account for actions herald performs; the guild-protection engine
// relies on that to tell bot-driven changes from human abuse.
type Event struct {
	ID         string
	ActorID    string
	ActionType string
	TargetID   string
	GuildID    string
	Timestamp  time.Time
}

// Sink receives audit events. Implementations must not block the calling
// workflow; a failed emit is the sink's problem, never the interaction's.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// Recorder stamps events with the bot's service-account ID and forwards
// them to a sink.
type Recorder struct {
	botUserID string
	sink      Sink
}

// NewRecorder creates a Recorder attributing all events to botUserID.
func NewRecorder(botUserID string, sink Sink) *Recorder {
	return &Recorder{botUserID: botUserID, sink: sink}
}

// Record emits one event. ID and Timestamp are filled here; ActorID is
// always the bot account, regardless of which user's interaction caused
// the action.
func (r *Recorder) Record(ctx context.Context, actionType, targetID, guildID string) {
	r.sink.Record(ctx, Event{
		ID:         uuid.New().String(),
		ActorID:    r.botUserID,
		ActionType: actionType,
		TargetID:   targetID,
		GuildID:    guildID,
		Timestamp:  time.Now().UTC(),
	})
}

// SlogSink writes events to a structured logger. It stands in for the
// external engine's real subscription transport.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a SlogSink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger.With("component", "audit")}
}

// Record logs the event.
func (s *SlogSink) Record(ctx context.Context, event Event) {
	s.logger.Info("audit event",
		"event_id", event.ID,
		"actor_id", event.ActorID,
		"action_type", event.ActionType,
		"target_id", event.TargetID,
		"guild_id", event.GuildID,
	)
}
