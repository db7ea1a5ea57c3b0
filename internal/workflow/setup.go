// ABOUTME: Setup wizard: announcement channel, then avatar channel or skip.
// ABOUTME: The wizard message is edited in place at every step; the terminal step writes GuildSettings.

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/herald/internal/audit"
	"github.com/2389/herald/internal/gateway"
	"github.com/2389/herald/internal/store"
	"github.com/2389/herald/internal/token"
)

// Setup drives the guild setup wizard. All intermediate state lives in the
// tokens on the wizard message's components; the only durable write is the
// GuildSettings upsert at the terminal step.
type Setup struct {
	store  store.Store
	audit  *audit.Recorder
	logger *slog.Logger
}

// NewSetup creates the setup wizard handler.
func NewSetup(st store.Store, rec *audit.Recorder, logger *slog.Logger) *Setup {
	return &Setup{store: st, audit: rec, logger: logger.With("workflow", "setup")}
}

// Start builds the wizard's opening reply for the given user: an ephemeral
// message with the announcement channel select. Everything after this point
// flows through Handle.
func (s *Setup) Start(initiatorID string) (*gateway.Reply, error) {
	id, err := token.Encode(token.KindSetup, token.StepChannel, []string{initiatorID})
	if err != nil {
		return nil, fmt.Errorf("encoding setup start: %w", err)
	}
	return &gateway.Reply{
		Kind:    gateway.ReplyEphemeral,
		Content: "Let's set up announcements. Pick the channel they should post to.",
		Components: gateway.Rows(
			gateway.Row(gateway.NewChannelSelect(id, "Announcement channel", 1, 1)),
		),
	}, nil
}

// Handle advances the wizard one step.
func (s *Setup) Handle(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	switch tok.Step {
	case token.StepChannel:
		return s.channelChosen(tok, ix)
	case token.StepAvatar:
		return s.finish(ctx, tok, ix, selectedChannel(ix))
	case token.StepSkip:
		return s.finish(ctx, tok, ix, nil)
	default:
		return nil, fmt.Errorf("unhandled setup step %q", tok.Step)
	}
}

// channelChosen stores the announcement channel in the next step's tokens
// and swaps the wizard message to the avatar choice.
func (s *Setup) channelChosen(tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	channelID := selectedChannel(ix)
	if channelID == nil {
		return ephemeral("Pick a channel to continue."), nil
	}

	fields := []string{tok.Initiator(), *channelID}
	avatarID, err := token.Encode(token.KindSetup, token.StepAvatar, fields)
	if err != nil {
		return nil, fmt.Errorf("encoding avatar step: %w", err)
	}
	skipID, err := token.Encode(token.KindSetup, token.StepSkip, fields)
	if err != nil {
		return nil, fmt.Errorf("encoding skip step: %w", err)
	}

	return &gateway.Reply{
		Kind: gateway.ReplyUpdate,
		Content: fmt.Sprintf("Announcements will post to <#%s>. "+
			"Pick a channel for avatar uploads, or skip it.", *channelID),
		Components: gateway.Rows(
			gateway.Row(gateway.NewChannelSelect(avatarID, "Avatar channel", 1, 1)),
			gateway.Row(gateway.NewButton(gateway.ButtonSecondary, "Skip", skipID)),
		),
	}, nil
}

// finish writes the guild settings and closes the wizard. avatarChannel is
// nil when the user skipped the avatar step. A failed write leaves the
// wizard message untouched so the same press can be retried.
func (s *Setup) finish(ctx context.Context, tok *token.Token, ix *gateway.Interaction, avatarChannel *string) (*gateway.Reply, error) {
	if tok.Step == token.StepAvatar && avatarChannel == nil {
		return ephemeral("Pick a channel to continue."), nil
	}

	settings := &store.GuildSettings{
		GuildID:           ix.GuildID,
		AnnounceChannelID: tok.Fields[1],
		AvatarChannelID:   avatarChannel,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := s.store.UpsertGuildSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("%w: guild settings for %s: %v", ErrUpstreamWrite, ix.GuildID, err)
	}
	s.audit.Record(ctx, audit.ActionConfigWrite, ix.GuildID, ix.GuildID)

	content := fmt.Sprintf("Setup complete. Announcements post to <#%s>", settings.AnnounceChannelID)
	if avatarChannel != nil {
		content += fmt.Sprintf(", avatars upload to <#%s>", *avatarChannel)
	}
	content += "."

	s.logger.Info("setup finished",
		"guild_id", ix.GuildID, "user_id", ix.UserID,
		"announce_channel", settings.AnnounceChannelID,
		"avatar_skipped", avatarChannel == nil)

	return &gateway.Reply{
		Kind:       gateway.ReplyUpdate,
		Content:    content,
		Components: gateway.NoComponents(),
	}, nil
}

// selectedChannel returns the single channel-select value, or nil when the
// submission carried none.
func selectedChannel(ix *gateway.Interaction) *string {
	if len(ix.Values) != 1 {
		return nil
	}
	return &ix.Values[0]
}
