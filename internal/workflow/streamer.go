// ABOUTME: Streamer announcement pipeline: member request wizard and moderator approval record.
// ABOUTME: The approval record's buttons carry the full request payload; approval ends in a Streamer upsert.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/2389/herald/internal/audit"
	"github.com/2389/herald/internal/gateway"
	"github.com/2389/herald/internal/platforms"
	"github.com/2389/herald/internal/store"
	"github.com/2389/herald/internal/token"
)

// Messenger posts and edits channel messages. Satisfied by gateway.Client.
type Messenger interface {
	CreateMessage(ctx context.Context, channelID string, msg *gateway.OutgoingMessage) (*gateway.Message, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg *gateway.OutgoingMessage) (*gateway.Message, error)
}

// Embed tints for the approval record's lifecycle.
const (
	colorPending  = 0xF1C40F
	colorApproved = 0x2ECC71
	colorDenied   = 0xE74C3C
)

// maxAnnounceChannels bounds the approval channel multi-select.
const maxAnnounceChannels = 25

// platformJoin separates platform names inside a single token field.
const platformJoin = ","

// snowflakePlaceholder stands in for the record message ID when checking
// that an approval token will fit before the record is actually posted.
const snowflakePlaceholder = "99999999999999999999"

// Request drives the member-facing half of the pipeline: platform
// selection, the username modal, and posting the approval record.
type Request struct {
	messenger Messenger
	audit     *audit.Recorder
	logger    *slog.Logger
}

// NewRequest creates the streamer request handler.
func NewRequest(m Messenger, rec *audit.Recorder, logger *slog.Logger) *Request {
	return &Request{messenger: m, audit: rec, logger: logger.With("workflow", "streamreq")}
}

// Open builds the opening reply for a streamer request: an ephemeral
// platform multi-select bound to the requesting user. requestsChannelID is
// where the approval record will be posted.
func (r *Request) Open(initiatorID, requestsChannelID string) (*gateway.Reply, error) {
	id, err := token.Encode(token.KindStreamerRequest, token.StepPlatforms,
		[]string{initiatorID, requestsChannelID})
	if err != nil {
		return nil, fmt.Errorf("encoding request start: %w", err)
	}

	catalog := platforms.List()
	options := make([]gateway.SelectOption, 0, len(catalog))
	for _, p := range catalog {
		options = append(options, gateway.SelectOption{Label: p.Label, Value: p.Name})
	}

	return &gateway.Reply{
		Kind:    gateway.ReplyEphemeral,
		Content: "Which platforms do you stream on?",
		Components: gateway.Rows(
			gateway.Row(gateway.NewStringSelect(id, "Platforms",
				platforms.MinSelect, platforms.MaxSelect, options)),
		),
	}, nil
}

// Handle advances the request wizard one step.
func (r *Request) Handle(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	switch tok.Step {
	case token.StepPlatforms:
		return r.platformsChosen(tok, ix)
	case token.StepUsernames:
		return r.usernamesSubmitted(ctx, tok, ix)
	default:
		return nil, fmt.Errorf("unhandled request step %q", tok.Step)
	}
}

// platformsChosen opens the username modal, one text input per selected
// platform. The selection rides to the modal step inside its custom ID.
func (r *Request) platformsChosen(tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	if err := platforms.ValidateSelection(ix.Values); err != nil {
		return ephemeral(fmt.Sprintf("Pick between %d and %d platforms.",
			platforms.MinSelect, platforms.MaxSelect)), nil
	}

	modalID, err := token.Encode(token.KindStreamerRequest, token.StepUsernames,
		[]string{tok.Initiator(), tok.Fields[1], strings.Join(ix.Values, platformJoin)})
	if err != nil {
		return nil, fmt.Errorf("encoding usernames step: %w", err)
	}

	inputs := make([]gateway.TextInput, 0, len(ix.Values))
	for _, name := range ix.Values {
		p, err := platforms.Get(name)
		if err != nil {
			return nil, fmt.Errorf("resolving platform: %w", err)
		}
		inputs = append(inputs, gateway.NewTextInput(p.Name, p.Label+" username", 40))
	}

	return &gateway.Reply{
		Kind:          gateway.ReplyModal,
		ModalCustomID: modalID,
		ModalTitle:    "Your streaming usernames",
		ModalInputs:   inputs,
	}, nil
}

// usernamesSubmitted posts the approval record into the requests channel,
// then edits it to attach approve/deny buttons whose tokens embed the
// record's own message ID.
func (r *Request) usernamesSubmitted(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	requestsChannel := tok.Fields[1]
	names := strings.Split(tok.Fields[2], platformJoin)

	usernames := make(map[string]string, len(names))
	for _, name := range names {
		v := strings.TrimSpace(ix.ModalFields[name])
		if v == "" {
			return ephemeral("Every selected platform needs a username."), nil
		}
		usernames[name] = v
	}

	mapping, err := token.FormatMapping(usernames)
	if err != nil {
		return ephemeral("Usernames may not contain ':', ',' or '='."), nil
	}

	// The record's message ID goes into the button tokens, but the record
	// must exist before the ID is known. Check the worst-case size first so
	// an oversized request never leaves an orphaned record behind.
	fields := []string{tok.Initiator(), requestsChannel, snowflakePlaceholder, mapping}
	if _, err := token.Encode(token.KindStreamerApproval, token.StepApprove, fields); err != nil {
		return ephemeral("That request is too long. Use fewer platforms or shorter usernames."), nil
	}

	record := &gateway.OutgoingMessage{
		Embeds: []gateway.Embed{recordEmbed(tok.Initiator(), usernames, colorPending,
			"Streamer announcement request", "Awaiting moderator review.")},
	}
	posted, err := r.messenger.CreateMessage(ctx, requestsChannel, record)
	if err != nil {
		return nil, fmt.Errorf("%w: posting approval record: %v", ErrUpstreamWrite, err)
	}
	r.audit.Record(ctx, audit.ActionMessageCreate, posted.ID, ix.GuildID)

	fields[2] = posted.ID
	approveID, err := token.Encode(token.KindStreamerApproval, token.StepApprove, fields)
	if err != nil {
		return nil, fmt.Errorf("encoding approve token: %w", err)
	}
	denyID, err := token.Encode(token.KindStreamerApproval, token.StepDeny, fields)
	if err != nil {
		return nil, fmt.Errorf("encoding deny token: %w", err)
	}

	record.Components = gateway.Rows(gateway.Row(
		gateway.NewButton(gateway.ButtonSuccess, "Approve", approveID),
		gateway.NewButton(gateway.ButtonDanger, "Deny", denyID),
	))
	if _, err := r.messenger.EditMessage(ctx, requestsChannel, posted.ID, record); err != nil {
		return nil, fmt.Errorf("%w: attaching record buttons: %v", ErrUpstreamWrite, err)
	}
	r.audit.Record(ctx, audit.ActionMessageUpdate, posted.ID, ix.GuildID)

	r.logger.Info("approval record posted",
		"guild_id", ix.GuildID, "requester_id", tok.Initiator(),
		"record_id", posted.ID, "platforms", len(usernames))

	return ephemeral("Request submitted. A moderator will review it shortly."), nil
}

// Approval drives the moderator-facing half: approve with a channel
// selection, or deny. Terminal steps write the resolution, which makes a
// second press on the same record a no-op rejection.
type Approval struct {
	store     store.Store
	messenger Messenger
	audit     *audit.Recorder
	logger    *slog.Logger
}

// NewApproval creates the approval record handler.
func NewApproval(st store.Store, m Messenger, rec *audit.Recorder, logger *slog.Logger) *Approval {
	return &Approval{store: st, messenger: m, audit: rec, logger: logger.With("workflow", "streamapp")}
}

// Handle advances the approval record one step.
func (a *Approval) Handle(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	switch tok.Step {
	case token.StepApprove:
		return a.approvePressed(ctx, tok, ix)
	case token.StepDeny:
		return a.denyPressed(ctx, tok, ix)
	case token.StepChannels:
		return a.channelsChosen(ctx, tok, ix)
	default:
		return nil, fmt.Errorf("unhandled approval step %q", tok.Step)
	}
}

// approvePressed opens the announcement channel selection. Nothing is
// resolved yet; the record stays pending until the channels are chosen.
func (a *Approval) approvePressed(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	if reply, err := a.rejectResolved(ctx, ix.GuildID, tok.Fields[2]); reply != nil || err != nil {
		return reply, err
	}

	channelsID, err := token.Encode(token.KindStreamerApproval, token.StepChannels, tok.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding channels step: %w", err)
	}

	return &gateway.Reply{
		Kind:    gateway.ReplyEphemeral,
		Content: fmt.Sprintf("Approving <@%s>'s request. Where should announcements post?", tok.Initiator()),
		Components: gateway.Rows(
			gateway.Row(gateway.NewChannelSelect(channelsID, "Announcement channels",
				1, maxAnnounceChannels)),
		),
	}, nil
}

// channelsChosen is the approval terminal: upsert the streamer, record the
// resolution, and repaint the record message. The streamer row is keyed by
// the record's message ID, so a re-delivered terminal press converges on
// the same row.
func (a *Approval) channelsChosen(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	if len(ix.Values) < 1 || len(ix.Values) > maxAnnounceChannels {
		return ephemeral("Pick at least one announcement channel."), nil
	}

	// A different moderator may have denied the record while this one was
	// choosing channels.
	if reply, err := a.rejectResolved(ctx, ix.GuildID, tok.Fields[2]); reply != nil || err != nil {
		return reply, err
	}

	usernames, err := token.ParseMapping(tok.Fields[3])
	if err != nil {
		return ephemeral(msgInvalidSession), nil
	}

	streamer := &store.Streamer{
		GuildID:     ix.GuildID,
		RequestID:   tok.Fields[2],
		RequesterID: tok.Initiator(),
		Usernames:   usernames,
		Channels:    ix.Values,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := a.store.UpsertStreamer(ctx, streamer); err != nil {
		return nil, fmt.Errorf("%w: streamer for record %s: %v", ErrUpstreamWrite, tok.Fields[2], err)
	}
	a.audit.Record(ctx, audit.ActionStreamerUpsert, tok.Fields[2], ix.GuildID)

	if err := a.store.SetResolution(ctx, &store.Resolution{
		GuildID:     ix.GuildID,
		MessageID:   tok.Fields[2],
		Status:      store.ResolutionApproved,
		ModeratorID: ix.UserID,
		ResolvedAt:  time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("%w: resolution for record %s: %v", ErrUpstreamWrite, tok.Fields[2], err)
	}

	a.repaintRecord(ctx, tok, ix, colorApproved, "Streamer approved",
		fmt.Sprintf("Approved by <@%s>.", ix.UserID), usernames)

	a.logger.Info("streamer approved",
		"guild_id", ix.GuildID, "record_id", tok.Fields[2],
		"moderator_id", ix.UserID, "channels", len(ix.Values))

	return &gateway.Reply{
		Kind:       gateway.ReplyUpdate,
		Content:    fmt.Sprintf("Approved. <@%s>'s streams will be announced in %d channel(s).", tok.Initiator(), len(ix.Values)),
		Components: gateway.NoComponents(),
	}, nil
}

// denyPressed is the denial terminal: record the resolution, repaint the
// record, and acknowledge the moderator privately.
func (a *Approval) denyPressed(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	if reply, err := a.rejectResolved(ctx, ix.GuildID, tok.Fields[2]); reply != nil || err != nil {
		return reply, err
	}

	if err := a.store.SetResolution(ctx, &store.Resolution{
		GuildID:     ix.GuildID,
		MessageID:   tok.Fields[2],
		Status:      store.ResolutionDenied,
		ModeratorID: ix.UserID,
		ResolvedAt:  time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("%w: resolution for record %s: %v", ErrUpstreamWrite, tok.Fields[2], err)
	}

	usernames, err := token.ParseMapping(tok.Fields[3])
	if err != nil {
		usernames = nil
	}
	a.repaintRecord(ctx, tok, ix, colorDenied, "Request denied",
		fmt.Sprintf("Denied by <@%s>.", ix.UserID), usernames)

	a.logger.Info("streamer denied",
		"guild_id", ix.GuildID, "record_id", tok.Fields[2], "moderator_id", ix.UserID)

	return ephemeral(fmt.Sprintf("You denied <@%s>'s request.", tok.Initiator())), nil
}

// rejectResolved returns an ephemeral rejection when the record already has
// a resolution. Store read failures are retryable.
func (a *Approval) rejectResolved(ctx context.Context, guildID, messageID string) (*gateway.Reply, error) {
	res, err := a.store.GetResolution(ctx, guildID, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading resolution for record %s: %v", ErrUpstreamWrite, messageID, err)
	}
	return ephemeral(fmt.Sprintf("This request was already %s by <@%s>.", res.Status, res.ModeratorID)), nil
}

// repaintRecord rewrites the approval record message to its terminal look
// and strips its buttons. The resolution row is already durable at this
// point, so a failed repaint is logged and the interaction still succeeds.
func (a *Approval) repaintRecord(ctx context.Context, tok *token.Token, ix *gateway.Interaction, color int, title, status string, usernames map[string]string) {
	msg := &gateway.OutgoingMessage{
		Embeds:     []gateway.Embed{recordEmbed(tok.Initiator(), usernames, color, title, status)},
		Components: gateway.NoComponents(),
	}
	if _, err := a.messenger.EditMessage(ctx, tok.Fields[1], tok.Fields[2], msg); err != nil {
		a.logger.Error("repainting approval record failed",
			"record_id", tok.Fields[2], "error", err)
		return
	}
	a.audit.Record(ctx, audit.ActionMessageUpdate, tok.Fields[2], ix.GuildID)
}

// recordEmbed renders the approval record embed shared by all lifecycle
// states, one field per platform.
func recordEmbed(requesterID string, usernames map[string]string, color int, title, status string) gateway.Embed {
	names := make([]string, 0, len(usernames))
	for name := range usernames {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]gateway.EmbedField, 0, len(names))
	for _, name := range names {
		label := name
		if p, err := platforms.Get(name); err == nil {
			label = p.Label
		}
		fields = append(fields, gateway.EmbedField{Name: label, Value: usernames[name], Inline: true})
	}

	return gateway.Embed{
		Title:       title,
		Description: fmt.Sprintf("Requested by <@%s>. %s", requesterID, status),
		Color:       color,
		Fields:      fields,
	}
}
