// ABOUTME: Inbound interaction model and its mapping from the platform's wire format.
// ABOUTME: Translates member permission bitfields into capability strings.

package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/2389/herald/internal/authz"
)

// Wire interaction types the endpoint accepts.
const (
	wireTypePing        = 1
	wireTypeComponent   = 3
	wireTypeModalSubmit = 5
)

// Permission bits relevant to herald.
const (
	permAdministrator = 1 << 3
	permManageGuild   = 1 << 5
)

// Interaction is one isolated user action delivered by the gateway: a
// button press, a select-menu submission, or a modal submission. It carries
// everything a step handler may need; no server-side session exists.
type Interaction struct {
	ID        string // unique per delivery, used for replay detection
	GuildID   string
	ChannelID string
	MessageID string // message whose component was used, empty for some modals
	UserID    string

	// Capabilities derived from the acting member's permission bitfield.
	Capabilities []string

	// CustomID is the raw workflow token from the component.
	CustomID string

	// Values holds select-menu submissions, in selection order.
	Values []string

	// ModalFields holds modal text inputs keyed by each field's custom ID.
	ModalFields map[string]string

	// ReceivedAt anchors the reply-expiry window.
	ReceivedAt time.Time
}

// wireInteraction mirrors the fields of the gateway's interaction payload
// that herald reads. Everything else is ignored.
type wireInteraction struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	GuildID string `json:"guild_id"`
	Channel string `json:"channel_id"`
	Member  *struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
		Permissions string `json:"permissions"`
	} `json:"member"`
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
	Message *struct {
		ID string `json:"id"`
	} `json:"message"`
	Data *struct {
		CustomID   string   `json:"custom_id"`
		Values     []string `json:"values"`
		Components []struct {
			Components []struct {
				CustomID string `json:"custom_id"`
				Value    string `json:"value"`
			} `json:"components"`
		} `json:"components"`
	} `json:"data"`
}

// parseInteraction decodes the wire payload into an Interaction.
// Returns (nil, true, nil) for a ping.
func parseInteraction(body []byte, now time.Time) (*Interaction, bool, error) {
	var w wireInteraction
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, false, fmt.Errorf("unmarshaling interaction: %w", err)
	}

	if w.Type == wireTypePing {
		return nil, true, nil
	}

	if w.Type != wireTypeComponent && w.Type != wireTypeModalSubmit {
		return nil, false, fmt.Errorf("unsupported interaction type %d", w.Type)
	}
	if w.Data == nil {
		return nil, false, fmt.Errorf("interaction %s has no data", w.ID)
	}

	ix := &Interaction{
		ID:         w.ID,
		GuildID:    w.GuildID,
		ChannelID:  w.Channel,
		CustomID:   w.Data.CustomID,
		Values:     w.Data.Values,
		ReceivedAt: now,
	}

	switch {
	case w.Member != nil && w.Member.User != nil:
		ix.UserID = w.Member.User.ID
		ix.Capabilities = capabilitiesFromPermissions(w.Member.Permissions)
	case w.User != nil:
		ix.UserID = w.User.ID
	default:
		return nil, false, fmt.Errorf("interaction %s has no acting user", w.ID)
	}

	if w.Message != nil {
		ix.MessageID = w.Message.ID
	}

	if w.Type == wireTypeModalSubmit {
		ix.ModalFields = make(map[string]string)
		for _, row := range w.Data.Components {
			for _, c := range row.Components {
				ix.ModalFields[c.CustomID] = c.Value
			}
		}
	}

	return ix, false, nil
}

// capabilitiesFromPermissions maps the member's permission bitfield to
// herald capability strings. Manage Server and Administrator both grant
// the moderation capability.
func capabilitiesFromPermissions(permissions string) []string {
	if permissions == "" {
		return nil
	}
	bits, err := strconv.ParseUint(permissions, 10, 64)
	if err != nil {
		return nil
	}

	var caps []string
	if bits&permAdministrator != 0 || bits&permManageGuild != 0 {
		caps = append(caps, authz.CapabilityManageAnnouncements)
	}
	return caps
}
