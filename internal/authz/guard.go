// ABOUTME: Authorization guard deciding whether an interaction may advance a workflow.
// ABOUTME: Setup/request steps are identity-gated; approval steps are capability-gated.

package authz

import (
	"errors"
	"slices"

	"github.com/2389/herald/internal/token"
)

// Authorization errors. Both are reported back to the acting user as an
// ephemeral message; neither is fatal and neither drops the interaction.
var (
	// ErrNotYourSession means the acting user is not the workflow initiator.
	ErrNotYourSession = errors.New("not your session")

	// ErrInsufficientPermission means the acting user lacks the moderation
	// capability required for approval steps.
	ErrInsufficientPermission = errors.New("insufficient permission")
)

// CapabilityManageAnnouncements gates every action on an approval record.
// It is a permission grant, not an identity: the original requester holds
// no special standing once the record is posted.
const CapabilityManageAnnouncements = "manage-announcements"

// Guard decides whether an acting user may advance a decoded workflow token.
type Guard struct {
	// ownerID is the bot owner's user ID, injected from configuration.
	// The owner always holds the moderation capability.
	ownerID string
}

// NewGuard creates a Guard. ownerID may be empty if no owner override is
// configured.
func NewGuard(ownerID string) *Guard {
	return &Guard{ownerID: ownerID}
}

// Authorize checks whether actorID, holding the given capabilities, may act
// on the decoded token.
//
// Policy:
//   - Setup and StreamerRequest workflows: the actor must be the initiator.
//     Mismatch denies with ErrNotYourSession.
//   - StreamerApproval workflows: the actor must hold the
//     manage-announcements capability (or be the configured owner),
//     regardless of identity. Absence denies with ErrInsufficientPermission.
func (g *Guard) Authorize(tok *token.Token, actorID string, capabilities []string) error {
	switch tok.Kind {
	case token.KindSetup, token.KindStreamerRequest:
		if actorID != tok.Initiator() {
			return ErrNotYourSession
		}
		return nil

	case token.KindStreamerApproval:
		if g.ownerID != "" && actorID == g.ownerID {
			return nil
		}
		if slices.Contains(capabilities, CapabilityManageAnnouncements) {
			return nil
		}
		return ErrInsufficientPermission

	default:
		return ErrNotYourSession
	}
}
