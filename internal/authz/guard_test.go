// ABOUTME: Tests for the authorization guard covering identity and capability policies.
// ABOUTME: Every setup/request step denies non-initiators; approval steps ignore identity.

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/herald/internal/token"
)

func TestAuthorize_IdentityGatedSteps(t *testing.T) {
	guard := NewGuard("")

	// Every step of both identity-gated workflows
	cases := []struct {
		kind   token.Kind
		step   token.Step
		fields []string
	}{
		{token.KindSetup, token.StepChannel, []string{"u1"}},
		{token.KindSetup, token.StepAvatar, []string{"u1", "c1"}},
		{token.KindSetup, token.StepSkip, []string{"u1", "c1"}},
		{token.KindStreamerRequest, token.StepPlatforms, []string{"u1", "c1"}},
		{token.KindStreamerRequest, token.StepUsernames, []string{"u1", "c1", "twitch"}},
	}

	for _, tc := range cases {
		tok := &token.Token{Kind: tc.kind, Step: tc.step, Fields: tc.fields}

		assert.NoError(t, guard.Authorize(tok, "u1", nil), "%s/%s initiator", tc.kind, tc.step)
		assert.ErrorIs(t, guard.Authorize(tok, "u2", nil), ErrNotYourSession,
			"%s/%s stranger", tc.kind, tc.step)

		// Capabilities never substitute for identity on these workflows
		assert.ErrorIs(t,
			guard.Authorize(tok, "u2", []string{CapabilityManageAnnouncements}),
			ErrNotYourSession, "%s/%s capable stranger", tc.kind, tc.step)
	}
}

func TestAuthorize_ApprovalRequiresCapability(t *testing.T) {
	guard := NewGuard("")

	for _, step := range []token.Step{token.StepApprove, token.StepDeny, token.StepChannels} {
		tok := &token.Token{
			Kind:   token.KindStreamerApproval,
			Step:   step,
			Fields: []string{"requester", "c1", "m1", "twitch=foo"},
		}

		// A capable moderator passes regardless of identity
		assert.NoError(t, guard.Authorize(tok, "mod", []string{CapabilityManageAnnouncements}))

		// Without the capability everyone is denied, including the requester
		assert.ErrorIs(t, guard.Authorize(tok, "mod", nil), ErrInsufficientPermission)
		assert.ErrorIs(t, guard.Authorize(tok, "requester", nil), ErrInsufficientPermission)
		assert.ErrorIs(t, guard.Authorize(tok, "requester", []string{"other-cap"}),
			ErrInsufficientPermission)
	}
}

func TestAuthorize_OwnerOverride(t *testing.T) {
	guard := NewGuard("owner-1")

	tok := &token.Token{
		Kind:   token.KindStreamerApproval,
		Step:   token.StepApprove,
		Fields: []string{"requester", "c1", "m1", "twitch=foo"},
	}

	// The configured owner holds the moderation capability implicitly
	assert.NoError(t, guard.Authorize(tok, "owner-1", nil))
	assert.ErrorIs(t, guard.Authorize(tok, "someone-else", nil), ErrInsufficientPermission)

	// Owner override does not bypass identity gating on setup workflows
	setup := &token.Token{Kind: token.KindSetup, Step: token.StepChannel, Fields: []string{"u1"}}
	assert.ErrorIs(t, guard.Authorize(setup, "owner-1", nil), ErrNotYourSession)
}
