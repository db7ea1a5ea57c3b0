// ABOUTME: Dispatcher tests: token decode failures, replay suppression, authorization mapping.
// ABOUTME: Uses a stub handler so only the dispatch pipeline itself is under test.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/herald/internal/authz"
	"github.com/2389/herald/internal/gateway"
	"github.com/2389/herald/internal/token"
)

// stubHandler counts invocations and returns a canned reply or error.
type stubHandler struct {
	calls int
	reply *gateway.Reply
	err   error
}

func (s *stubHandler) Handle(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error) {
	s.calls++
	return s.reply, s.err
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *stubHandler) {
	t.Helper()
	d := NewDispatcher(authz.NewGuard("owner-1"), testLogger())
	h := &stubHandler{reply: ephemeral("ok")}
	require.NoError(t, d.Register(token.KindSetup, h))
	return d, h
}

func TestDispatcher_RegisterDuplicateKind(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Register(token.KindSetup, &stubHandler{})
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestDispatcher_UndecodableToken(t *testing.T) {
	d, h := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), interaction("not-a-token", "u1"))
	require.NoError(t, err)
	assert.Equal(t, gateway.ReplyEphemeral, reply.Kind)
	assert.Equal(t, msgInvalidSession, reply.Content)
	assert.Zero(t, h.calls)
}

func TestDispatcher_UnregisteredKind(t *testing.T) {
	d := NewDispatcher(authz.NewGuard(""), testLogger())

	id, err := token.Encode(token.KindSetup, token.StepChannel, []string{"u1"})
	require.NoError(t, err)

	reply, err := d.Dispatch(context.Background(), interaction(id, "u1"))
	require.NoError(t, err)
	assert.Equal(t, msgInvalidSession, reply.Content)
}

func TestDispatcher_ReplaySuppressed(t *testing.T) {
	d, h := newTestDispatcher(t)

	id, err := token.Encode(token.KindSetup, token.StepChannel, []string{"u1"})
	require.NoError(t, err)

	ix := interaction(id, "u1", "chan-5")
	ix.ID = "ix-replayed"

	reply, err := d.Dispatch(context.Background(), ix)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)

	// Same interaction ID delivered again: the handler must not run twice.
	reply, err = d.Dispatch(context.Background(), ix)
	require.NoError(t, err)
	assert.Equal(t, msgAlreadyActed, reply.Content)
	assert.Equal(t, 1, h.calls)
}

func TestDispatcher_IdentityDenied(t *testing.T) {
	d, h := newTestDispatcher(t)

	id, err := token.Encode(token.KindSetup, token.StepChannel, []string{"u1"})
	require.NoError(t, err)

	reply, err := d.Dispatch(context.Background(), interaction(id, "intruder"))
	require.NoError(t, err)
	assert.Equal(t, msgNotYourSession, reply.Content)
	assert.Zero(t, h.calls)
}

func TestDispatcher_CapabilityDenied(t *testing.T) {
	d := NewDispatcher(authz.NewGuard(""), testLogger())
	h := &stubHandler{reply: ephemeral("ok")}
	require.NoError(t, d.Register(token.KindStreamerApproval, h))

	id, err := token.Encode(token.KindStreamerApproval, token.StepApprove,
		[]string{"u1", "chan-req", "msg-1", "twitch=alice"})
	require.NoError(t, err)

	// The requester without the capability is denied on their own request.
	reply, err := d.Dispatch(context.Background(), interaction(id, "u1"))
	require.NoError(t, err)
	assert.Equal(t, msgNoPermission, reply.Content)
	assert.Zero(t, h.calls)

	// A capability holder passes regardless of identity.
	ix := interaction(id, "mod-1")
	ix.Capabilities = []string{authz.CapabilityManageAnnouncements}
	reply, err = d.Dispatch(context.Background(), ix)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)
	assert.Equal(t, 1, h.calls)
}

func TestDispatcher_UpstreamWriteBecomesRetryReply(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.reply = nil
	h.err = fmt.Errorf("%w: disk full", ErrUpstreamWrite)

	id, err := token.Encode(token.KindSetup, token.StepChannel, []string{"u1"})
	require.NoError(t, err)

	reply, err := d.Dispatch(context.Background(), interaction(id, "u1"))
	require.NoError(t, err)
	assert.Equal(t, gateway.ReplyEphemeral, reply.Kind)
	assert.Equal(t, msgTryAgain, reply.Content)
}

func TestDispatcher_HandlerErrorPropagates(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.reply = nil
	h.err = errors.New("handler bug")

	id, err := token.Encode(token.KindSetup, token.StepChannel, []string{"u1"})
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), interaction(id, "u1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler bug")
}
