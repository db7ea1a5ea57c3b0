// ABOUTME: End-to-end scenarios walking whole workflows through the dispatcher.
// ABOUTME: Every hop uses only the tokens the previous reply embedded, as a real client would.

package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/herald/internal/authz"
	"github.com/2389/herald/internal/gateway"
	"github.com/2389/herald/internal/store"
	"github.com/2389/herald/internal/token"
)

type botFixture struct {
	dispatcher *Dispatcher
	setup      *Setup
	request    *Request
	store      *store.MockStore
	messenger  *mockMessenger

	nextIxID int
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	st := store.NewMockStore()
	m := newMockMessenger()
	rec := testRecorder()
	logger := testLogger()

	setup := NewSetup(st, rec, logger)
	request := NewRequest(m, rec, logger)
	approval := NewApproval(st, m, rec, logger)

	d := NewDispatcher(authz.NewGuard(""), logger)
	require.NoError(t, d.Register(token.KindSetup, setup))
	require.NoError(t, d.Register(token.KindStreamerRequest, request))
	require.NoError(t, d.Register(token.KindStreamerApproval, approval))

	return &botFixture{dispatcher: d, setup: setup, request: request, store: st, messenger: m}
}

// press dispatches a component interaction with a fresh interaction ID.
func (f *botFixture) press(t *testing.T, customID, userID string, caps []string, values ...string) *gateway.Reply {
	t.Helper()
	f.nextIxID++
	ix := interaction(customID, userID, values...)
	ix.ID = fmt.Sprintf("scenario-ix-%d", f.nextIxID)
	ix.Capabilities = caps

	reply, err := f.dispatcher.Dispatch(context.Background(), ix)
	require.NoError(t, err)
	require.NotNil(t, reply)
	return reply
}

// submitModal dispatches a modal submission with a fresh interaction ID.
func (f *botFixture) submitModal(t *testing.T, customID, userID string, fields map[string]string) *gateway.Reply {
	t.Helper()
	f.nextIxID++
	ix := modalInteraction(customID, userID, fields)
	ix.ID = fmt.Sprintf("scenario-ix-%d", f.nextIxID)

	reply, err := f.dispatcher.Dispatch(context.Background(), ix)
	require.NoError(t, err)
	require.NotNil(t, reply)
	return reply
}

func TestScenario_SetupWithSkip(t *testing.T) {
	f := newBotFixture(t)

	start, err := f.setup.Start("u1")
	require.NoError(t, err)

	channelSelect := customIDs(t, start)[0]
	afterChannel := f.press(t, channelSelect, "u1", nil, "announce-chan")
	assert.Equal(t, gateway.ReplyUpdate, afterChannel.Kind)

	// Second component is the skip button.
	ids := customIDs(t, afterChannel)
	require.Len(t, ids, 2)
	done := f.press(t, ids[1], "u1", nil)
	assert.Equal(t, gateway.ReplyUpdate, done.Kind)
	require.NotNil(t, done.Components)
	assert.Empty(t, *done.Components, "finished wizard accepts no further input")

	settings, err := f.store.GetGuildSettings(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "announce-chan", settings.AnnounceChannelID)
	assert.Nil(t, settings.AvatarChannelID)
}

func TestScenario_RequestThroughApproval(t *testing.T) {
	f := newBotFixture(t)
	mod := []string{authz.CapabilityManageAnnouncements}

	open, err := f.request.Open("u1", "chan-req")
	require.NoError(t, err)

	// u1 picks platforms, herald opens the username modal.
	platformSelect := customIDs(t, open)[0]
	modal := f.press(t, platformSelect, "u1", nil, "twitch", "kick")
	require.Equal(t, gateway.ReplyModal, modal.Kind)

	submitted := f.submitModal(t, modal.ModalCustomID, "u1",
		map[string]string{"twitch": "alice", "kick": "alice_k"})
	assert.Equal(t, gateway.ReplyEphemeral, submitted.Kind)

	// The approval record now carries approve/deny buttons.
	require.Len(t, f.messenger.Edited, 1)
	buttons := (*f.messenger.Edited[0].Msg.Components)[0].Components
	approveID := buttons[0].(gateway.Button).CustomID
	denyID := buttons[1].(gateway.Button).CustomID
	recordID := f.messenger.lastCreatedID()

	// The requester cannot act on their own record.
	denied := f.press(t, approveID, "u1", nil)
	assert.Equal(t, msgNoPermission, denied.Content)

	// A moderator approves and picks announcement channels.
	channelPick := f.press(t, approveID, "mod-1", mod)
	channelsID := customIDs(t, channelPick)[0]
	done := f.press(t, channelsID, "mod-1", mod, "ann-1", "ann-2")
	assert.Equal(t, gateway.ReplyUpdate, done.Kind)

	streamer, err := f.store.GetStreamer(context.Background(), "guild-1", recordID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"twitch": "alice", "kick": "alice_k"}, streamer.Usernames)
	assert.Equal(t, []string{"ann-1", "ann-2"}, streamer.Channels)

	// The record was repainted green.
	last := f.messenger.Edited[len(f.messenger.Edited)-1]
	assert.Equal(t, recordID, last.MessageID)
	assert.Equal(t, colorApproved, last.Msg.Embeds[0].Color)

	// A stale deny press on the resolved record bounces.
	stale := f.press(t, denyID, "mod-2", mod)
	assert.Equal(t, gateway.ReplyEphemeral, stale.Kind)
	assert.Contains(t, stale.Content, "already approved")
}

func TestScenario_TokenFromOtherWorkflowRejected(t *testing.T) {
	f := newBotFixture(t)

	start, err := f.setup.Start("u1")
	require.NoError(t, err)
	channelSelect := customIDs(t, start)[0]

	// A truncated token and a foreign-shape token both fail decoding and
	// get the generic expired-session reply.
	for _, bad := range []string{channelSelect + ":extra", "setup:usernames:u1", "garbage"} {
		reply := f.press(t, bad, "u1", nil)
		assert.Equal(t, msgInvalidSession, reply.Content)
	}
}
