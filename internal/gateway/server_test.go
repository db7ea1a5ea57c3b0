// ABOUTME: Tests for the interactions endpoint: signatures, ping/pong, reply envelopes, expiry.
// ABOUTME: Uses a generated Ed25519 keypair and a stub dispatcher.

package gateway

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDispatcher returns a canned reply or error.
type stubDispatcher struct {
	reply *Reply
	err   error
	seen  []*Interaction
}

func (d *stubDispatcher) Dispatch(ctx context.Context, ix *Interaction) (*Reply, error) {
	d.seen = append(d.seen, ix)
	return d.reply, d.err
}

type serverFixture struct {
	server  *Server
	private ed25519.PrivateKey
	dsp     *stubDispatcher
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	dsp := &stubDispatcher{reply: &Reply{Kind: ReplyEphemeral, Content: "ok"}}
	s, err := NewServer(hex.EncodeToString(pub), dsp, slog.Default())
	require.NoError(t, err)

	return &serverFixture{server: s, private: priv, dsp: dsp}
}

// post signs body and posts it to the interactions endpoint.
func (f *serverFixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	timestamp := "1700000000"
	sig := ed25519.Sign(f.private, []byte(timestamp+body))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

const componentBody = `{
	"id": "ix-1",
	"type": 3,
	"guild_id": "g1",
	"channel_id": "c1",
	"member": {"user": {"id": "u1"}, "permissions": "0"},
	"data": {"custom_id": "setup:channel:u1", "values": ["c5"]}
}`

func TestServer_RejectsBadSignature(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(componentBody))
	req.Header.Set("X-Signature-Ed25519", strings.Repeat("00", ed25519.SignatureSize))
	req.Header.Set("X-Signature-Timestamp", "1700000000")

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.dsp.seen, "unverified payloads never reach the dispatcher")
}

func TestServer_RejectsMissingSignatureHeaders(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(componentBody))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_PingPong(t *testing.T) {
	f := newServerFixture(t)

	rec := f.post(t, `{"id":"p1","type":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Type int `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, responsePong, resp.Type)
	assert.Empty(t, f.dsp.seen)
}

func TestServer_DispatchesAndRepliesEphemeral(t *testing.T) {
	f := newServerFixture(t)

	rec := f.post(t, componentBody)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.dsp.seen, 1)
	assert.Equal(t, "setup:channel:u1", f.dsp.seen[0].CustomID)

	var resp struct {
		Type int `json:"type"`
		Data struct {
			Content string `json:"content"`
			Flags   int    `json:"flags"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, responseMessage, resp.Type)
	assert.Equal(t, "ok", resp.Data.Content)
	assert.Equal(t, flagEphemeral, resp.Data.Flags)
}

func TestServer_UpdateReplyClearsComponents(t *testing.T) {
	f := newServerFixture(t)
	f.dsp.reply = &Reply{Kind: ReplyUpdate, Content: "done", Components: NoComponents()}

	rec := f.post(t, componentBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp["data"], &data))

	// The empty component list must be present, not omitted: it is what
	// strips the message's inputs.
	assert.JSONEq(t, `[]`, string(data["components"]))
}

func TestServer_ModalReply(t *testing.T) {
	f := newServerFixture(t)
	f.dsp.reply = &Reply{
		Kind:          ReplyModal,
		ModalCustomID: "streamreq:usernames:u1:c1:twitch",
		ModalTitle:    "Link your accounts",
		ModalInputs:   []TextInput{NewTextInput("twitch", "Twitch username", 64)},
	}

	rec := f.post(t, componentBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Type int `json:"type"`
		Data struct {
			CustomID   string      `json:"custom_id"`
			Title      string      `json:"title"`
			Components []ActionRow `json:"components"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, responseModal, resp.Type)
	assert.Equal(t, "streamreq:usernames:u1:c1:twitch", resp.Data.CustomID)
	assert.Equal(t, "Link your accounts", resp.Data.Title)
	require.Len(t, resp.Data.Components, 1)
}

func TestServer_ExpiredDispatchLogsAndGivesUp(t *testing.T) {
	f := newServerFixture(t)
	f.dsp.reply = nil
	f.dsp.err = ErrExpired

	rec := f.post(t, componentBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewServer_BadKey(t *testing.T) {
	_, err := NewServer("zz", &stubDispatcher{}, slog.Default())
	assert.Error(t, err)

	_, err = NewServer("abcd", &stubDispatcher{}, slog.Default())
	assert.Error(t, err)
}
