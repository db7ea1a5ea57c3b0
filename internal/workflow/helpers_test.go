// ABOUTME: Shared fixtures for workflow tests: mock messenger, silent audit sink, interaction builders.
// ABOUTME: Handlers are exercised directly and through the dispatcher without any network or database.

package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/herald/internal/audit"
	"github.com/2389/herald/internal/gateway"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// nopSink drops audit events.
type nopSink struct{}

func (nopSink) Record(ctx context.Context, event audit.Event) {}

func testRecorder() *audit.Recorder {
	return audit.NewRecorder("bot-1", nopSink{})
}

// messengerCall records one CreateMessage or EditMessage invocation.
type messengerCall struct {
	ChannelID string
	MessageID string
	Msg       *gateway.OutgoingMessage
}

// mockMessenger is an in-memory Messenger. Created messages get sequential
// IDs; FailCreate and FailEdit inject errors.
type mockMessenger struct {
	mu      sync.Mutex
	nextID  int
	Created []messengerCall
	Edited  []messengerCall

	FailCreate error
	FailEdit   error
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{nextID: 1000}
}

func (m *mockMessenger) CreateMessage(ctx context.Context, channelID string, msg *gateway.OutgoingMessage) (*gateway.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate != nil {
		return nil, m.FailCreate
	}
	m.nextID++
	id := fmt.Sprintf("%d", m.nextID)
	m.Created = append(m.Created, messengerCall{ChannelID: channelID, Msg: msg})
	return &gateway.Message{ID: id, ChannelID: channelID}, nil
}

func (m *mockMessenger) EditMessage(ctx context.Context, channelID, messageID string, msg *gateway.OutgoingMessage) (*gateway.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailEdit != nil {
		return nil, m.FailEdit
	}
	m.Edited = append(m.Edited, messengerCall{ChannelID: channelID, MessageID: messageID, Msg: msg})
	return &gateway.Message{ID: messageID, ChannelID: channelID}, nil
}

// lastCreatedID returns the ID assigned to the most recent CreateMessage.
func (m *mockMessenger) lastCreatedID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%d", m.nextID)
}

// interaction builds a component interaction with sensible defaults.
func interaction(customID, userID string, values ...string) *gateway.Interaction {
	return &gateway.Interaction{
		ID:         fmt.Sprintf("ix-%d", time.Now().UnixNano()),
		GuildID:    "guild-1",
		ChannelID:  "chan-1",
		UserID:     userID,
		CustomID:   customID,
		Values:     values,
		ReceivedAt: time.Now().UTC(),
	}
}

// modalInteraction builds a modal-submit interaction.
func modalInteraction(customID, userID string, fields map[string]string) *gateway.Interaction {
	ix := interaction(customID, userID)
	ix.ModalFields = fields
	return ix
}
