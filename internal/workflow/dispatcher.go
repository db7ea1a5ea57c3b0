// ABOUTME: Dispatcher routing interactions to step handlers by workflow kind.
// ABOUTME: Decode, replay-check, authorize, invoke; every failure is scoped to one interaction.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/herald/internal/authz"
	"github.com/2389/herald/internal/dedupe"
	"github.com/2389/herald/internal/gateway"
	"github.com/2389/herald/internal/token"
)

// ErrUpstreamWrite means a ConfigStore write failed. The user gets a
// "try again" reply and the component's token is left intact, so the same
// selection can simply be retried.
var ErrUpstreamWrite = errors.New("configuration write failed")

// ErrAlreadyRegistered indicates a handler is already bound to a kind.
var ErrAlreadyRegistered = errors.New("workflow kind already registered")

// User-facing messages for the non-fatal failure modes.
const (
	msgInvalidSession = "This session is invalid or has expired."
	msgNotYourSession = "This isn't your session. Start your own to make changes."
	msgNoPermission   = "You need the Manage Server permission to act on this request."
	msgTryAgain       = "Couldn't save your changes. Please try again in a moment."
	msgAlreadyActed   = "That action was already handled."
)

// replayTTL covers the gateway's token validity window.
const replayTTL = 15 * time.Minute

// Handler advances one workflow kind. Handlers are pure transitions: all
// prior state arrives in the decoded token, and the next state leaves in
// the reply's embedded tokens.
type Handler interface {
	Handle(ctx context.Context, tok *token.Token, ix *gateway.Interaction) (*gateway.Reply, error)
}

// Dispatcher owns the kind-to-handler registry, populated at startup and
// looked up per interaction. It is the only workflow component that talks
// back to the gateway.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[token.Kind]Handler

	guard   *authz.Guard
	replays *dedupe.Cache
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(guard *authz.Guard, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[token.Kind]Handler),
		guard:    guard,
		replays:  dedupe.New(replayTTL, 4096),
		logger:   logger,
	}
}

// Register binds a handler to a workflow kind.
func (d *Dispatcher) Register(kind token.Kind, h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[kind]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, kind)
	}
	d.handlers[kind] = h

	d.logger.Info("workflow registered", "kind", kind)
	return nil
}

// Dispatch handles one inbound interaction end to end: decode the token,
// drop redeliveries, authorize the actor, and run the step handler. No
// failure here is fatal to the process; authorization and decode failures
// become ephemeral replies and nothing else changes.
func (d *Dispatcher) Dispatch(ctx context.Context, ix *gateway.Interaction) (*gateway.Reply, error) {
	tok, err := token.Decode(ix.CustomID)
	if err != nil {
		d.logger.Debug("undecodable interaction token",
			"interaction_id", ix.ID, "custom_id", ix.CustomID, "error", err)
		return ephemeral(msgInvalidSession), nil
	}

	if d.replays.CheckAndMark(ix.ID) {
		d.logger.Debug("redelivered interaction ignored",
			"interaction_id", ix.ID, "kind", tok.Kind, "step", tok.Step)
		return ephemeral(msgAlreadyActed), nil
	}

	if err := d.guard.Authorize(tok, ix.UserID, ix.Capabilities); err != nil {
		d.logger.Debug("interaction denied",
			"interaction_id", ix.ID, "user_id", ix.UserID,
			"kind", tok.Kind, "step", tok.Step, "reason", err)
		switch {
		case errors.Is(err, authz.ErrNotYourSession):
			return ephemeral(msgNotYourSession), nil
		default:
			return ephemeral(msgNoPermission), nil
		}
	}

	d.mu.RLock()
	h, ok := d.handlers[tok.Kind]
	d.mu.RUnlock()
	if !ok {
		d.logger.Warn("no handler for workflow kind", "kind", tok.Kind)
		return ephemeral(msgInvalidSession), nil
	}

	reply, err := h.Handle(ctx, tok, ix)
	if err != nil {
		if ctx.Err() != nil {
			return nil, gateway.ErrExpired
		}
		if errors.Is(err, ErrUpstreamWrite) {
			d.logger.Error("configuration write failed",
				"interaction_id", ix.ID, "kind", tok.Kind, "step", tok.Step, "error", err)
			return ephemeral(msgTryAgain), nil
		}
		return nil, fmt.Errorf("handling %s/%s: %w", tok.Kind, tok.Step, err)
	}

	return reply, nil
}

// ephemeral builds a private text reply.
func ephemeral(content string) *gateway.Reply {
	return &gateway.Reply{Kind: gateway.ReplyEphemeral, Content: content}
}
