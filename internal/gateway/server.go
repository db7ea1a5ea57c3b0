// ABOUTME: HTTPS interactions endpoint: signature verification, ping/pong, dispatch, reply.
// ABOUTME: Enforces the platform's reply-expiry window; a late handler gives up silently.

package gateway

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrExpired means the reply window for an interaction has passed; no reply
// can reach the user. It is logged and nothing else.
var ErrExpired = errors.New("interaction expired")

// DefaultReplyWindow is the platform's hard deadline for the initial
// interaction response.
const DefaultReplyWindow = 3 * time.Second

// Response wire types.
const (
	responsePong    = 1
	responseMessage = 4
	responseUpdate  = 7
	responseModal   = 9
)

// flagEphemeral marks a message visible only to the acting user.
const flagEphemeral = 64

// Dispatcher routes a parsed interaction to its workflow step handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, ix *Interaction) (*Reply, error)
}

// Server receives interaction webhooks from the gateway. Each request is
// verified against the platform's Ed25519 public key before parsing.
type Server struct {
	publicKey   ed25519.PublicKey
	dispatcher  Dispatcher
	replyWindow time.Duration
	logger      *slog.Logger
}

// NewServer creates a Server. publicKeyHex is the application's hex-encoded
// Ed25519 public key from the platform.
func NewServer(publicKeyHex string, dispatcher Dispatcher, logger *slog.Logger) (*Server, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &Server{
		publicKey:   ed25519.PublicKey(key),
		dispatcher:  dispatcher,
		replyWindow: DefaultReplyWindow,
		logger:      logger,
	}, nil
}

// SetReplyWindow overrides the default reply deadline.
func (s *Server) SetReplyWindow(d time.Duration) {
	if d > 0 {
		s.replyWindow = d
	}
}

// Handler returns the http.Handler for the interactions endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /interactions", s.handleInteraction)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	received := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if !s.verifySignature(r.Header, body) {
		s.logger.Warn("rejected interaction with bad signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	ix, ping, err := parseInteraction(body, received)
	if err != nil {
		s.logger.Warn("unparseable interaction", "error", err)
		http.Error(w, "bad interaction payload", http.StatusBadRequest)
		return
	}
	if ping {
		writeJSON(w, wireResponse{Type: responsePong})
		return
	}

	// The reply must land inside the platform's window; a handler that
	// suspends past it gives up rather than retrying.
	ctx, cancel := context.WithDeadline(r.Context(), received.Add(s.replyWindow))
	defer cancel()

	reply, err := s.dispatcher.Dispatch(ctx, ix)
	if err != nil {
		if errors.Is(err, ErrExpired) || ctx.Err() != nil {
			s.logger.Error("interaction expired before reply",
				"interaction_id", ix.ID, "custom_id", ix.CustomID)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.logger.Error("dispatch failed", "interaction_id", ix.ID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, buildWireResponse(reply))
}

// verifySignature checks the Ed25519 signature over timestamp+body.
func (s *Server) verifySignature(h http.Header, body []byte) bool {
	sigHex := h.Get("X-Signature-Ed25519")
	timestamp := h.Get("X-Signature-Timestamp")
	if sigHex == "" || timestamp == "" {
		return false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(s.publicKey, msg, sig)
}

// wireResponse is the interaction response envelope.
type wireResponse struct {
	Type int               `json:"type"`
	Data *wireResponseData `json:"data,omitempty"`
}

type wireResponseData struct {
	Content    string       `json:"content,omitempty"`
	Flags      int          `json:"flags,omitempty"`
	Embeds     []Embed      `json:"embeds,omitempty"`
	Components *[]ActionRow `json:"components,omitempty"`

	// Modal fields
	CustomID string `json:"custom_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

func buildWireResponse(reply *Reply) wireResponse {
	switch reply.Kind {
	case ReplyModal:
		rows := make([]ActionRow, len(reply.ModalInputs))
		for i, input := range reply.ModalInputs {
			rows[i] = Row(input)
		}
		return wireResponse{
			Type: responseModal,
			Data: &wireResponseData{
				CustomID:   reply.ModalCustomID,
				Title:      reply.ModalTitle,
				Components: &rows,
			},
		}

	case ReplyUpdate:
		return wireResponse{
			Type: responseUpdate,
			Data: &wireResponseData{
				Content:    reply.Content,
				Embeds:     reply.Embeds,
				Components: reply.Components,
			},
		}

	default: // ReplyEphemeral
		return wireResponse{
			Type: responseMessage,
			Data: &wireResponseData{
				Content:    reply.Content,
				Flags:      flagEphemeral,
				Embeds:     reply.Embeds,
				Components: reply.Components,
			},
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// The response is already committed; nothing to do but note it.
		slog.Default().Error("writing interaction response", "error", err)
	}
}
