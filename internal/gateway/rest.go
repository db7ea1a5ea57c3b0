// ABOUTME: Minimal REST client for follow-up effects that are not the interaction reply.
// ABOUTME: Authenticates as the bot's own account, which keeps every mutation attributable.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAPIBase is the platform's REST API base URL.
const DefaultAPIBase = "https://discord.com/api/v10"

// OutgoingMessage is a message body for create and edit calls.
type OutgoingMessage struct {
	Content    string       `json:"content,omitempty"`
	Embeds     []Embed      `json:"embeds,omitempty"`
	Components *[]ActionRow `json:"components,omitempty"`
}

// Message is the subset of the created/edited message herald reads back.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// Client posts and edits channel messages. Every call carries the bot
// token, so audit-log consumers can tell herald's actions apart from human
// ones by the acting account alone.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a REST client authenticated with the bot token.
func NewClient(token string) *Client {
	return &Client{
		baseURL: DefaultAPIBase,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateMessage posts a new message to a channel and returns it.
func (c *Client) CreateMessage(ctx context.Context, channelID string, msg *OutgoingMessage) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	return c.do(ctx, http.MethodPost, path, msg)
}

// EditMessage replaces a message's content, embeds, and components.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg *OutgoingMessage) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodPatch, path, msg)
}

func (c *Client) do(ctx context.Context, method, path string, body *OutgoingMessage) (*Message, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decoding message response: %w", err)
	}
	return &msg, nil
}
