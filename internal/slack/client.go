package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Block is an element of a Slack Block Kit layout.
type Block map[string]any

// SectionBlock builds a section block with mrkdwn text.
func SectionBlock(text string) Block {
	return Block{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}

// ContextBlock builds a context block with mrkdwn elements.
func ContextBlock(texts ...string) Block {
	elements := make([]map[string]any, 0, len(texts))
	for _, t := range texts {
		elements = append(elements, map[string]any{"type": "mrkdwn", "text": t})
	}
	return Block{"type": "context", "elements": elements}
}

// Button is an interactive button element.
type Button struct {
	Text     string
	ActionID string
	Style    string // "" | "primary" | "danger"
}

// ActionsBlock builds an actions block from buttons.
func ActionsBlock(buttons ...Button) Block {
	elements := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		el := map[string]any{
			"type":      "button",
			"text":      map[string]any{"type": "plain_text", "text": b.Text},
			"action_id": b.ActionID,
		}
		if b.Style != "" {
			el["style"] = b.Style
		}
		elements = append(elements, el)
	}
	return Block{"type": "actions", "elements": elements}
}

// Message is an outbound chat message.
type Message struct {
	ChannelID string
	ThreadTS  string // optional: reply in thread
	Text      string
	Blocks    []Block // optional richer layout
}

// Client is a minimal Slack Web API client. Calls are bounded by the HTTP
// client timeout; failures are returned for the caller to log, never fatal.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIURL overrides the Web API base URL (used in tests).
func WithAPIURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a Slack Web API client with the given bot token.
func NewClient(token string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		baseURL:    "https://slack.com/api",
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type postMessageRequest struct {
	Channel  string  `json:"channel"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	Text     string  `json:"text"`
	Blocks   []Block `json:"blocks,omitempty"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostMessage sends a chat.postMessage call.
func (c *Client) PostMessage(ctx context.Context, msg Message) error {
	body, err := json.Marshal(postMessageRequest{
		Channel:  msg.ChannelID,
		ThreadTS: msg.ThreadTS,
		Text:     msg.Text,
		Blocks:   msg.Blocks,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack status %d: %s", resp.StatusCode, raw)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if !api.OK {
		return fmt.Errorf("slack api error: %s", api.Error)
	}

	return nil
}
