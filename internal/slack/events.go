// Package slack implements the inbound Slack Events API surface and a
// minimal outbound Web API client.
package slack

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Envelope types delivered to the events endpoint.
const (
	EnvelopeURLVerification = "url_verification"
	EnvelopeEventCallback   = "event_callback"
)

// Inner event types.
const (
	EventAppMention = "app_mention"
	EventMessage    = "message"
)

// Envelope is the outer payload of an Events API request.
type Envelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`
	TeamID    string `json:"team_id,omitempty"`
	Event     *Event `json:"event,omitempty"`
}

// Event is the inner event of an event_callback envelope.
type Event struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype,omitempty"`
	Channel  string `json:"channel"`
	User     string `json:"user"`
	BotID    string `json:"bot_id,omitempty"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// IsThreadReply reports whether the event is a plain user message inside a
// thread. Bot messages and subtyped messages (edits, joins) are excluded.
func (e *Event) IsThreadReply() bool {
	return e.Type == EventMessage && e.Subtype == "" && e.BotID == "" && e.ThreadTS != ""
}

// ParseEnvelope decodes an Events API request body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse event envelope: %w", err)
	}
	return &env, nil
}

// InteractionPayload is the decoded form payload of an interactivity request.
type InteractionPayload struct {
	Type string `json:"type"`
	Team struct {
		ID string `json:"id"`
	} `json:"team"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Message struct {
		TS       string `json:"ts"`
		ThreadTS string `json:"thread_ts,omitempty"`
	} `json:"message"`
	Actions []struct {
		ActionID string `json:"action_id"`
	} `json:"actions"`
}

// ParseInteraction decodes the JSON payload field of an interactivity
// request body.
func ParseInteraction(payload []byte) (*InteractionPayload, error) {
	var p InteractionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("parse interaction payload: %w", err)
	}
	return &p, nil
}

// statusActionPrefix keys one-click status-change buttons.
const statusActionPrefix = "task_status_"

// StatusActionID encodes a one-click status change as a block action ID,
// e.g. "task_status_FIX-7_done".
func StatusActionID(displayID, status string) string {
	return statusActionPrefix + displayID + "_" + status
}

// ParseStatusActionID decodes a status-change action ID into its display ID
// and target status. The display ID never contains an underscore, so the
// first underscore after the prefix is the separator (statuses like
// "in_progress" do contain one).
func ParseStatusActionID(actionID string) (displayID, status string, ok bool) {
	rest, found := strings.CutPrefix(actionID, statusActionPrefix)
	if !found {
		return "", "", false
	}
	displayID, status, found = strings.Cut(rest, "_")
	if !found || displayID == "" || status == "" {
		return "", "", false
	}
	return displayID, status, true
}

var mentionToken = regexp.MustCompile(`<@[A-Z0-9]+>`)

// StripMentions removes bot-mention tokens like <@U123ABC> from message text
// and trims surrounding whitespace.
func StripMentions(text string) string {
	return strings.TrimSpace(mentionToken.ReplaceAllString(text, ""))
}
