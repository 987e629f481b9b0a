package slack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixbot/fixbot/internal/slack"
)

func TestParseEnvelope_URLVerification(t *testing.T) {
	env, err := slack.ParseEnvelope([]byte(`{"type":"url_verification","challenge":"abc123"}`))
	require.NoError(t, err)
	assert.Equal(t, slack.EnvelopeURLVerification, env.Type)
	assert.Equal(t, "abc123", env.Challenge)
}

func TestParseEnvelope_EventCallback(t *testing.T) {
	body := `{
		"type": "event_callback",
		"team_id": "T12345",
		"event": {
			"type": "app_mention",
			"channel": "C123",
			"user": "U123",
			"text": "<@U0BOT> login is broken",
			"ts": "1700000000.000100"
		}
	}`

	env, err := slack.ParseEnvelope([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, slack.EnvelopeEventCallback, env.Type)
	assert.Equal(t, "T12345", env.TeamID)
	require.NotNil(t, env.Event)
	assert.Equal(t, slack.EventAppMention, env.Event.Type)
	assert.Equal(t, "C123", env.Event.Channel)
}

func TestIsThreadReply(t *testing.T) {
	tests := []struct {
		name  string
		event slack.Event
		want  bool
	}{
		{
			name:  "plain reply in thread",
			event: slack.Event{Type: "message", ThreadTS: "1.0"},
			want:  true,
		},
		{
			name:  "top-level message",
			event: slack.Event{Type: "message"},
			want:  false,
		},
		{
			name:  "bot reply",
			event: slack.Event{Type: "message", ThreadTS: "1.0", BotID: "B999"},
			want:  false,
		},
		{
			name:  "edited message",
			event: slack.Event{Type: "message", ThreadTS: "1.0", Subtype: "message_changed"},
			want:  false,
		},
		{
			name:  "mention event",
			event: slack.Event{Type: "app_mention", ThreadTS: "1.0"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.IsThreadReply())
		})
	}
}

func TestStatusActionID_RoundTrip(t *testing.T) {
	id := slack.StatusActionID("ACM-7", "in_progress")
	assert.Equal(t, "task_status_ACM-7_in_progress", id)

	displayID, status, ok := slack.ParseStatusActionID(id)
	require.True(t, ok)
	assert.Equal(t, "ACM-7", displayID)
	assert.Equal(t, "in_progress", status)
}

func TestParseStatusActionID_Rejects(t *testing.T) {
	for _, actionID := range []string{
		"something_else",
		"task_status_",
		"task_status_ACM-7",
		"task_status__done",
	} {
		_, _, ok := slack.ParseStatusActionID(actionID)
		assert.False(t, ok, "action id %q should not parse", actionID)
	}
}

func TestStripMentions(t *testing.T) {
	assert.Equal(t, "login is broken", slack.StripMentions("<@U0BOTBOT> login is broken"))
	assert.Equal(t, "ship it", slack.StripMentions("ship it <@U0BOTBOT>"))
	assert.Equal(t, "", slack.StripMentions("<@U0BOTBOT>"))
	assert.Equal(t, "no mentions here", slack.StripMentions("no mentions here"))
}
