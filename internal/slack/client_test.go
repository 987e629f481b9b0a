package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixbot/fixbot/internal/slack"
)

func TestPostMessage(t *testing.T) {
	var got struct {
		Channel  string           `json:"channel"`
		ThreadTS string           `json:"thread_ts"`
		Text     string           `json:"text"`
		Blocks   []map[string]any `json:"blocks"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	client := slack.NewClient("xoxb-test", 5*time.Second, slack.WithAPIURL(server.URL))

	err := client.PostMessage(context.Background(), slack.Message{
		ChannelID: "C123",
		ThreadTS:  "1700000000.000100",
		Text:      "Task created: *ACM-7*",
		Blocks: []slack.Block{
			slack.SectionBlock(":bug: *ACM-7*: Login broken"),
			slack.ActionsBlock(
				slack.Button{Text: "Start", ActionID: "task_status_ACM-7_in_progress", Style: "primary"},
				slack.Button{Text: "Done", ActionID: "task_status_ACM-7_done"},
			),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "C123", got.Channel)
	assert.Equal(t, "1700000000.000100", got.ThreadTS)
	assert.Equal(t, "Task created: *ACM-7*", got.Text)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, "section", got.Blocks[0]["type"])
	assert.Equal(t, "actions", got.Blocks[1]["type"])
}

func TestPostMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer server.Close()

	client := slack.NewClient("xoxb-test", 5*time.Second, slack.WithAPIURL(server.URL))

	err := client.PostMessage(context.Background(), slack.Message{ChannelID: "C404", Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestPostMessage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := slack.NewClient("xoxb-test", 5*time.Second, slack.WithAPIURL(server.URL))

	err := client.PostMessage(context.Background(), slack.Message{ChannelID: "C123", Text: "hi"})
	require.Error(t, err)
}
