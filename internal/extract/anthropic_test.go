package extract_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/extract"
)

const testTimeout = 5 * time.Second

// anthropicReply builds a Messages API response with one text block.
func anthropicReply(text string) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	}
}

func TestAnthropicExtractor_Extract(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		System   string `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		draft := `{"title": "Fix login on mobile", "description": "Login button does nothing on mobile Safari", "priority": "high", "taskType": "bug", "confidence": 0.92}`
		json.NewEncoder(w).Encode(anthropicReply(draft))
	}))
	defer server.Close()

	e := extract.NewAnthropicExtractor("test-key", "claude-sonnet-4-20250514", testTimeout,
		extract.WithBaseURL(server.URL))

	draft, err := e.Extract(context.Background(), "login broken on mobile", "bugs")
	require.NoError(t, err)

	assert.Equal(t, "Fix login on mobile", draft.Title)
	assert.Equal(t, domain.TaskPriorityHigh, draft.Priority)
	assert.Equal(t, domain.TaskTypeBug, draft.TaskType)
	assert.Equal(t, 0.92, draft.Confidence)

	assert.Equal(t, "claude-sonnet-4-20250514", gotBody.Model)
	assert.NotEmpty(t, gotBody.System)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	// The channel hint rides along with the message text.
	assert.Contains(t, gotBody.Messages[0].Content, "#bugs")
	assert.Contains(t, gotBody.Messages[0].Content, "login broken on mobile")
}

func TestAnthropicExtractor_StripsCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		draft := "```json\n{\"title\": \"Add dark mode\", \"description\": \"\", \"priority\": \"medium\", \"taskType\": \"feature\", \"confidence\": 0.8}\n```"
		json.NewEncoder(w).Encode(anthropicReply(draft))
	}))
	defer server.Close()

	e := extract.NewAnthropicExtractor("test-key", "m", testTimeout, extract.WithBaseURL(server.URL))

	draft, err := e.Extract(context.Background(), "add dark mode", "")
	require.NoError(t, err)
	assert.Equal(t, "Add dark mode", draft.Title)
	assert.Equal(t, domain.TaskTypeFeature, draft.TaskType)
}

func TestAnthropicExtractor_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		draft := `{"title": "Recovered", "description": "", "priority": "medium", "taskType": "task", "confidence": 0.7}`
		json.NewEncoder(w).Encode(anthropicReply(draft))
	}))
	defer server.Close()

	e := extract.NewAnthropicExtractor("test-key", "m", testTimeout, extract.WithBaseURL(server.URL))

	draft, err := e.Extract(context.Background(), "flaky upstream", "")
	require.NoError(t, err)
	assert.Equal(t, "Recovered", draft.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnthropicExtractor_RejectsInvalidEnum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		draft := `{"title": "Bad", "description": "", "priority": "mega-urgent", "taskType": "task", "confidence": 0.9}`
		json.NewEncoder(w).Encode(anthropicReply(draft))
	}))
	defer server.Close()

	e := extract.NewAnthropicExtractor("test-key", "m", testTimeout, extract.WithBaseURL(server.URL))

	_, err := e.Extract(context.Background(), "whatever", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func TestAnthropicExtractor_RejectsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "bad model"},
		})
	}))
	defer server.Close()

	e := extract.NewAnthropicExtractor("test-key", "m", testTimeout, extract.WithBaseURL(server.URL))

	_, err := e.Extract(context.Background(), "whatever", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error")
}

func TestExtractOrFallback_DegradesOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	e := extract.NewAnthropicExtractor("test-key", "m", testTimeout, extract.WithBaseURL(server.URL))

	draft := extract.ExtractOrFallback(context.Background(), e, "the deploy webhook stopped firing", "")
	require.NotNil(t, draft)
	assert.Equal(t, "the deploy webhook stopped firing", draft.Title)
	assert.Equal(t, domain.TaskPriorityMedium, draft.Priority)
	assert.Equal(t, domain.TaskTypeTask, draft.TaskType)
	assert.Equal(t, 0.5, draft.Confidence)
}

func TestExtractOrFallback_NilExtractorClassifies(t *testing.T) {
	draft := extract.ExtractOrFallback(context.Background(), nil, "urgent: checkout crash", "")
	require.NotNil(t, draft)
	assert.Equal(t, domain.TaskPriorityCritical, draft.Priority)
	assert.Equal(t, domain.TaskTypeBug, draft.TaskType)
}
