package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/fixbot/fixbot/internal/domain"
)

// anthropicVersion is the API version to use.
const anthropicVersion = "2023-06-01"

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 1 << 20 // 1MB

// extractionPrompt is the fixed instruction set for task extraction. The
// heuristics here are the contract: urgency keywords drive priority, content
// keywords drive type, and the response must be a single JSON object.
const extractionPrompt = `You are a task extraction assistant for a development team. Extract structured task information from Slack messages.

Your job is to analyze messages and extract:
- A clear, actionable task title (start with a verb when possible, max 80 chars)
- A fuller description with context
- Priority level based on urgency indicators
- Task type based on content

Priority indicators:
- critical: Production down, security issue, blocking release, "urgent", "ASAP"
- high: Important bug, urgent feature need, "blocking", "important"
- medium: Normal priority work (default)
- low: Nice to have, minor issues, "minor"

Task type indicators:
- bug: "broken", "not working", "error", "crash", "fails"
- feature: "add", "new", "feature"
- improvement: "improve", "enhance", "update"
- question: Contains "?", "how", "why"
- task: Default for general work items

Also extract any code context if mentioned:
- File paths (e.g., src/lib/auth.ts)
- Error messages
- Stack traces
- Code snippets

Respond with a single JSON object and nothing else:
{"title": string, "description": string, "priority": "critical"|"high"|"medium"|"low", "taskType": "bug"|"feature"|"improvement"|"task"|"question", "confidence": number between 0 and 1, "codeContext": {"filePaths": [string], "errorMessage": string, "stackTrace": string, "codeSnippet": string, "suggestedFix": string} or omitted}`

// AnthropicExtractor calls the Anthropic Messages API to extract a task
// draft. The response is untrusted: enum values are validated at the
// boundary and anything malformed is an error the caller degrades on.
type AnthropicExtractor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// AnthropicOption configures an AnthropicExtractor.
type AnthropicOption func(*AnthropicExtractor)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(url string) AnthropicOption {
	return func(e *AnthropicExtractor) {
		e.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) AnthropicOption {
	return func(e *AnthropicExtractor) {
		e.httpClient = c
	}
}

// NewAnthropicExtractor creates an extractor for the given API key and model.
// timeout bounds each individual API attempt.
func NewAnthropicExtractor(apiKey, model string, timeout time.Duration, opts ...AnthropicOption) *AnthropicExtractor {
	e := &AnthropicExtractor{
		apiKey:     apiKey,
		model:      model,
		baseURL:    "https://api.anthropic.com",
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the model identifier, for extraction metadata.
func (e *AnthropicExtractor) Model() string {
	return e.model
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extract calls the Messages API with bounded retries and parses the JSON
// draft from the response.
func (e *AnthropicExtractor) Extract(ctx context.Context, text, channelHint string) (*Draft, error) {
	userContent := text
	if channelHint != "" {
		userContent = fmt.Sprintf("Channel: #%s\n\n%s", channelHint, text)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     e.model,
		MaxTokens: 1024,
		System:    extractionPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: userContent}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))

	var raw []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err = e.doRequest(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return parseDraft(raw)
}

// doRequest performs one API attempt. Server-side (5xx) and rate-limit
// responses are retryable; client errors are not.
func (e *AnthropicExtractor) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	url := strings.TrimSuffix(e.baseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("anthropic request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, retry.RetryableError(fmt.Errorf("anthropic status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, raw)
	}

	return raw, nil
}

// parseDraft extracts the draft JSON from an API response body and validates
// it against the closed enum sets.
func parseDraft(raw []byte) (*Draft, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("anthropic error: %s: %s", resp.Error.Type, resp.Error.Message)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, fmt.Errorf("empty anthropic response")
	}

	var draft Draft
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &draft); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}

	if draft.Title == "" {
		return nil, fmt.Errorf("draft missing title")
	}
	if !draft.Priority.IsValid() {
		return nil, fmt.Errorf("draft priority %q: %w", draft.Priority, domain.ErrInvalidPriority)
	}
	if !draft.TaskType.IsValid() {
		return nil, fmt.Errorf("draft task type %q: %w", draft.TaskType, domain.ErrInvalidTaskType)
	}
	if draft.Confidence < 0 || draft.Confidence > 1 {
		return nil, fmt.Errorf("draft confidence %v out of range", draft.Confidence)
	}
	if draft.CodeContext.IsEmpty() {
		draft.CodeContext = nil
	}

	return &draft, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// sometimes wrap JSON in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
