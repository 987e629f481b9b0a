// Package extract turns free-text Slack messages into structured task
// drafts, via the Anthropic API when available and a deterministic
// heuristic otherwise.
package extract

import (
	"context"
	"log/slog"

	"github.com/fixbot/fixbot/internal/domain"
)

// Draft is a structured task draft produced from free text.
type Draft struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    domain.TaskPriority `json:"priority"`
	TaskType    domain.TaskType     `json:"taskType"`
	Confidence  float64             `json:"confidence"`
	CodeContext *domain.CodeContext `json:"codeContext,omitempty"`
}

// Extractor produces a task draft from free text. channelHint is the Slack
// channel name, when known, to give the model routing context.
type Extractor interface {
	// Extract returns a draft or an error. Errors are expected (the AI
	// service is untrusted and fallible); callers degrade to Fallback.
	Extract(ctx context.Context, text, channelHint string) (*Draft, error)

	// Model identifies the model used, for extraction metadata.
	Model() string
}

// ExtractOrFallback runs the extractor and degrades to the deterministic
// fallback on any failure. It never returns an error: task creation must
// succeed even when the AI service is unavailable. A nil extractor skips
// straight to the heuristic path.
func ExtractOrFallback(ctx context.Context, e Extractor, text, channelHint string) *Draft {
	if e == nil {
		return Classify(text)
	}

	draft, err := e.Extract(ctx, text, channelHint)
	if err != nil {
		slog.Warn("ai extraction failed, using fallback",
			"error", err,
			"model", e.Model(),
		)
		return Fallback(text)
	}

	return draft
}
