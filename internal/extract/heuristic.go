package extract

import (
	"strings"

	"github.com/fixbot/fixbot/internal/domain"
)

// maxFallbackTitleLen caps the title derived from raw message text.
const maxFallbackTitleLen = 100

// fallbackConfidence marks drafts that were not produced by a model.
const fallbackConfidence = 0.5

// Fallback builds a draft from raw text without any classification. It is
// the last line of defense when the AI call fails and never fails itself.
func Fallback(text string) *Draft {
	return &Draft{
		Title:       truncate(text, maxFallbackTitleLen),
		Description: text,
		Priority:    domain.TaskPriorityMedium,
		TaskType:    domain.TaskTypeTask,
		Confidence:  fallbackConfidence,
	}
}

// Classify builds a draft from raw text using the keyword heuristics the
// model prompt encodes. Used when AI extraction is disabled or unconfigured.
func Classify(text string) *Draft {
	draft := Fallback(text)
	lower := strings.ToLower(text)

	draft.Priority = classifyPriority(lower)
	draft.TaskType = classifyType(lower)

	return draft
}

func classifyPriority(lower string) domain.TaskPriority {
	switch {
	case containsAny(lower, "production down", "security", "blocking release", "urgent", "asap"):
		return domain.TaskPriorityCritical
	case containsAny(lower, "blocking", "important"):
		return domain.TaskPriorityHigh
	case containsAny(lower, "minor", "nice to have"):
		return domain.TaskPriorityLow
	default:
		return domain.TaskPriorityMedium
	}
}

func classifyType(lower string) domain.TaskType {
	switch {
	case containsAny(lower, "broken", "not working", "error", "crash", "fails", "bug"):
		return domain.TaskTypeBug
	case containsAny(lower, "add ", "new feature", "feature"):
		return domain.TaskTypeFeature
	case containsAny(lower, "improve", "enhance", "update"):
		return domain.TaskTypeImprovement
	case containsAny(lower, "?", "how ", "why "):
		return domain.TaskTypeQuestion
	default:
		return domain.TaskTypeTask
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
