package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/extract"
)

func TestFallback(t *testing.T) {
	draft := extract.Fallback("the deploy webhook stopped firing")

	assert.Equal(t, "the deploy webhook stopped firing", draft.Title)
	assert.Equal(t, "the deploy webhook stopped firing", draft.Description)
	assert.Equal(t, domain.TaskPriorityMedium, draft.Priority)
	assert.Equal(t, domain.TaskTypeTask, draft.TaskType)
	assert.Equal(t, 0.5, draft.Confidence)
	assert.Nil(t, draft.CodeContext)
}

func TestFallback_TruncatesLongTitle(t *testing.T) {
	text := strings.Repeat("a", 250)
	draft := extract.Fallback(text)

	assert.Len(t, []rune(draft.Title), 100)
	// The description keeps the full report.
	assert.Equal(t, text, draft.Description)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		priority domain.TaskPriority
		taskType domain.TaskType
	}{
		{
			name:     "urgent broken login",
			text:     "urgent: login broken on mobile",
			priority: domain.TaskPriorityCritical,
			taskType: domain.TaskTypeBug,
		},
		{
			name:     "production down",
			text:     "production down since the last deploy",
			priority: domain.TaskPriorityCritical,
			taskType: domain.TaskTypeTask,
		},
		{
			name:     "blocking error",
			text:     "blocking: error in the checkout flow",
			priority: domain.TaskPriorityHigh,
			taskType: domain.TaskTypeBug,
		},
		{
			name:     "minor improvement",
			text:     "minor: improve the empty state copy",
			priority: domain.TaskPriorityLow,
			taskType: domain.TaskTypeImprovement,
		},
		{
			name:     "feature request",
			text:     "add dark mode to the dashboard",
			priority: domain.TaskPriorityMedium,
			taskType: domain.TaskTypeFeature,
		},
		{
			name:     "question",
			text:     "how do we rotate the signing key?",
			priority: domain.TaskPriorityMedium,
			taskType: domain.TaskTypeQuestion,
		},
		{
			name:     "plain task",
			text:     "rotate the staging credentials",
			priority: domain.TaskPriorityMedium,
			taskType: domain.TaskTypeTask,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := extract.Classify(tt.text)
			require.NotNil(t, draft)
			assert.Equal(t, tt.priority, draft.Priority, "priority for %q", tt.text)
			assert.Equal(t, tt.taskType, draft.TaskType, "type for %q", tt.text)
			assert.Equal(t, tt.text, draft.Title)
		})
	}
}
