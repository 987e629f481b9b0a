package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TaskStatus represents the lifecycle status of a task.
type TaskStatus string

const (
	TaskStatusBacklog    TaskStatus = "backlog"
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusBacklog, TaskStatusTodo, TaskStatusInProgress,
		TaskStatusInReview, TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for statuses product intent treats as final.
// The data layer still allows transitions away from them.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityCritical TaskPriority = "critical"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityLow      TaskPriority = "low"
)

// IsValid checks if the priority is one of the allowed values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityCritical, TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	default:
		return false
	}
}

// Emoji returns the Slack emoji for the priority.
func (p TaskPriority) Emoji() string {
	switch p {
	case TaskPriorityCritical:
		return ":rotating_light:"
	case TaskPriorityHigh:
		return ":fire:"
	case TaskPriorityLow:
		return ":white_circle:"
	default:
		return ":yellow_circle:"
	}
}

// TaskType classifies what kind of work a task represents.
type TaskType string

const (
	TaskTypeBug         TaskType = "bug"
	TaskTypeFeature     TaskType = "feature"
	TaskTypeImprovement TaskType = "improvement"
	TaskTypeTask        TaskType = "task"
	TaskTypeQuestion    TaskType = "question"
)

// IsValid checks if the task type is one of the allowed values.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeBug, TaskTypeFeature, TaskTypeImprovement, TaskTypeTask, TaskTypeQuestion:
		return true
	default:
		return false
	}
}

// Emoji returns the Slack emoji for the task type.
func (t TaskType) Emoji() string {
	switch t {
	case TaskTypeBug:
		return ":bug:"
	case TaskTypeFeature:
		return ":sparkles:"
	case TaskTypeImprovement:
		return ":chart_with_upwards_trend:"
	case TaskTypeQuestion:
		return ":question:"
	default:
		return ":clipboard:"
	}
}

// SourceType identifies where a task originated.
type SourceType string

const (
	SourceTypeSlack  SourceType = "slack"
	SourceTypeManual SourceType = "manual"
	SourceTypeGitHub SourceType = "github"
	SourceTypeAPI    SourceType = "api"
)

// TaskSource records the origin coordinates of a task.
type TaskSource struct {
	Type             SourceType
	SlackChannelID   *string
	SlackChannelName *string
	SlackMessageTS   *string
	SlackThreadTS    *string
	SlackPermalink   *string
	GitHubIssueNum   *int
	GitHubIssueURL   *string
}

// CodeContext carries code references extracted from a task report.
// JSON field names are the persisted wire contract the dashboard reads.
type CodeContext struct {
	FilePaths    []string `json:"filePaths,omitempty"`
	ErrorMessage *string  `json:"errorMessage,omitempty"`
	StackTrace   *string  `json:"stackTrace,omitempty"`
	CodeSnippet  *string  `json:"codeSnippet,omitempty"`
	SuggestedFix *string  `json:"suggestedFix,omitempty"`
	Branch       *string  `json:"branch,omitempty"`
	CommitSHA    *string  `json:"commitSha,omitempty"`
}

// IsEmpty returns true if the context carries no information.
func (c *CodeContext) IsEmpty() bool {
	return c == nil || (len(c.FilePaths) == 0 && c.ErrorMessage == nil &&
		c.StackTrace == nil && c.CodeSnippet == nil && c.SuggestedFix == nil &&
		c.Branch == nil && c.CommitSHA == nil)
}

// AIExtraction records metadata about the AI call that produced a task draft.
type AIExtraction struct {
	ExtractedAt  time.Time
	Model        string
	Confidence   float64
	OriginalText string
}

// ExecutionStatus is the status of an automated code-fix run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Execution tracks an automated code-fix run for a task. The record exists
// for the dashboard contract; no runner ships with the core.
type Execution struct {
	Status         ExecutionStatus `json:"status"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	PullRequestURL *string         `json:"pullRequestUrl,omitempty"`
	BranchName     *string         `json:"branchName,omitempty"`
	CommitSHA      *string         `json:"commitSha,omitempty"`
	ErrorMessage   *string         `json:"errorMessage,omitempty"`
}

// Task is the central entity: a tracked unit of work within a workspace.
type Task struct {
	ID           string
	WorkspaceID  string
	RepositoryID *string

	TaskNumber int
	DisplayID  string

	Title       string
	Description string

	Status   TaskStatus
	Priority TaskPriority
	TaskType TaskType

	AssigneeID  *string
	CreatedByID *string

	Source       TaskSource
	CodeContext  *CodeContext
	AIExtraction *AIExtraction
	Execution    *Execution

	Labels []string

	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultDisplayPrefix is used when a workspace slug yields no usable prefix.
const DefaultDisplayPrefix = "TSK"

const displayPrefixLen = 3

// DisplayPrefix derives the display-ID prefix from a workspace slug:
// uppercased, non-alphanumerics stripped, truncated to three characters.
func DisplayPrefix(slug string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(slug) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() >= displayPrefixLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return DefaultDisplayPrefix
	}
	return b.String()
}

// FormatDisplayID formats the human-readable task identifier for a workspace
// slug and task number, e.g. "FIX-123". Derived once at creation; immutable
// afterwards even if the workspace is renamed.
func FormatDisplayID(slug string, taskNumber int) string {
	return fmt.Sprintf("%s-%d", DisplayPrefix(slug), taskNumber)
}
