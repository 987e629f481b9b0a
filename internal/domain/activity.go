package domain

import "time"

// ActivityType represents the kind of action recorded in the audit trail.
type ActivityType string

const (
	ActivityCreated         ActivityType = "created"
	ActivityStatusChanged   ActivityType = "status_changed"
	ActivityAssigned        ActivityType = "assigned"
	ActivityUnassigned      ActivityType = "unassigned"
	ActivityPriorityChanged ActivityType = "priority_changed"
	ActivityRepoLinked      ActivityType = "repo_linked"
	ActivityCommentAdded    ActivityType = "comment_added"
)

// ActivityChange is the (field, oldValue, newValue) triple attached to a
// mutating activity entry.
type ActivityChange struct {
	Field    string  `json:"field"`
	OldValue *string `json:"oldValue,omitempty"`
	NewValue *string `json:"newValue,omitempty"`
}

// TaskActivity is an append-only audit entry owned by a task. Entries are
// never mutated or deleted after insertion.
type TaskActivity struct {
	ID     string
	TaskID string
	UserID *string // nil for system or unresolved actors

	Type     ActivityType
	Changes  *ActivityChange
	Metadata map[string]any

	CreatedAt time.Time
}

// IsSystemEntry returns true if the entry has no resolved actor.
func (a *TaskActivity) IsSystemEntry() bool {
	return a.UserID == nil
}
