package domain

import "time"

// Repository is a GitHub repository linked to a workspace for code-context
// routing. Deletion is soft via IsActive.
type Repository struct {
	ID          string
	WorkspaceID string

	Name          string
	FullName      string // e.g. "acme-corp/frontend"
	CloneURL      string
	DefaultBranch string

	GitHubID     int64
	GitHubNodeID string

	BranchPrefix      *string
	AutoCreateBranches bool

	IsActive     bool
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChannelMapping binds a Slack channel to at most one repository within a
// workspace, with per-channel behavior flags.
type ChannelMapping struct {
	ID           string
	WorkspaceID  string
	RepositoryID *string

	SlackChannelID   string
	SlackChannelName string

	AutoExtractTasks bool
	MentionRequired  bool
	DefaultPriority  *TaskPriority

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
