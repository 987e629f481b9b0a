package dto

// ChangeStatusRequest represents the request body for PATCH /tasks/:displayId/status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// AssignTaskRequest represents the request body for PATCH /tasks/:displayId/assignee.
type AssignTaskRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// LinkRepositoryRequest represents the request body for POST /repositories.
type LinkRepositoryRequest struct {
	WorkspaceID        string  `json:"workspace_id"`
	Name               string  `json:"name"`
	FullName           string  `json:"full_name"`
	CloneURL           string  `json:"clone_url"`
	DefaultBranch      string  `json:"default_branch,omitempty"`
	GitHubID           int64   `json:"github_id"`
	GitHubNodeID       string  `json:"github_node_id,omitempty"`
	BranchPrefix       *string `json:"branch_prefix,omitempty"`
	AutoCreateBranches bool    `json:"auto_create_branches,omitempty"`
}

// UpdateRepositoryRequest represents the request body for PATCH /repositories/:id.
type UpdateRepositoryRequest struct {
	DefaultBranch      *string `json:"default_branch,omitempty"`
	BranchPrefix       *string `json:"branch_prefix,omitempty"`
	AutoCreateBranches *bool   `json:"auto_create_branches,omitempty"`
}

// MapChannelRequest represents the request body for POST /channels.
type MapChannelRequest struct {
	WorkspaceID      string  `json:"workspace_id"`
	RepositoryID     *string `json:"repository_id,omitempty"`
	SlackChannelID   string  `json:"slack_channel_id"`
	SlackChannelName string  `json:"slack_channel_name"`
	AutoExtractTasks *bool   `json:"auto_extract_tasks,omitempty"`
	MentionRequired  *bool   `json:"mention_required,omitempty"`
	DefaultPriority  *string `json:"default_priority,omitempty"`
}

// UpdateChannelRequest represents the request body for PATCH /channels/:id.
type UpdateChannelRequest struct {
	RepositoryID     *string `json:"repository_id,omitempty"`
	AutoExtractTasks *bool   `json:"auto_extract_tasks,omitempty"`
	MentionRequired  *bool   `json:"mention_required,omitempty"`
	DefaultPriority  *string `json:"default_priority,omitempty"`
}

// ListTasksFilters represents query parameters for GET /tasks.
type ListTasksFilters struct {
	WorkspaceID string   // ?workspace=<uuid>, required
	Status      []string // ?status=todo,in_progress
	AssigneeID  *string  // ?assignee=<uuid> or ?assignee=me
	Limit       int      // ?limit=50
	Offset      int      // ?offset=0
}
