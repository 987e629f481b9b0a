package dto

import (
	"time"

	"github.com/fixbot/fixbot/internal/domain"
)

// TaskListItem represents a task in the list view (without description,
// activity, or messages).
type TaskListItem struct {
	ID          string     `json:"id"`
	DisplayID   string     `json:"display_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	TaskType    string     `json:"task_type"`
	AssigneeID  *string    `json:"assignee_id"`
	CreatedByID *string    `json:"created_by_id"`
	Labels      []string   `json:"labels"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks  []TaskListItem `json:"tasks"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TaskDetailResponse represents full task details with activity and messages.
type TaskDetailResponse struct {
	Task     TaskDetail     `json:"task"`
	Activity []ActivityInfo `json:"activity"`
	Messages []MessageInfo  `json:"messages"`
}

// TaskDetail represents the full task object.
type TaskDetail struct {
	ID           string               `json:"id"`
	WorkspaceID  string               `json:"workspace_id"`
	RepositoryID *string              `json:"repository_id"`
	DisplayID    string               `json:"display_id"`
	TaskNumber   int                  `json:"task_number"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       string               `json:"status"`
	Priority     string               `json:"priority"`
	TaskType     string               `json:"task_type"`
	AssigneeID   *string              `json:"assignee_id"`
	CreatedByID  *string              `json:"created_by_id"`
	Source       SourceInfo           `json:"source"`
	CodeContext  *domain.CodeContext  `json:"code_context,omitempty"`
	AIExtraction *AIExtractionInfo    `json:"ai_extraction,omitempty"`
	Labels       []string             `json:"labels"`
	DueDate      *time.Time           `json:"due_date"`
	CompletedAt  *time.Time           `json:"completed_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// SourceInfo describes where a task came from.
type SourceInfo struct {
	Type             string  `json:"type"`
	SlackChannelID   *string `json:"slack_channel_id,omitempty"`
	SlackChannelName *string `json:"slack_channel_name,omitempty"`
	SlackMessageTS   *string `json:"slack_message_ts,omitempty"`
	SlackThreadTS    *string `json:"slack_thread_ts,omitempty"`
}

// AIExtractionInfo describes the extraction that produced a task.
type AIExtractionInfo struct {
	ExtractedAt  time.Time `json:"extracted_at"`
	Model        string    `json:"model"`
	Confidence   float64   `json:"confidence"`
	OriginalText string    `json:"original_text"`
}

// ActivityInfo represents one audit-trail entry.
type ActivityInfo struct {
	ID        string         `json:"id"`
	UserID    *string        `json:"user_id"`
	Type      string         `json:"type"`
	Field     *string        `json:"field,omitempty"`
	OldValue  *string        `json:"old_value,omitempty"`
	NewValue  *string        `json:"new_value,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// MessageInfo represents one conversation message on a task.
type MessageInfo struct {
	ID          string    `json:"id"`
	AuthorID    *string   `json:"author_id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	IsEdited    bool      `json:"is_edited"`
	CreatedAt   time.Time `json:"created_at"`
}

// RepositoryResponse represents a linked code repository.
type RepositoryResponse struct {
	ID                 string     `json:"id"`
	WorkspaceID        string     `json:"workspace_id"`
	Name               string     `json:"name"`
	FullName           string     `json:"full_name"`
	CloneURL           string     `json:"clone_url"`
	DefaultBranch      string     `json:"default_branch"`
	GitHubID           int64      `json:"github_id"`
	BranchPrefix       *string    `json:"branch_prefix"`
	AutoCreateBranches bool       `json:"auto_create_branches"`
	IsActive           bool       `json:"is_active"`
	LastSyncedAt       *time.Time `json:"last_synced_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ChannelResponse represents a channel mapping.
type ChannelResponse struct {
	ID               string    `json:"id"`
	WorkspaceID      string    `json:"workspace_id"`
	RepositoryID     *string   `json:"repository_id"`
	SlackChannelID   string    `json:"slack_channel_id"`
	SlackChannelName string    `json:"slack_channel_name"`
	AutoExtractTasks bool      `json:"auto_extract_tasks"`
	MentionRequired  bool      `json:"mention_required"`
	DefaultPriority  *string   `json:"default_priority"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToTaskListItem converts domain.Task to TaskListItem.
func ToTaskListItem(task *domain.Task) TaskListItem {
	return TaskListItem{
		ID:          task.ID,
		DisplayID:   task.DisplayID,
		Title:       task.Title,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		TaskType:    string(task.TaskType),
		AssigneeID:  task.AssigneeID,
		CreatedByID: task.CreatedByID,
		Labels:      task.Labels,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDetail converts domain.Task to TaskDetail.
func ToTaskDetail(task *domain.Task) TaskDetail {
	detail := TaskDetail{
		ID:           task.ID,
		WorkspaceID:  task.WorkspaceID,
		RepositoryID: task.RepositoryID,
		DisplayID:    task.DisplayID,
		TaskNumber:   task.TaskNumber,
		Title:        task.Title,
		Description:  task.Description,
		Status:       string(task.Status),
		Priority:     string(task.Priority),
		TaskType:     string(task.TaskType),
		AssigneeID:   task.AssigneeID,
		CreatedByID:  task.CreatedByID,
		Source: SourceInfo{
			Type:             string(task.Source.Type),
			SlackChannelID:   task.Source.SlackChannelID,
			SlackChannelName: task.Source.SlackChannelName,
			SlackMessageTS:   task.Source.SlackMessageTS,
			SlackThreadTS:    task.Source.SlackThreadTS,
		},
		CodeContext: task.CodeContext,
		Labels:      task.Labels,
		DueDate:     task.DueDate,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.AIExtraction != nil {
		detail.AIExtraction = &AIExtractionInfo{
			ExtractedAt:  task.AIExtraction.ExtractedAt,
			Model:        task.AIExtraction.Model,
			Confidence:   task.AIExtraction.Confidence,
			OriginalText: task.AIExtraction.OriginalText,
		}
	}

	return detail
}

// ToActivityInfo converts domain.TaskActivity to ActivityInfo.
func ToActivityInfo(entry *domain.TaskActivity) ActivityInfo {
	info := ActivityInfo{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Type:      string(entry.Type),
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt,
	}
	if entry.Changes != nil {
		info.Field = &entry.Changes.Field
		info.OldValue = entry.Changes.OldValue
		info.NewValue = entry.Changes.NewValue
	}
	return info
}

// ToMessageInfo converts domain.Message to MessageInfo.
func ToMessageInfo(msg *domain.Message) MessageInfo {
	return MessageInfo{
		ID:          msg.ID,
		AuthorID:    msg.AuthorID,
		Content:     msg.Content,
		ContentType: string(msg.ContentType),
		IsEdited:    msg.IsEdited,
		CreatedAt:   msg.CreatedAt,
	}
}

// ToRepositoryResponse converts domain.Repository to RepositoryResponse.
func ToRepositoryResponse(repo *domain.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:                 repo.ID,
		WorkspaceID:        repo.WorkspaceID,
		Name:               repo.Name,
		FullName:           repo.FullName,
		CloneURL:           repo.CloneURL,
		DefaultBranch:      repo.DefaultBranch,
		GitHubID:           repo.GitHubID,
		BranchPrefix:       repo.BranchPrefix,
		AutoCreateBranches: repo.AutoCreateBranches,
		IsActive:           repo.IsActive,
		LastSyncedAt:       repo.LastSyncedAt,
		CreatedAt:          repo.CreatedAt,
		UpdatedAt:          repo.UpdatedAt,
	}
}

// ToChannelResponse converts domain.ChannelMapping to ChannelResponse.
func ToChannelResponse(cm *domain.ChannelMapping) ChannelResponse {
	var priority *string
	if cm.DefaultPriority != nil {
		p := string(*cm.DefaultPriority)
		priority = &p
	}
	return ChannelResponse{
		ID:               cm.ID,
		WorkspaceID:      cm.WorkspaceID,
		RepositoryID:     cm.RepositoryID,
		SlackChannelID:   cm.SlackChannelID,
		SlackChannelName: cm.SlackChannelName,
		AutoExtractTasks: cm.AutoExtractTasks,
		MentionRequired:  cm.MentionRequired,
		DefaultPriority:  priority,
		IsActive:         cm.IsActive,
		CreatedAt:        cm.CreatedAt,
		UpdatedAt:        cm.UpdatedAt,
	}
}

// StatsResponse represents workspace statistics for a period.
type StatsResponse struct {
	Period      string          `json:"period"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Assignees   []AssigneeStats `json:"assignees"`
	Workspace   WorkspaceStats  `json:"workspace"`
}

// AssigneeStats represents task counts for a single assignee.
type AssigneeStats struct {
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	TasksOpen       int    `json:"tasks_open"`
	TasksInProgress int    `json:"tasks_in_progress"`
	TasksCompleted  int    `json:"tasks_completed"`
	TasksCancelled  int    `json:"tasks_cancelled"`
}

// WorkspaceStats represents overall workspace statistics.
type WorkspaceStats struct {
	TotalTasksCreated     int            `json:"total_tasks_created"`
	TasksByStatus         map[string]int `json:"tasks_by_status"`
	TasksByPriority       map[string]int `json:"tasks_by_priority"`
	CompletedInPeriod     int            `json:"completed_in_period"`
	CompletionRatePercent float64        `json:"completion_rate_percent"`
}
