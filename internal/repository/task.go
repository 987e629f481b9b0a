package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "workspace_id", "repository_id", "task_number", "display_id",
	"title", "description", "status", "priority", "task_type",
	"assignee_id", "created_by_id",
	"source_type", "source_slack_channel_id", "source_slack_channel_name",
	"source_slack_message_ts", "source_slack_thread_ts", "source_slack_permalink",
	"source_github_issue_number", "source_github_issue_url",
	"code_context", "execution",
	"ai_extracted_at", "ai_model", "ai_confidence", "ai_original_text",
	"labels", "due_date", "completed_at", "created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task          domain.Task
		codeContext   []byte
		execution     []byte
		aiExtractedAt *time.Time
		aiModel       *string
		aiConfidence  *float64
		aiOriginal    *string
	)

	err := row.Scan(
		&task.ID,
		&task.WorkspaceID,
		&task.RepositoryID,
		&task.TaskNumber,
		&task.DisplayID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.TaskType,
		&task.AssigneeID,
		&task.CreatedByID,
		&task.Source.Type,
		&task.Source.SlackChannelID,
		&task.Source.SlackChannelName,
		&task.Source.SlackMessageTS,
		&task.Source.SlackThreadTS,
		&task.Source.SlackPermalink,
		&task.Source.GitHubIssueNum,
		&task.Source.GitHubIssueURL,
		&codeContext,
		&execution,
		&aiExtractedAt,
		&aiModel,
		&aiConfidence,
		&aiOriginal,
		&task.Labels,
		&task.DueDate,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if len(codeContext) > 0 {
		task.CodeContext = &domain.CodeContext{}
		if err := json.Unmarshal(codeContext, task.CodeContext); err != nil {
			return nil, fmt.Errorf("parse code_context: %w", err)
		}
	}
	if len(execution) > 0 {
		task.Execution = &domain.Execution{}
		if err := json.Unmarshal(execution, task.Execution); err != nil {
			return nil, fmt.Errorf("parse execution: %w", err)
		}
	}
	if aiModel != nil && aiExtractedAt != nil {
		task.AIExtraction = &domain.AIExtraction{
			ExtractedAt: *aiExtractedAt,
			Model:       *aiModel,
		}
		if aiConfidence != nil {
			task.AIExtraction.Confidence = *aiConfidence
		}
		if aiOriginal != nil {
			task.AIExtraction.OriginalText = *aiOriginal
		}
	}

	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// Create inserts a new task within a transaction. The caller must have
// already allocated TaskNumber and derived DisplayID; both are immutable
// afterwards. Returns the task with ID and timestamps populated.
func (r *TaskRepository) Create(ctx context.Context, tx pgx.Tx, task *domain.Task) (*domain.Task, error) {
	if task.Labels == nil {
		task.Labels = []string{}
	}

	var codeContext, execution []byte
	var err error
	if !task.CodeContext.IsEmpty() {
		codeContext, err = json.Marshal(task.CodeContext)
		if err != nil {
			return nil, fmt.Errorf("marshal code_context: %w", err)
		}
	}
	if task.Execution != nil {
		execution, err = json.Marshal(task.Execution)
		if err != nil {
			return nil, fmt.Errorf("marshal execution: %w", err)
		}
	}

	var aiExtractedAt *time.Time
	var aiModel, aiOriginal *string
	var aiConfidence *float64
	if task.AIExtraction != nil {
		aiExtractedAt = &task.AIExtraction.ExtractedAt
		aiModel = &task.AIExtraction.Model
		aiConfidence = &task.AIExtraction.Confidence
		aiOriginal = &task.AIExtraction.OriginalText
	}

	query, args, err := psql.
		Insert("tasks").
		Columns(
			"workspace_id", "repository_id", "task_number", "display_id",
			"title", "description", "status", "priority", "task_type",
			"assignee_id", "created_by_id",
			"source_type", "source_slack_channel_id", "source_slack_channel_name",
			"source_slack_message_ts", "source_slack_thread_ts", "source_slack_permalink",
			"source_github_issue_number", "source_github_issue_url",
			"code_context", "execution",
			"ai_extracted_at", "ai_model", "ai_confidence", "ai_original_text",
			"labels", "due_date",
		).
		Values(
			task.WorkspaceID, task.RepositoryID, task.TaskNumber, task.DisplayID,
			task.Title, task.Description, task.Status, task.Priority, task.TaskType,
			task.AssigneeID, task.CreatedByID,
			task.Source.Type, task.Source.SlackChannelID, task.Source.SlackChannelName,
			task.Source.SlackMessageTS, task.Source.SlackThreadTS, task.Source.SlackPermalink,
			task.Source.GitHubIssueNum, task.Source.GitHubIssueURL,
			codeContext, execution,
			aiExtractedAt, aiModel, aiConfidence, aiOriginal,
			task.Labels, task.DueDate,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

// GetByID retrieves a task by its UUID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// GetByDisplayID retrieves a task by its human-readable display ID. Display
// IDs are unique per workspace only, so the lookup is always workspace-scoped.
func (r *TaskRepository) GetByDisplayID(ctx context.Context, workspaceID, displayID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"workspace_id": workspaceID, "display_id": displayID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByDisplayID query for task %s: %w", displayID, err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// GetByDisplayIDForUpdate retrieves a task by workspace and display ID with a
// FOR UPDATE lock (within a transaction).
func (r *TaskRepository) GetByDisplayIDForUpdate(ctx context.Context, tx pgx.Tx, workspaceID, displayID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"workspace_id": workspaceID, "display_id": displayID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByDisplayIDForUpdate query for task %s: %w", displayID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// GetBySlackThread finds the task bound to a Slack channel+thread within a
// workspace. Most threads have no task; callers treat ErrTaskNotFound as an
// expected miss.
func (r *TaskRepository) GetBySlackThread(ctx context.Context, workspaceID, channelID, threadTS string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{
			"workspace_id":            workspaceID,
			"source_slack_channel_id": channelID,
			"source_slack_thread_ts":  threadTS,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetBySlackThread query: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// ListFilters narrows List results.
type ListFilters struct {
	Status     []domain.TaskStatus
	AssigneeID *string
	Limit      int
	Offset     int
}

// List retrieves tasks for a workspace, newest first.
func (r *TaskRepository) List(ctx context.Context, workspaceID string, filters ListFilters) ([]*domain.Task, error) {
	builder := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"workspace_id": workspaceID}).
		OrderBy("created_at DESC")

	if len(filters.Status) > 0 {
		builder = builder.Where(sq.Eq{"status": filters.Status})
	}
	if filters.AssigneeID != nil {
		builder = builder.Where(sq.Eq{"assignee_id": *filters.AssigneeID})
	}
	if filters.Limit > 0 {
		builder = builder.Limit(uint64(filters.Limit))
	}
	if filters.Offset > 0 {
		builder = builder.Offset(uint64(filters.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

// UpdateStatus updates the task status with optimistic locking against the
// status the caller read. completedAt is written as given: set when entering
// done, nil (cleared) otherwise. Returns ErrTaskConflict if the task was
// modified concurrently.
func (r *TaskRepository) UpdateStatus(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	oldStatus domain.TaskStatus,
	newStatus domain.TaskStatus,
	completedAt *time.Time,
) error {
	query, args, err := psql.
		Update("tasks").
		Set("status", newStatus).
		Set("completed_at", completedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":     taskID,
			"status": oldStatus,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateStatus query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskConflict
	}

	return nil
}

// UpdateAssignee sets or clears the task assignee.
func (r *TaskRepository) UpdateAssignee(ctx context.Context, tx pgx.Tx, taskID string, assigneeID *string) error {
	query, args, err := psql.
		Update("tasks").
		Set("assignee_id", assigneeID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateAssignee query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task assignee: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}
