package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/repository"
)

// TaskService coordinates task creation, status transitions, and assignment.
// Every successful mutation writes exactly one activity entry.
type TaskService struct {
	pool         *pgxpool.Pool
	taskRepo     *repository.TaskRepository
	activityRepo *repository.ActivityRepository
	messageRepo  *repository.MessageRepository
	userRepo     *repository.UserRepository
	channelRepo  *repository.ChannelRepository
	counterRepo  *repository.CounterRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	activityRepo *repository.ActivityRepository,
	messageRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	channelRepo *repository.ChannelRepository,
	counterRepo *repository.CounterRepository,
) *TaskService {
	return &TaskService{
		pool:         pool,
		taskRepo:     taskRepo,
		activityRepo: activityRepo,
		messageRepo:  messageRepo,
		userRepo:     userRepo,
		channelRepo:  channelRepo,
		counterRepo:  counterRepo,
	}
}

// rollback rolls back tx, logging anything other than an already-closed tx.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// resolveActor looks up a user by Slack ID, tolerating a miss: an unlinked
// actor is recorded as nil, never an error.
func (s *TaskService) resolveActor(ctx context.Context, slackUserID string) *string {
	if slackUserID == "" {
		return nil
	}
	user, err := s.userRepo.GetBySlackUserID(ctx, slackUserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			slog.Error("failed to resolve slack user", "slack_user_id", slackUserID, "error", err)
		}
		return nil
	}
	return &user.ID
}

// CreateTaskParams are the inputs for creating a task from a Slack mention.
type CreateTaskParams struct {
	Workspace *domain.Workspace

	Title       string
	Description string
	Priority    domain.TaskPriority
	TaskType    domain.TaskType

	SlackChannelID string
	SlackMessageTS string
	SlackThreadTS  string
	SlackUserID    string

	CodeContext  *domain.CodeContext
	AIExtraction *domain.AIExtraction
}

// CreateTaskFromSlack allocates a task number, derives the display ID, and
// inserts the task in status backlog together with its "created" activity
// entry. Creator and repository resolution misses are tolerated: the task is
// created without them. The counter increment precedes the insert in its own
// atomic statement; a crash in between leaves a gap in numbering, never a
// duplicate.
func (s *TaskService) CreateTaskFromSlack(ctx context.Context, params CreateTaskParams) (*domain.Task, error) {
	ws := params.Workspace

	if !params.Priority.IsValid() {
		return nil, domain.ErrInvalidPriority
	}
	if !params.TaskType.IsValid() {
		return nil, domain.ErrInvalidTaskType
	}
	if params.Title == "" {
		return nil, domain.ErrEmptyTitle
	}

	var repositoryID *string
	var channelName *string
	mapping, err := s.channelRepo.GetBySlackChannelID(ctx, params.SlackChannelID)
	if err == nil {
		repositoryID = mapping.RepositoryID
		channelName = &mapping.SlackChannelName
	} else if !errors.Is(err, domain.ErrChannelMappingNotFound) {
		return nil, fmt.Errorf("lookup channel mapping: %w", err)
	}

	taskNumber, err := s.counterRepo.Allocate(ctx, ws.ID)
	if err != nil {
		return nil, err
	}

	creatorID := s.resolveActor(ctx, params.SlackUserID)

	task := &domain.Task{
		WorkspaceID:  ws.ID,
		RepositoryID: repositoryID,
		TaskNumber:   taskNumber,
		DisplayID:    domain.FormatDisplayID(ws.Slug, taskNumber),
		Title:        params.Title,
		Description:  params.Description,
		Status:       domain.TaskStatusBacklog,
		Priority:     params.Priority,
		TaskType:     params.TaskType,
		CreatedByID:  creatorID,
		Source: domain.TaskSource{
			Type:             domain.SourceTypeSlack,
			SlackChannelID:   &params.SlackChannelID,
			SlackChannelName: channelName,
			SlackMessageTS:   &params.SlackMessageTS,
			SlackThreadTS:    &params.SlackThreadTS,
		},
		CodeContext:  params.CodeContext,
		AIExtraction: params.AIExtraction,
		Labels:       []string{},
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.taskRepo.Create(ctx, tx, task); err != nil {
		return nil, err
	}

	entry := &domain.TaskActivity{
		TaskID:   task.ID,
		UserID:   creatorID,
		Type:     domain.ActivityCreated,
		Metadata: map[string]any{"source": "slack"},
	}
	if err := s.activityRepo.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task created",
		"task_id", task.ID,
		"display_id", task.DisplayID,
		"workspace_id", ws.ID,
		"task_number", taskNumber,
	)

	return task, nil
}

// StatusChange is the result of a successful status transition.
type StatusChange struct {
	Task      *domain.Task
	OldStatus domain.TaskStatus
	NewStatus domain.TaskStatus
}

// ChangeStatusByDisplayID transitions a task to newStatus on behalf of a
// Slack actor. See ChangeStatus for the transition semantics.
func (s *TaskService) ChangeStatusByDisplayID(
	ctx context.Context,
	workspaceID string,
	displayID string,
	newStatus domain.TaskStatus,
	actorSlackID string,
) (*StatusChange, error) {
	return s.ChangeStatus(ctx, workspaceID, displayID, newStatus, s.resolveActor(ctx, actorSlackID))
}

// ChangeStatus transitions a task to newStatus. All transitions between valid
// statuses are permitted; entering done stamps completedAt and leaving done
// clears it, keeping completedAt set exactly when the task is done. Exactly
// one status_changed activity entry is written per successful call. A missing
// display ID is reported as ErrTaskNotFound, never a panic.
func (s *TaskService) ChangeStatus(
	ctx context.Context,
	workspaceID string,
	displayID string,
	newStatus domain.TaskStatus,
	actorID *string,
) (*StatusChange, error) {
	if !newStatus.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	displayID = strings.ToUpper(displayID)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByDisplayIDForUpdate(ctx, tx, workspaceID, displayID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status

	var completedAt *time.Time
	if newStatus == domain.TaskStatusDone {
		now := time.Now()
		completedAt = &now
	}

	if err := s.taskRepo.UpdateStatus(ctx, tx, task.ID, oldStatus, newStatus, completedAt); err != nil {
		return nil, err
	}

	oldValue := string(oldStatus)
	newValue := string(newStatus)
	entry := &domain.TaskActivity{
		TaskID: task.ID,
		UserID: actorID,
		Type:   domain.ActivityStatusChanged,
		Changes: &domain.ActivityChange{
			Field:    "status",
			OldValue: &oldValue,
			NewValue: &newValue,
		},
	}
	if err := s.activityRepo.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	task.Status = newStatus
	task.CompletedAt = completedAt

	slog.Info("task status changed",
		"display_id", displayID,
		"old_status", oldStatus,
		"new_status", newStatus,
	)

	return &StatusChange{Task: task, OldStatus: oldStatus, NewStatus: newStatus}, nil
}

// Assignment is the result of a successful assignment.
type Assignment struct {
	Task     *domain.Task
	Assignee *domain.User
}

// AssignByDisplayID assigns a task to the user linked to assigneeSlackID.
// An assignee with no linked account fails with ErrUserNotLinked before any
// mutation: no task patch, no activity entry. The actor is resolved
// tolerantly like every other audit actor.
func (s *TaskService) AssignByDisplayID(
	ctx context.Context,
	workspaceID string,
	displayID string,
	assigneeSlackID string,
	actorSlackID string,
) (*Assignment, error) {
	assignee, err := s.userRepo.GetBySlackUserID(ctx, assigneeSlackID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotLinked
		}
		return nil, fmt.Errorf("resolve assignee: %w", err)
	}

	return s.Assign(ctx, workspaceID, displayID, assignee.ID, s.resolveActor(ctx, actorSlackID))
}

// Assign assigns a task to a known user and writes an assigned activity
// entry recording the previous and new assignee.
func (s *TaskService) Assign(
	ctx context.Context,
	workspaceID string,
	displayID string,
	assigneeID string,
	actorID *string,
) (*Assignment, error) {
	displayID = strings.ToUpper(displayID)

	assignee, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByDisplayIDForUpdate(ctx, tx, workspaceID, displayID)
	if err != nil {
		return nil, err
	}

	oldAssignee := task.AssigneeID

	if err := s.taskRepo.UpdateAssignee(ctx, tx, task.ID, &assignee.ID); err != nil {
		return nil, err
	}

	entry := &domain.TaskActivity{
		TaskID: task.ID,
		UserID: actorID,
		Type:   domain.ActivityAssigned,
		Changes: &domain.ActivityChange{
			Field:    "assigneeId",
			OldValue: oldAssignee,
			NewValue: &assignee.ID,
		},
	}
	if err := s.activityRepo.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	task.AssigneeID = &assignee.ID

	slog.Info("task assigned",
		"display_id", displayID,
		"assignee_id", assignee.ID,
	)

	return &Assignment{Task: task, Assignee: assignee}, nil
}

// AddMessageFromSlack appends a thread reply to a task's conversation.
// Replays of the same Slack message timestamp are dropped; the unique index
// on (task_id, slack_message_ts) catches retries racing past the existence
// check.
func (s *TaskService) AddMessageFromSlack(
	ctx context.Context,
	task *domain.Task,
	content string,
	slackUserID string,
	slackMessageTS string,
) (*domain.Message, error) {
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	exists, err := s.messageRepo.ExistsBySlackTS(ctx, task.ID, slackMessageTS)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	msg := &domain.Message{
		TaskID:         task.ID,
		AuthorID:       s.resolveActor(ctx, slackUserID),
		Content:        content,
		ContentType:    domain.ContentTypeText,
		SlackMessageTS: &slackMessageTS,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrMessageExists) {
			return nil, nil
		}
		return nil, err
	}

	return msg, nil
}
