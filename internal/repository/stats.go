package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fixbot/fixbot/internal/domain"
)

// StatsFilters holds filters for statistics queries.
type StatsFilters struct {
	WorkspaceID  string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	RepositoryID *string // Optional: narrow to one linked repository
}

// AssigneeStatsResult holds task counts for a single assignee.
type AssigneeStatsResult struct {
	UserID          string
	UserName        string
	TasksOpen       int
	TasksInProgress int
	TasksCompleted  int
	TasksCancelled  int
}

// WorkspaceStatsResult holds overall workspace statistics.
type WorkspaceStatsResult struct {
	TotalTasksCreated int
	TasksByStatus     map[string]int
	TasksByPriority   map[string]int
	CompletedInPeriod int
}

// GetAssigneeStats retrieves per-assignee task counts for a workspace.
// Completed and cancelled counts are bounded by the period; open and
// in-progress counts reflect current state.
func (r *TaskRepository) GetAssigneeStats(ctx context.Context, filters StatsFilters) ([]AssigneeStatsResult, error) {
	query := `
		SELECT
			u.id,
			u.name,
			COUNT(CASE WHEN t.status IN ('backlog', 'todo', 'in_review') THEN 1 END) as tasks_open,
			COUNT(CASE WHEN t.status = 'in_progress' THEN 1 END) as tasks_in_progress,
			COUNT(CASE WHEN t.status = 'done' AND t.completed_at >= $2 AND t.completed_at <= $3 THEN 1 END) as tasks_completed,
			COUNT(CASE WHEN t.status = 'cancelled' AND t.updated_at >= $2 AND t.updated_at <= $3 THEN 1 END) as tasks_cancelled
		FROM users u
		JOIN tasks t ON t.assignee_id = u.id
		WHERE t.workspace_id = $1 AND u.is_active = true
	`

	args := []interface{}{filters.WorkspaceID, filters.PeriodStart, filters.PeriodEnd}

	if filters.RepositoryID != nil {
		query += " AND t.repository_id = $4"
		args = append(args, *filters.RepositoryID)
	}

	query += " GROUP BY u.id, u.name ORDER BY u.name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignee stats: %w", err)
	}
	defer rows.Close()

	var results []AssigneeStatsResult
	for rows.Next() {
		var result AssigneeStatsResult
		err := rows.Scan(
			&result.UserID,
			&result.UserName,
			&result.TasksOpen,
			&result.TasksInProgress,
			&result.TasksCompleted,
			&result.TasksCancelled,
		)
		if err != nil {
			return nil, fmt.Errorf("scan assignee stats: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignee stats rows: %w", err)
	}

	return results, nil
}

// GetWorkspaceStats retrieves overall workspace statistics: creation volume
// within the period, plus current counts grouped by status and by priority.
func (r *TaskRepository) GetWorkspaceStats(ctx context.Context, filters StatsFilters) (*WorkspaceStatsResult, error) {
	repoCond := ""
	args := []interface{}{filters.WorkspaceID, filters.PeriodStart, filters.PeriodEnd}
	if filters.RepositoryID != nil {
		repoCond = " AND repository_id = $4"
		args = append(args, *filters.RepositoryID)
	}

	var totalCreated int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM tasks
		WHERE workspace_id = $1 AND created_at >= $2 AND created_at <= $3`+repoCond,
		args...,
	).Scan(&totalCreated)
	if err != nil {
		return nil, fmt.Errorf("count total tasks: %w", err)
	}

	var completedInPeriod int
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM tasks
		WHERE workspace_id = $1
		  AND status = 'done'
		  AND completed_at >= $2 AND completed_at <= $3`+repoCond,
		args...,
	).Scan(&completedInPeriod)
	if err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}

	groupArgs := []interface{}{filters.WorkspaceID}
	groupCond := ""
	if filters.RepositoryID != nil {
		groupCond = " AND repository_id = $2"
		groupArgs = append(groupArgs, *filters.RepositoryID)
	}

	tasksByStatus := make(map[string]int)
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusBacklog, domain.TaskStatusTodo, domain.TaskStatusInProgress,
		domain.TaskStatusInReview, domain.TaskStatusDone, domain.TaskStatusCancelled,
	} {
		tasksByStatus[string(status)] = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE workspace_id = $1`+groupCond+`
		GROUP BY status`,
		groupArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		tasksByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status rows: %w", err)
	}

	tasksByPriority := make(map[string]int)
	for _, priority := range []domain.TaskPriority{
		domain.TaskPriorityCritical, domain.TaskPriorityHigh,
		domain.TaskPriorityMedium, domain.TaskPriorityLow,
	} {
		tasksByPriority[string(priority)] = 0
	}
	prows, err := r.pool.Query(ctx, `
		SELECT priority, COUNT(*)
		FROM tasks
		WHERE workspace_id = $1`+groupCond+`
		GROUP BY priority`,
		groupArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks by priority: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var priority string
		var count int
		if err := prows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		tasksByPriority[priority] = count
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("iterate priority rows: %w", err)
	}

	return &WorkspaceStatsResult{
		TotalTasksCreated: totalCreated,
		TasksByStatus:     tasksByStatus,
		TasksByPriority:   tasksByPriority,
		CompletedInPeriod: completedInPeriod,
	}, nil
}
