package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fixbot/fixbot/internal/handler/dto"
	"github.com/fixbot/fixbot/internal/repository"
)

// handleGetStats returns workspace and per-assignee statistics.
// @Summary Get statistics
// @Description Task counts by status, priority, and assignee for a workspace over a period.
// @Tags stats
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Param period query string false "Period: day, week (default), month, all"
// @Param repository_id query string false "Narrow to one linked repository UUID"
// @Success 200 {object} dto.StatsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /stats [get]
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workspaceID, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	period := query.Get("period")
	if period == "" {
		period = "week"
	}

	now := time.Now()
	var periodStart time.Time
	switch period {
	case "day":
		periodStart = now.AddDate(0, 0, -1)
	case "week":
		periodStart = now.AddDate(0, 0, -7)
	case "month":
		periodStart = now.AddDate(0, -1, 0)
	case "all":
		periodStart = time.Time{}
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid period, must be: day, week, month, all")
		return
	}

	var repositoryFilter *string
	if repositoryID := query.Get("repository_id"); repositoryID != "" {
		if _, err := uuid.Parse(repositoryID); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "repository_id must be a valid UUID")
			return
		}
		repositoryFilter = &repositoryID
	}

	filters := repository.StatsFilters{
		WorkspaceID:  workspaceID,
		PeriodStart:  periodStart,
		PeriodEnd:    now,
		RepositoryID: repositoryFilter,
	}

	assigneeStats, err := h.taskRepo.GetAssigneeStats(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch assignee stats")
		return
	}

	workspaceStats, err := h.taskRepo.GetWorkspaceStats(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch workspace stats")
		return
	}

	assignees := make([]dto.AssigneeStats, len(assigneeStats))
	for i, stat := range assigneeStats {
		assignees[i] = dto.AssigneeStats{
			UserID:          stat.UserID,
			UserName:        stat.UserName,
			TasksOpen:       stat.TasksOpen,
			TasksInProgress: stat.TasksInProgress,
			TasksCompleted:  stat.TasksCompleted,
			TasksCancelled:  stat.TasksCancelled,
		}
	}

	totalTasks := 0
	for _, count := range workspaceStats.TasksByStatus {
		totalTasks += count
	}
	completionRate := 0.0
	if totalTasks > 0 {
		doneCount := workspaceStats.TasksByStatus["done"]
		completionRate = float64(doneCount) / float64(totalTasks) * 100
	}

	respondJSON(w, http.StatusOK, dto.StatsResponse{
		Period:      period,
		PeriodStart: periodStart,
		PeriodEnd:   now,
		Assignees:   assignees,
		Workspace: dto.WorkspaceStats{
			TotalTasksCreated:     workspaceStats.TotalTasksCreated,
			TasksByStatus:         workspaceStats.TasksByStatus,
			TasksByPriority:       workspaceStats.TasksByPriority,
			CompletedInPeriod:     workspaceStats.CompletedInPeriod,
			CompletionRatePercent: completionRate,
		},
	})
}
