package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/handler/dto"
	"github.com/fixbot/fixbot/internal/middleware"
	"github.com/fixbot/fixbot/internal/repository"
)

// handleListTasks lists tasks for a workspace.
// @Summary List tasks
// @Description Lists tasks for a workspace, newest first. Supports status, assignee, and pagination filters.
// @Tags tasks
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Param status query string false "Comma-separated statuses"
// @Param assignee query string false "Assignee user ID, or 'me'"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.TasksListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_SESSION", "Authentication required")
		return
	}

	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "workspace query parameter is required")
		return
	}
	if _, err := uuid.Parse(workspaceID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "workspace must be a valid UUID")
		return
	}

	filters := repository.ListFilters{Limit: 50}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		for _, s := range strings.Split(statusParam, ",") {
			status := domain.TaskStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid status filter: "+s)
				return
			}
			filters.Status = append(filters.Status, status)
		}
	}

	if assignee := r.URL.Query().Get("assignee"); assignee != "" {
		if assignee == "me" {
			assignee = user.ID
		}
		filters.AssigneeID = &assignee
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 || limit > 200 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 200")
			return
		}
		filters.Limit = limit
	}

	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		offset, err := strconv.Atoi(offsetParam)
		if err != nil || offset < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "offset must be non-negative")
			return
		}
		filters.Offset = offset
	}

	tasks, err := h.taskRepo.List(ctx, workspaceID, filters)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	items := make([]dto.TaskListItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, dto.ToTaskListItem(task))
	}

	respondJSON(w, http.StatusOK, dto.TasksListResponse{
		Tasks:  items,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// handleGetTask retrieves task details with activity and messages.
// @Summary Get task details
// @Description Get a task by display ID with its full audit trail and conversation.
// @Tags tasks
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Param displayId path string true "Task display ID, e.g. ACM-7"
// @Success 200 {object} dto.TaskDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{displayId} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workspaceID, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	displayID := strings.ToUpper(r.PathValue("displayId"))
	if displayID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "display id is required")
		return
	}

	task, err := h.taskRepo.GetByDisplayID(ctx, workspaceID, displayID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	activity, err := h.activityRepo.GetByTaskID(ctx, task.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch activity")
		return
	}

	messages, err := h.messageRepo.GetByTaskID(ctx, task.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch messages")
		return
	}

	activityInfos := make([]dto.ActivityInfo, 0, len(activity))
	for _, entry := range activity {
		activityInfos = append(activityInfos, dto.ToActivityInfo(entry))
	}
	messageInfos := make([]dto.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		messageInfos = append(messageInfos, dto.ToMessageInfo(msg))
	}

	respondJSON(w, http.StatusOK, dto.TaskDetailResponse{
		Task:     dto.ToTaskDetail(task),
		Activity: activityInfos,
		Messages: messageInfos,
	})
}

// handleChangeStatus transitions a task's status.
// @Summary Change task status
// @Description Transitions a task to a new status. Entering done stamps completed_at; leaving done clears it.
// @Tags tasks
// @Accept json
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Param displayId path string true "Task display ID"
// @Param request body dto.ChangeStatusRequest true "Status change request"
// @Success 200 {object} dto.TaskDetail
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{displayId}/status [patch]
func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_SESSION", "Authentication required")
		return
	}

	workspaceID, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	displayID := r.PathValue("displayId")
	if displayID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "display id is required")
		return
	}

	var req dto.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	change, err := h.taskService.ChangeStatus(ctx, workspaceID, displayID, domain.TaskStatus(req.Status), &user.ID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(change.Task))
}

// handleAssignTask assigns a task to a user.
// @Summary Assign task
// @Description Assigns a task to the given user and records the change in the audit trail.
// @Tags tasks
// @Accept json
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Param displayId path string true "Task display ID"
// @Param request body dto.AssignTaskRequest true "Assignment request"
// @Success 200 {object} dto.TaskDetail
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{displayId}/assignee [patch]
func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_SESSION", "Authentication required")
		return
	}

	workspaceID, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	displayID := r.PathValue("displayId")
	if displayID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "display id is required")
		return
	}

	var req dto.AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.AssigneeID == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "assignee_id is required")
		return
	}

	assignment, err := h.taskService.Assign(ctx, workspaceID, displayID, req.AssigneeID, &user.ID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(assignment.Task))
}
