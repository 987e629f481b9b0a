package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/handler/dto"
)

// workspaceParam extracts and validates the workspace query parameter.
// Returns ("", false) if invalid (error already sent to client).
func workspaceParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "workspace query parameter is required")
		return "", false
	}
	if _, err := uuid.Parse(workspaceID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "workspace must be a valid UUID")
		return "", false
	}
	return workspaceID, true
}

// pathID extracts and validates a UUID path parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" is required")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID")
		return "", false
	}
	return id, true
}

// handleListRepositories lists linked repositories for a workspace.
// @Summary List repositories
// @Tags repositories
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Success 200 {array} dto.RepositoryResponse
// @Security BearerAuth
// @Router /repositories [get]
func (h *Handler) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workspaceID, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	repos, err := h.repoRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	responses := make([]dto.RepositoryResponse, 0, len(repos))
	for _, repo := range repos {
		responses = append(responses, dto.ToRepositoryResponse(repo))
	}

	respondJSON(w, http.StatusOK, responses)
}

// handleLinkRepository links a GitHub repository to a workspace.
// @Summary Link repository
// @Description Links a GitHub repository. A repository already linked by GitHub ID is rejected.
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body dto.LinkRepositoryRequest true "Repository link request"
// @Success 201 {object} dto.RepositoryResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /repositories [post]
func (h *Handler) handleLinkRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.LinkRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.WorkspaceID == "" || req.Name == "" || req.FullName == "" || req.CloneURL == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"workspace_id, name, full_name, and clone_url are required")
		return
	}
	if req.GitHubID == 0 {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "github_id is required")
		return
	}

	if _, err := h.workspaceRepo.GetByID(ctx, req.WorkspaceID); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	defaultBranch := req.DefaultBranch
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	repo := &domain.Repository{
		WorkspaceID:        req.WorkspaceID,
		Name:               req.Name,
		FullName:           req.FullName,
		CloneURL:           req.CloneURL,
		DefaultBranch:      defaultBranch,
		GitHubID:           req.GitHubID,
		GitHubNodeID:       req.GitHubNodeID,
		BranchPrefix:       req.BranchPrefix,
		AutoCreateBranches: req.AutoCreateBranches,
	}

	if _, err := h.repoRepo.Create(ctx, repo); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToRepositoryResponse(repo))
}

// handleUpdateRepository updates branch settings on a repository.
// @Summary Update repository settings
// @Tags repositories
// @Accept json
// @Produce json
// @Param id path string true "Repository ID"
// @Param request body dto.UpdateRepositoryRequest true "Settings update"
// @Success 200 {object} dto.RepositoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /repositories/{id} [patch]
func (h *Handler) handleUpdateRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	repoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	repo, err := h.repoRepo.GetByID(ctx, repoID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	if req.DefaultBranch != nil {
		repo.DefaultBranch = *req.DefaultBranch
	}
	if req.BranchPrefix != nil {
		repo.BranchPrefix = req.BranchPrefix
	}
	if req.AutoCreateBranches != nil {
		repo.AutoCreateBranches = *req.AutoCreateBranches
	}

	if err := h.repoRepo.UpdateSettings(ctx, repo); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToRepositoryResponse(repo))
}

// handleUnlinkRepository soft-deletes a repository link.
// @Summary Unlink repository
// @Description Deactivates a repository link. Existing tasks keep their repository reference.
// @Tags repositories
// @Param id path string true "Repository ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /repositories/{id} [delete]
func (h *Handler) handleUnlinkRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	repoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repoRepo.Deactivate(ctx, repoID); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListChannels lists channel mappings for a workspace.
// @Summary List channel mappings
// @Tags channels
// @Produce json
// @Param workspace query string true "Workspace ID"
// @Success 200 {array} dto.ChannelResponse
// @Security BearerAuth
// @Router /channels [get]
func (h *Handler) handleListChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workspaceID, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	mappings, err := h.channelRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	responses := make([]dto.ChannelResponse, 0, len(mappings))
	for _, cm := range mappings {
		responses = append(responses, dto.ToChannelResponse(cm))
	}

	respondJSON(w, http.StatusOK, responses)
}

// handleMapChannel maps a Slack channel to a workspace.
// @Summary Map channel
// @Description Maps a Slack channel, optionally binding it to a repository. A channel can be mapped at most once.
// @Tags channels
// @Accept json
// @Produce json
// @Param request body dto.MapChannelRequest true "Channel mapping request"
// @Success 201 {object} dto.ChannelResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /channels [post]
func (h *Handler) handleMapChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.MapChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.WorkspaceID == "" || req.SlackChannelID == "" || req.SlackChannelName == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"workspace_id, slack_channel_id, and slack_channel_name are required")
		return
	}

	if _, err := h.workspaceRepo.GetByID(ctx, req.WorkspaceID); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	cm := &domain.ChannelMapping{
		WorkspaceID:      req.WorkspaceID,
		RepositoryID:     req.RepositoryID,
		SlackChannelID:   req.SlackChannelID,
		SlackChannelName: req.SlackChannelName,
		AutoExtractTasks: true,
		MentionRequired:  true,
	}
	if req.AutoExtractTasks != nil {
		cm.AutoExtractTasks = *req.AutoExtractTasks
	}
	if req.MentionRequired != nil {
		cm.MentionRequired = *req.MentionRequired
	}
	if req.DefaultPriority != nil {
		priority := domain.TaskPriority(*req.DefaultPriority)
		if !priority.IsValid() {
			respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid default_priority")
			return
		}
		cm.DefaultPriority = &priority
	}

	if _, err := h.channelRepo.Create(ctx, cm); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToChannelResponse(cm))
}

// handleUpdateChannel updates a channel mapping's settings.
// @Summary Update channel mapping
// @Tags channels
// @Accept json
// @Produce json
// @Param id path string true "Mapping ID"
// @Param request body dto.UpdateChannelRequest true "Settings update"
// @Success 200 {object} dto.ChannelResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /channels/{id} [patch]
func (h *Handler) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mappingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	cm, err := h.channelRepo.GetByID(ctx, mappingID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	if req.RepositoryID != nil {
		cm.RepositoryID = req.RepositoryID
	}
	if req.AutoExtractTasks != nil {
		cm.AutoExtractTasks = *req.AutoExtractTasks
	}
	if req.MentionRequired != nil {
		cm.MentionRequired = *req.MentionRequired
	}
	if req.DefaultPriority != nil {
		priority := domain.TaskPriority(*req.DefaultPriority)
		if !priority.IsValid() {
			respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid default_priority")
			return
		}
		cm.DefaultPriority = &priority
	}

	if err := h.channelRepo.UpdateSettings(ctx, cm); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToChannelResponse(cm))
}

// handleUnmapChannel soft-deletes a channel mapping.
// @Summary Unmap channel
// @Param id path string true "Mapping ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /channels/{id} [delete]
func (h *Handler) handleUnmapChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mappingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.channelRepo.Deactivate(ctx, mappingID); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
