package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/repository"
)

// WorkspaceService handles workspace registration and lookup.
type WorkspaceService struct {
	workspaceRepo *repository.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(workspaceRepo *repository.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// Register upserts a workspace keyed by Slack team ID. A new team gets a
// workspace with a slug derived from its name; a known team has its name and
// bot user ID refreshed in place, keeping the slug (and so all existing
// display IDs) stable.
func (s *WorkspaceService) Register(ctx context.Context, teamID, teamName string, botUserID *string) (*domain.Workspace, error) {
	ws, err := s.workspaceRepo.GetBySlackTeamID(ctx, teamID)
	if err == nil {
		if err := s.workspaceRepo.UpdateSlackMetadata(ctx, ws.ID, teamName, botUserID); err != nil {
			return nil, err
		}
		ws.SlackTeamName = teamName
		ws.SlackBotUserID = botUserID
		return ws, nil
	}
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		return nil, fmt.Errorf("lookup workspace: %w", err)
	}

	defaultPriority := domain.TaskPriorityMedium
	ws = &domain.Workspace{
		Name:                teamName,
		Slug:                domain.DeriveSlug(teamName, teamID),
		SlackTeamID:         teamID,
		SlackTeamName:       teamName,
		SlackBotUserID:      botUserID,
		DefaultTaskPriority: &defaultPriority,
		AIExtractionEnabled: true,
	}
	if _, err := s.workspaceRepo.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	slog.Info("workspace registered",
		"workspace_id", ws.ID,
		"slug", ws.Slug,
		"slack_team_id", teamID,
	)

	return ws, nil
}
