package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

var workspaceColumns = []string{
	"id", "name", "slug", "slack_team_id", "slack_team_name", "slack_bot_user_id",
	"default_task_priority", "ai_extraction_enabled", "created_at", "updated_at",
}

// WorkspaceRepository handles database operations for workspaces.
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository.
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := row.Scan(
		&ws.ID,
		&ws.Name,
		&ws.Slug,
		&ws.SlackTeamID,
		&ws.SlackTeamName,
		&ws.SlackBotUserID,
		&ws.DefaultTaskPriority,
		&ws.AIExtractionEnabled,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("scan workspace: %w", err)
	}
	return &ws, nil
}

// GetByID retrieves a workspace by ID.
func (r *WorkspaceRepository) GetByID(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	query, args, err := psql.
		Select(workspaceColumns...).
		From("workspaces").
		Where(sq.Eq{"id": workspaceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for workspace %s: %w", workspaceID, err)
	}

	return scanWorkspace(r.pool.QueryRow(ctx, query, args...))
}

// GetBySlackTeamID retrieves a workspace by its Slack team ID.
func (r *WorkspaceRepository) GetBySlackTeamID(ctx context.Context, teamID string) (*domain.Workspace, error) {
	query, args, err := psql.
		Select(workspaceColumns...).
		From("workspaces").
		Where(sq.Eq{"slack_team_id": teamID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetBySlackTeamID query: %w", err)
	}

	return scanWorkspace(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a new workspace.
func (r *WorkspaceRepository) Create(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	query, args, err := psql.
		Insert("workspaces").
		Columns("name", "slug", "slack_team_id", "slack_team_name", "slack_bot_user_id",
			"default_task_priority", "ai_extraction_enabled").
		Values(ws.Name, ws.Slug, ws.SlackTeamID, ws.SlackTeamName, ws.SlackBotUserID,
			ws.DefaultTaskPriority, ws.AIExtractionEnabled).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for workspace: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return ws, nil
}

// UpdateSlackMetadata refreshes the team name and bot user ID on an
// already-registered workspace.
func (r *WorkspaceRepository) UpdateSlackMetadata(ctx context.Context, workspaceID, teamName string, botUserID *string) error {
	query, args, err := psql.
		Update("workspaces").
		Set("slack_team_name", teamName).
		Set("slack_bot_user_id", botUserID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": workspaceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateSlackMetadata query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkspaceNotFound
	}

	return nil
}
