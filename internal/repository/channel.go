package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

var channelColumns = []string{
	"id", "workspace_id", "repository_id", "slack_channel_id", "slack_channel_name",
	"auto_extract_tasks", "mention_required", "default_priority",
	"is_active", "created_at", "updated_at",
}

// ChannelRepository handles database operations for channel mappings.
type ChannelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{pool: pool}
}

func scanChannelMapping(row pgx.Row) (*domain.ChannelMapping, error) {
	var cm domain.ChannelMapping
	err := row.Scan(
		&cm.ID,
		&cm.WorkspaceID,
		&cm.RepositoryID,
		&cm.SlackChannelID,
		&cm.SlackChannelName,
		&cm.AutoExtractTasks,
		&cm.MentionRequired,
		&cm.DefaultPriority,
		&cm.IsActive,
		&cm.CreatedAt,
		&cm.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrChannelMappingNotFound
		}
		return nil, fmt.Errorf("scan channel mapping: %w", err)
	}
	return &cm, nil
}

// GetByID retrieves a channel mapping by ID.
func (r *ChannelRepository) GetByID(ctx context.Context, mappingID string) (*domain.ChannelMapping, error) {
	query, args, err := psql.
		Select(channelColumns...).
		From("channel_mappings").
		Where(sq.Eq{"id": mappingID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for channel mapping: %w", err)
	}

	return scanChannelMapping(r.pool.QueryRow(ctx, query, args...))
}

// GetBySlackChannelID retrieves the active mapping for a Slack channel.
// Looked up on every inbound event; a miss is expected for unmapped channels.
func (r *ChannelRepository) GetBySlackChannelID(ctx context.Context, channelID string) (*domain.ChannelMapping, error) {
	query, args, err := psql.
		Select(channelColumns...).
		From("channel_mappings").
		Where(sq.Eq{"slack_channel_id": channelID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetBySlackChannelID query: %w", err)
	}

	return scanChannelMapping(r.pool.QueryRow(ctx, query, args...))
}

// ListByWorkspace retrieves all active mappings for a workspace.
func (r *ChannelRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.ChannelMapping, error) {
	query, args, err := psql.
		Select(channelColumns...).
		From("channel_mappings").
		Where(sq.Eq{"workspace_id": workspaceID, "is_active": true}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByWorkspace query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query channel mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*domain.ChannelMapping
	for rows.Next() {
		cm, err := scanChannelMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return mappings, nil
}

// Create inserts a new channel mapping. A channel can be mapped at most once.
func (r *ChannelRepository) Create(ctx context.Context, cm *domain.ChannelMapping) (*domain.ChannelMapping, error) {
	existing, err := r.GetBySlackChannelID(ctx, cm.SlackChannelID)
	if err == nil && existing != nil {
		return nil, domain.ErrChannelAlreadyMapped
	}

	query, args, err := psql.
		Insert("channel_mappings").
		Columns("workspace_id", "repository_id", "slack_channel_id", "slack_channel_name",
			"auto_extract_tasks", "mention_required", "default_priority").
		Values(cm.WorkspaceID, cm.RepositoryID, cm.SlackChannelID, cm.SlackChannelName,
			cm.AutoExtractTasks, cm.MentionRequired, cm.DefaultPriority).
		Suffix("RETURNING id, is_active, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for channel mapping: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&cm.ID, &cm.IsActive, &cm.CreatedAt, &cm.UpdatedAt)
	if err != nil {
		// Concurrent maps can both pass the lookup; the loser hits the
		// unique constraint on slack_channel_id.
		if isUniqueViolation(err) {
			return nil, domain.ErrChannelAlreadyMapped
		}
		return nil, fmt.Errorf("create channel mapping: %w", err)
	}

	return cm, nil
}

// UpdateSettings updates the per-channel behavior flags and repository link.
func (r *ChannelRepository) UpdateSettings(ctx context.Context, cm *domain.ChannelMapping) error {
	query, args, err := psql.
		Update("channel_mappings").
		Set("repository_id", cm.RepositoryID).
		Set("auto_extract_tasks", cm.AutoExtractTasks).
		Set("mention_required", cm.MentionRequired).
		Set("default_priority", cm.DefaultPriority).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": cm.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateSettings query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update channel mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelMappingNotFound
	}

	return nil
}

// Deactivate soft-deletes a channel mapping.
func (r *ChannelRepository) Deactivate(ctx context.Context, mappingID string) error {
	query, args, err := psql.
		Update("channel_mappings").
		Set("is_active", false).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": mappingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Deactivate query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deactivate channel mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelMappingNotFound
	}

	return nil
}
