package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

// MessageRepository handles database operations for task messages.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create appends a message to a task. A Slack timestamp already recorded on
// the task returns ErrMessageExists.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	query, args, err := psql.
		Insert("messages").
		Columns("task_id", "author_id", "content", "content_type", "slack_message_ts").
		Values(msg.TaskID, msg.AuthorID, msg.Content, msg.ContentType, msg.SlackMessageTS).
		Suffix("RETURNING id, is_edited, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&msg.ID, &msg.IsEdited, &msg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMessageExists
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// ExistsBySlackTS reports whether a message synced from the given Slack
// message timestamp already exists on the task. Used for deduplication.
func (r *MessageRepository) ExistsBySlackTS(ctx context.Context, taskID, slackMessageTS string) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("messages").
		Where(sq.Eq{"task_id": taskID, "slack_message_ts": slackMessageTS}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("query message: %w", err)
	}

	return true, nil
}

// GetByTaskID retrieves all messages for a task, oldest first.
func (r *MessageRepository) GetByTaskID(ctx context.Context, taskID string) ([]*domain.Message, error) {
	query, args, err := psql.
		Select("id", "task_id", "author_id", "content", "content_type",
			"slack_message_ts", "is_edited", "edited_at", "created_at").
		From("messages").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID,
			&msg.TaskID,
			&msg.AuthorID,
			&msg.Content,
			&msg.ContentType,
			&msg.SlackMessageTS,
			&msg.IsEdited,
			&msg.EditedAt,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return messages, nil
}
