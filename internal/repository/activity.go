package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

// ActivityRepository handles the append-only task audit trail.
// Entries are inserted and read, never updated or deleted.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Create appends an activity entry within the transaction.
func (r *ActivityRepository) Create(ctx context.Context, tx pgx.Tx, entry *domain.TaskActivity) error {
	var changeField, changeOld, changeNew *string
	if entry.Changes != nil {
		changeField = &entry.Changes.Field
		changeOld = entry.Changes.OldValue
		changeNew = entry.Changes.NewValue
	}

	var metadata []byte
	if len(entry.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}

	query, args, err := psql.
		Insert("task_activity").
		Columns("task_id", "user_id", "activity_type", "change_field", "change_old_value", "change_new_value", "metadata").
		Values(entry.TaskID, entry.UserID, entry.Type, changeField, changeOld, changeNew, metadata).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task activity: %w", err)
	}

	return nil
}

// GetByTaskID retrieves all activity entries for a task, oldest first.
func (r *ActivityRepository) GetByTaskID(ctx context.Context, taskID string) ([]*domain.TaskActivity, error) {
	query, args, err := psql.
		Select("id", "task_id", "user_id", "activity_type", "change_field", "change_old_value", "change_new_value", "metadata", "created_at").
		From("task_activity").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task activity: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TaskActivity
	for rows.Next() {
		var (
			entry      domain.TaskActivity
			changeField, changeOld, changeNew *string
			metadata   []byte
		)
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.UserID,
			&entry.Type,
			&changeField,
			&changeOld,
			&changeNew,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task activity: %w", err)
		}

		if changeField != nil {
			entry.Changes = &domain.ActivityChange{
				Field:    *changeField,
				OldValue: changeOld,
				NewValue: changeNew,
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("parse activity metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
