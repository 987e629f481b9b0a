package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// counterTypeTaskNumber is the only counter kind currently issued.
const counterTypeTaskNumber = "task_number"

// CounterRepository issues strictly increasing per-workspace task numbers.
type CounterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository creates a new CounterRepository.
func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// Allocate returns the next task number for the workspace, starting at 1.
// The increment is a single upsert statement so concurrent allocations for
// the same workspace serialize on the counter row and never observe the
// same value.
func (r *CounterRepository) Allocate(ctx context.Context, workspaceID string) (int, error) {
	const query = `
		INSERT INTO workspace_counters (workspace_id, counter_type, current_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (workspace_id, counter_type)
		DO UPDATE SET current_value = workspace_counters.current_value + 1
		RETURNING current_value`

	var value int
	err := r.pool.QueryRow(ctx, query, workspaceID, counterTypeTaskNumber).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("allocate task number: %w", err)
	}

	return value, nil
}

// Current returns the counter high-water mark without incrementing it.
// Returns 0 when no counter row exists yet.
func (r *CounterRepository) Current(ctx context.Context, workspaceID string) (int, error) {
	query, args, err := psql.
		Select("current_value").
		From("workspace_counters").
		Where(sq.Eq{"workspace_id": workspaceID, "counter_type": counterTypeTaskNumber}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build Current query: %w", err)
	}

	var value int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("query counter: %w", err)
	}

	return value, nil
}
