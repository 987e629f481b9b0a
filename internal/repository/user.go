package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

var userColumns = []string{
	"id", "email", "name", "avatar_url", "github_id", "github_username",
	"slack_user_id", "slack_username", "is_active", "last_seen_at",
	"created_at", "updated_at",
}

// UserRepository handles database operations for users and sessions.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.GitHubID,
		&user.GitHubUsername,
		&user.SlackUserID,
		&user.SlackUsername,
		&user.IsActive,
		&user.LastSeenAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for user: %w", err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// GetBySlackUserID resolves a user by their linked Slack user ID.
// A Slack ID with no matching user returns ErrUserNotFound; callers on
// passive paths treat that as "not yet linked", not a failure.
func (r *UserRepository) GetBySlackUserID(ctx context.Context, slackUserID string) (*domain.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"slack_user_id": slackUserID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetBySlackUserID query: %w", err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// GetBySessionToken resolves a user from a dashboard session token.
// Expired sessions return ErrSessionExpired.
func (r *UserRepository) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	cols := make([]string, 0, len(userColumns)+1)
	for _, c := range userColumns {
		cols = append(cols, "u."+c)
	}
	cols = append(cols, "s.expires_at")

	query, args, err := psql.
		Select(cols...).
		From("sessions s").
		Join("users u ON u.id = s.user_id").
		Where(sq.Eq{"s.token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetBySessionToken query: %w", err)
	}

	var user domain.User
	var session domain.Session
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.GitHubID,
		&user.GitHubUsername,
		&user.SlackUserID,
		&user.SlackUsername,
		&user.IsActive,
		&user.LastSeenAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	if session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	return &user, nil
}
