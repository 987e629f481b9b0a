package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/domain"
)

var repoColumns = []string{
	"id", "workspace_id", "name", "full_name", "clone_url", "default_branch",
	"github_id", "github_node_id", "branch_prefix", "auto_create_branches",
	"is_active", "last_synced_at", "created_at", "updated_at",
}

// RepoRepository handles database operations for linked code repositories.
type RepoRepository struct {
	pool *pgxpool.Pool
}

// NewRepoRepository creates a new RepoRepository.
func NewRepoRepository(pool *pgxpool.Pool) *RepoRepository {
	return &RepoRepository{pool: pool}
}

func scanRepo(row pgx.Row) (*domain.Repository, error) {
	var repo domain.Repository
	err := row.Scan(
		&repo.ID,
		&repo.WorkspaceID,
		&repo.Name,
		&repo.FullName,
		&repo.CloneURL,
		&repo.DefaultBranch,
		&repo.GitHubID,
		&repo.GitHubNodeID,
		&repo.BranchPrefix,
		&repo.AutoCreateBranches,
		&repo.IsActive,
		&repo.LastSyncedAt,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRepositoryNotFound
		}
		return nil, fmt.Errorf("scan repository: %w", err)
	}
	return &repo, nil
}

// GetByID retrieves a repository by ID.
func (r *RepoRepository) GetByID(ctx context.Context, repoID string) (*domain.Repository, error) {
	query, args, err := psql.
		Select(repoColumns...).
		From("repositories").
		Where(sq.Eq{"id": repoID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for repository: %w", err)
	}

	return scanRepo(r.pool.QueryRow(ctx, query, args...))
}

// GetByGitHubID retrieves a repository by its GitHub numeric ID.
func (r *RepoRepository) GetByGitHubID(ctx context.Context, githubID int64) (*domain.Repository, error) {
	query, args, err := psql.
		Select(repoColumns...).
		From("repositories").
		Where(sq.Eq{"github_id": githubID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByGitHubID query: %w", err)
	}

	return scanRepo(r.pool.QueryRow(ctx, query, args...))
}

// ListByWorkspace retrieves all active repositories for a workspace.
func (r *RepoRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Repository, error) {
	query, args, err := psql.
		Select(repoColumns...).
		From("repositories").
		Where(sq.Eq{"workspace_id": workspaceID, "is_active": true}).
		OrderBy("full_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByWorkspace query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var repos []*domain.Repository
	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return repos, nil
}

// Create links a new repository. Re-linking an already-linked repository by
// its GitHub ID is rejected with ErrRepositoryAlreadyLinked.
func (r *RepoRepository) Create(ctx context.Context, repo *domain.Repository) (*domain.Repository, error) {
	if _, err := r.GetByGitHubID(ctx, repo.GitHubID); err == nil {
		return nil, domain.ErrRepositoryAlreadyLinked
	}

	query, args, err := psql.
		Insert("repositories").
		Columns("workspace_id", "name", "full_name", "clone_url", "default_branch",
			"github_id", "github_node_id", "branch_prefix", "auto_create_branches").
		Values(repo.WorkspaceID, repo.Name, repo.FullName, repo.CloneURL, repo.DefaultBranch,
			repo.GitHubID, repo.GitHubNodeID, repo.BranchPrefix, repo.AutoCreateBranches).
		Suffix("RETURNING id, is_active, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for repository: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&repo.ID, &repo.IsActive, &repo.CreatedAt, &repo.UpdatedAt)
	if err != nil {
		// Concurrent links can both pass the lookup; the loser hits the
		// unique constraint on github_id.
		if isUniqueViolation(err) {
			return nil, domain.ErrRepositoryAlreadyLinked
		}
		return nil, fmt.Errorf("create repository: %w", err)
	}

	return repo, nil
}

// UpdateSettings updates branch settings on a repository.
func (r *RepoRepository) UpdateSettings(ctx context.Context, repo *domain.Repository) error {
	query, args, err := psql.
		Update("repositories").
		Set("default_branch", repo.DefaultBranch).
		Set("branch_prefix", repo.BranchPrefix).
		Set("auto_create_branches", repo.AutoCreateBranches).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": repo.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateSettings query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update repository: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRepositoryNotFound
	}

	return nil
}

// Deactivate soft-deletes a repository.
func (r *RepoRepository) Deactivate(ctx context.Context, repoID string) error {
	query, args, err := psql.
		Update("repositories").
		Set("is_active", false).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": repoID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Deactivate query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deactivate repository: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRepositoryNotFound
	}

	return nil
}
