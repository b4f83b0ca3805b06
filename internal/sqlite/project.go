package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nutype/nutype-bot/internal/domain/project"
	"github.com/nutype/nutype-bot/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts an active project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (name, created_at, is_active)
		VALUES (?, ?, 1)
	`

	result, err := r.db.ExecContext(ctx, query, proj.Name, formatTime(proj.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return repository.NewStorageError("create project", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return repository.NewStorageError("read project id", err)
	}
	proj.ID = id
	proj.IsActive = true
	proj.ClosedAt = nil

	return nil
}

// Close flips an active project to closed in a single statement
func (r *ProjectRepository) Close(ctx context.Context, name string, closedAt time.Time) error {
	query := `
		UPDATE projects
		SET is_active = 0, closed_at = ?
		WHERE name = ? AND is_active = 1
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(closedAt), name)
	if err != nil {
		return repository.NewStorageError("close project", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return repository.NewStorageError("read rows affected", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListActive returns active projects, newest first
func (r *ProjectRepository) ListActive(ctx context.Context) ([]project.Project, error) {
	query := `
		SELECT id, name, created_at, closed_at, is_active
		FROM projects
		WHERE is_active = 1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, repository.NewStorageError("list projects", err)
	}
	defer rows.Close()

	projects := make([]project.Project, 0)
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *proj)
	}

	if err = rows.Err(); err != nil {
		return nil, repository.NewStorageError("iterate project rows", err)
	}

	return projects, nil
}

// GetByName retrieves a project by name, active or not
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	query := `
		SELECT id, name, created_at, closed_at, is_active
		FROM projects
		WHERE name = ?
	`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return proj, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj      project.Project
		createdAt string
		closedAt  sql.NullString
	)
	err := row.Scan(&proj.ID, &proj.Name, &createdAt, &closedAt, &proj.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, repository.NewStorageError("scan project", err)
	}

	proj.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, repository.NewStorageError("scan project", err)
	}
	if closedAt.Valid {
		t, err := parseTime(closedAt.String)
		if err != nil {
			return nil, repository.NewStorageError("scan project", err)
		}
		proj.ClosedAt = &t
	}

	return &proj, nil
}
