package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nutype/nutype-bot/internal/domain/project"
	"github.com/nutype/nutype-bot/internal/repository"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, proj *project.Project) error {
	const q = `
		INSERT INTO projects (name, created_at, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id
	`

	if err := r.db.QueryRowContext(ctx, q, proj.Name, proj.CreatedAt.UTC()).Scan(&proj.ID); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return repository.NewStorageError("create project", err)
	}

	proj.IsActive = true
	proj.ClosedAt = nil
	return nil
}

func (r *ProjectRepo) Close(ctx context.Context, name string, closedAt time.Time) error {
	const q = `
		UPDATE projects
		SET is_active = FALSE, closed_at = $1
		WHERE name = $2 AND is_active
	`

	res, err := r.db.ExecContext(ctx, q, closedAt.UTC(), name)
	if err != nil {
		return repository.NewStorageError("close project", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return repository.NewStorageError("read rows affected", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) ListActive(ctx context.Context) ([]project.Project, error) {
	const q = `
		SELECT id, name, created_at, closed_at, is_active
		FROM projects
		WHERE is_active
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, repository.NewStorageError("list projects", err)
	}
	defer rows.Close()

	projects := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, repository.NewStorageError("scan project", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.NewStorageError("iterate project rows", err)
	}
	return projects, nil
}

func (r *ProjectRepo) GetByName(ctx context.Context, name string) (*project.Project, error) {
	const q = `
		SELECT id, name, created_at, closed_at, is_active
		FROM projects
		WHERE name = $1
	`

	p, err := scanProject(r.db.QueryRowContext(ctx, q, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, repository.NewStorageError("get project", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*project.Project, error) {
	var (
		p        project.Project
		closedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &closedAt, &p.IsActive); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		p.ClosedAt = &t
	}
	return &p, nil
}
