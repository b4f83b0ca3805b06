package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/repository"
)

type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// Append holds a share lock on the project row while inserting, so a
// concurrent close waits for the insert to commit.
func (r *FeedbackRepo) Append(ctx context.Context, projectName string, fb *feedback.Feedback) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.NewStorageError("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQ = `
		SELECT id FROM projects
		WHERE name = $1 AND is_active
		FOR SHARE
	`
	var projectID int64
	if err = tx.QueryRowContext(ctx, lockQ, projectName).Scan(&projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return repository.NewStorageError("lock project", err)
	}

	const insertQ = `
		INSERT INTO feedback (project_id, author_id, author_label, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	label := sql.NullString{String: fb.AuthorLabel, Valid: fb.AuthorLabel != ""}
	if err = tx.QueryRowContext(ctx, insertQ,
		projectID, fb.AuthorID, label, fb.Message, fb.CreatedAt.UTC(),
	).Scan(&fb.ID); err != nil {
		return repository.NewStorageError("append feedback", err)
	}

	if err = tx.Commit(); err != nil {
		return repository.NewStorageError("commit feedback", err)
	}

	fb.ProjectID = projectID
	return nil
}

func (r *FeedbackRepo) ListByProject(ctx context.Context, projectName string) ([]feedback.Feedback, error) {
	const q = `
		SELECT f.id, f.project_id, f.author_id, f.author_label, f.message, f.created_at
		FROM feedback f
		JOIN projects p ON p.id = f.project_id
		WHERE p.name = $1
		ORDER BY f.created_at ASC, f.id ASC
	`

	rows, err := r.db.QueryContext(ctx, q, projectName)
	if err != nil {
		return nil, repository.NewStorageError("list feedback", err)
	}
	defer rows.Close()

	items := make([]feedback.Feedback, 0)
	for rows.Next() {
		var (
			fb    feedback.Feedback
			label sql.NullString
		)
		if err := rows.Scan(&fb.ID, &fb.ProjectID, &fb.AuthorID, &label, &fb.Message, &fb.CreatedAt); err != nil {
			return nil, repository.NewStorageError("scan feedback", err)
		}
		fb.AuthorLabel = label.String
		fb.CreatedAt = fb.CreatedAt.UTC()
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.NewStorageError("iterate feedback rows", err)
	}
	return items, nil
}
