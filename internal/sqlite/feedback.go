package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/repository"
)

// FeedbackRepository implements feedback.Repository for SQLite
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Append inserts feedback only if the named project is active. The
// active check and the insert are one statement, so a concurrent close
// either happens before (no row) or after (row owned by a project that
// was active at insert time).
func (r *FeedbackRepository) Append(ctx context.Context, projectName string, fb *feedback.Feedback) error {
	query := `
		INSERT INTO feedback (project_id, author_id, author_label, message, created_at)
		SELECT id, ?, ?, ?, ?
		FROM projects
		WHERE name = ? AND is_active = 1
		RETURNING id, project_id
	`

	err := r.db.QueryRowContext(ctx, query,
		fb.AuthorID,
		nullString(fb.AuthorLabel),
		fb.Message,
		formatTime(fb.CreatedAt),
		projectName,
	).Scan(&fb.ID, &fb.ProjectID)

	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return repository.NewStorageError("append feedback", err)
	}

	return nil
}

// ListByProject returns a project's feedback, oldest first
func (r *FeedbackRepository) ListByProject(ctx context.Context, projectName string) ([]feedback.Feedback, error) {
	query := `
		SELECT f.id, f.project_id, f.author_id, f.author_label, f.message, f.created_at
		FROM feedback f
		JOIN projects p ON p.id = f.project_id
		WHERE p.name = ?
		ORDER BY f.created_at ASC, f.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectName)
	if err != nil {
		return nil, repository.NewStorageError("list feedback", err)
	}
	defer rows.Close()

	items := make([]feedback.Feedback, 0)
	for rows.Next() {
		var (
			fb        feedback.Feedback
			label     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&fb.ID, &fb.ProjectID, &fb.AuthorID, &label, &fb.Message, &createdAt); err != nil {
			return nil, repository.NewStorageError("scan feedback", err)
		}
		fb.AuthorLabel = label.String
		if fb.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, repository.NewStorageError("scan feedback", err)
		}
		items = append(items, fb)
	}

	if err = rows.Err(); err != nil {
		return nil, repository.NewStorageError("iterate feedback rows", err)
	}

	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
