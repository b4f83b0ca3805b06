package feedback

import "context"

// Repository provides persistence for feedback.
//
// Append inserts fb only if a project named projectName is active at the
// moment of insertion; the check and the insert happen in one atomic
// step. It returns repository.ErrNotFound otherwise. On success fb.ID and
// fb.ProjectID are populated.
//
// ListByProject returns feedback for the named project (active or
// closed) ordered oldest first, ties broken by insertion order.
type Repository interface {
	Append(ctx context.Context, projectName string, fb *Feedback) error
	ListByProject(ctx context.Context, projectName string) ([]Feedback, error)
}
