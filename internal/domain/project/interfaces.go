package project

import (
	"context"
	"time"
)

// Repository provides persistence for projects.
//
// Create returns repository.ErrDuplicate when the name is taken by any
// project, active or closed. Close flips an active project to closed in
// a single atomic step and returns repository.ErrNotFound when no active
// project has that name. GetByName ignores the active flag.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Close(ctx context.Context, name string, closedAt time.Time) error
	ListActive(ctx context.Context) ([]Project, error)
	GetByName(ctx context.Context, name string) (*Project, error)
}
