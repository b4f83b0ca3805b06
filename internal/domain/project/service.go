package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nutype/nutype-bot/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Register creates a new active project.
func (s *Service) Register(ctx context.Context, name string) (*Project, error) {
	if !ValidName(name) {
		return nil, ErrInvalidInput
	}

	proj := &Project{
		Name:      name,
		CreatedAt: s.now().UTC(),
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project registered", "project", proj.Name, "id", proj.ID)
	return proj, nil
}

// Close marks an active project as closed. Unknown and already closed
// projects both yield ErrProjectNotFound.
func (s *Service) Close(ctx context.Context, name string) error {
	if err := s.repo.Close(ctx, name, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("closing project: %w", err)
	}

	s.logger.Info("project closed", "project", name)
	return nil
}

// ListActive returns active projects, most recently created first.
func (s *Service) ListActive(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active projects: %w", err)
	}
	return projects, nil
}

// Get fetches a project by name regardless of its active state.
func (s *Service) Get(ctx context.Context, name string) (*Project, error) {
	proj, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}
