package feedback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nutype/nutype-bot/internal/repository"
)

// Service handles feedback operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new feedback service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Append records a message for the named project if it is active.
func (s *Service) Append(ctx context.Context, projectName string, author Author, message string) (*Feedback, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrInvalidInput
	}

	fb := &Feedback{
		AuthorID:    author.ID,
		AuthorLabel: author.Label(),
		Message:     message,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Append(ctx, projectName, fb); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveProject
		}
		return nil, fmt.Errorf("appending feedback: %w", err)
	}

	return fb, nil
}

// List returns all feedback for a project, oldest first.
func (s *Service) List(ctx context.Context, projectName string) ([]Feedback, error) {
	items, err := s.repo.ListByProject(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return items, nil
}
