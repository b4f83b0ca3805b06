package mocks

import (
	"context"
	"time"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Close(ctx context.Context, name string, closedAt time.Time) error {
	args := m.Called(ctx, name, closedAt)
	return args.Error(0)
}

func (m *ProjectRepository) ListActive(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	args := m.Called(ctx, name)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

// FeedbackRepository is a mock for feedback.Repository.
type FeedbackRepository struct {
	mock.Mock
}

func (m *FeedbackRepository) Append(ctx context.Context, projectName string, fb *feedback.Feedback) error {
	args := m.Called(ctx, projectName, fb)
	return args.Error(0)
}

func (m *FeedbackRepository) ListByProject(ctx context.Context, projectName string) ([]feedback.Feedback, error) {
	args := m.Called(ctx, projectName)
	if list, ok := args.Get(0).([]feedback.Feedback); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
