package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
	"github.com/nutype/nutype-bot/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("NUTYPE_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("NUTYPE_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := NewDB(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db, logger))

	return db
}

func TestProjectRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewProjectRepo(db)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	first := &project.Project{Name: "First", CreatedAt: base}
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.ID)
	require.NoError(t, repo.Create(ctx, &project.Project{Name: "Second", CreatedAt: base.Add(time.Minute)}))

	err := repo.Create(ctx, &project.Project{Name: "First", CreatedAt: base})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "Second", active[0].Name)

	require.NoError(t, repo.Close(ctx, "First", base.Add(time.Hour)))
	require.ErrorIs(t, repo.Close(ctx, "First", base.Add(time.Hour)), repository.ErrNotFound)
	require.ErrorIs(t, repo.Close(ctx, "Missing", base), repository.ErrNotFound)

	got, err := repo.GetByName(ctx, "First")
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.True(t, got.ClosedAt.Equal(base.Add(time.Hour)))

	_, err = repo.GetByName(ctx, "Missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFeedbackRepo(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepo(db)
	repo := NewFeedbackRepo(db)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, projects.Create(ctx, &project.Project{Name: "Alpha", CreatedAt: base}))

	require.NoError(t, repo.Append(ctx, "Alpha", &feedback.Feedback{AuthorID: "1", AuthorLabel: "bob", Message: "later", CreatedAt: base.Add(2 * time.Minute)}))
	fb := &feedback.Feedback{AuthorID: "2", Message: "earlier", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Append(ctx, "Alpha", fb))
	require.NotZero(t, fb.ProjectID)

	err := repo.Append(ctx, "Missing", &feedback.Feedback{AuthorID: "1", Message: "x", CreatedAt: base})
	require.ErrorIs(t, err, repository.ErrNotFound)

	items, err := repo.ListByProject(ctx, "Alpha")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "earlier", items[0].Message)
	require.Empty(t, items[0].AuthorLabel)
	require.Equal(t, "bob", items[1].AuthorLabel)

	require.NoError(t, projects.Close(ctx, "Alpha", base.Add(time.Hour)))
	err = repo.Append(ctx, "Alpha", &feedback.Feedback{AuthorID: "1", Message: "x", CreatedAt: base})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFeedbackRepo_ConcurrentAppendAndClose(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepo(db)
	repo := NewFeedbackRepo(db)
	ctx := context.Background()

	require.NoError(t, projects.Create(ctx, &project.Project{Name: "Alpha", CreatedAt: time.Now()}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		other    []error
	)
	start := make(chan struct{})
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Append(ctx, "Alpha", &feedback.Feedback{AuthorID: "1", Message: "m", CreatedAt: time.Now()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, repository.ErrNotFound):
			default:
				other = append(other, err)
			}
		}()
	}
	var closeErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		closeErr = projects.Close(ctx, "Alpha", time.Now())
	}()
	close(start)
	wg.Wait()

	require.NoError(t, closeErr)
	require.Empty(t, other)

	items, err := repo.ListByProject(ctx, "Alpha")
	require.NoError(t, err)
	require.Len(t, items, accepted)
}
