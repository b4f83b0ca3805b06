package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
)

// Defaults match the Telegram message size limit.
const (
	DefaultMaxMessageLen = 4096
	DefaultChunkSize     = 4000
)

// ProjectGetter looks up a project regardless of its active state.
type ProjectGetter interface {
	Get(ctx context.Context, name string) (*project.Project, error)
}

// FeedbackLister lists a project's feedback, oldest first.
type FeedbackLister interface {
	List(ctx context.Context, projectName string) ([]feedback.Feedback, error)
}

// Summarizer produces a structured summary of raw feedback.
type Summarizer interface {
	Summarize(ctx context.Context, projectName, rawFeedback string) (string, error)
}

// Options bounds reply sizes. MaxMessageLen and ChunkSize count runes.
type Options struct {
	MaxMessageLen int
	ChunkSize     int
}

// Draft holds the data read for an export before summarization.
type Draft struct {
	Project  project.Project
	Feedback []feedback.Feedback
	Raw      string
}

// Export is an assembled export document.
type Export struct {
	Project       project.Project
	Count         int
	Summary       string
	SummaryFailed bool
	Raw           string
	Document      string
}

// Service assembles feedback exports.
type Service struct {
	projects   ProjectGetter
	feedback   FeedbackLister
	summarizer Summarizer
	opts       Options
	logger     *slog.Logger
}

// NewService creates a new export service. Zero options take the defaults.
func NewService(projects ProjectGetter, feedback FeedbackLister, summarizer Summarizer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = DefaultMaxMessageLen
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	// A prefixed chunk must still fit in one message.
	if limit := opts.MaxMessageLen - utf8.RuneCountInString(ContinuedPrefix); opts.ChunkSize > limit && limit > 0 {
		opts.ChunkSize = limit
	}
	return &Service{
		projects:   projects,
		feedback:   feedback,
		summarizer: summarizer,
		opts:       opts,
		logger:     logger,
	}
}

// Prepare reads the project and its feedback. It fails with
// project.ErrProjectNotFound or ErrNoFeedback.
func (s *Service) Prepare(ctx context.Context, name string) (*Draft, error) {
	proj, err := s.projects.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	items, err := s.feedback.List(ctx, proj.Name)
	if err != nil {
		return nil, fmt.Errorf("loading feedback for export: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoFeedback
	}

	return &Draft{
		Project:  *proj,
		Feedback: items,
		Raw:      FormatRaw(items),
	}, nil
}

// Complete summarizes a draft and assembles the document. Summarizer
// failures never fail the export; the fallback text is used instead.
func (s *Service) Complete(ctx context.Context, draft *Draft) *Export {
	summaryText, err := s.summarizer.Summarize(ctx, draft.Project.Name, draft.Raw)
	failed := err != nil
	if failed {
		var quota interface{ RateLimited() bool }
		rateLimited := errors.As(err, &quota) && quota.RateLimited()
		s.logger.Warn("summary generation failed", "project", draft.Project.Name, "rate_limited", rateLimited, "error", err)
		summaryText = FallbackSummary
	}

	e := &Export{
		Project:       draft.Project,
		Count:         len(draft.Feedback),
		Summary:       summaryText,
		SummaryFailed: failed,
		Raw:           draft.Raw,
	}
	e.Document = formatDocument(e)
	return e
}

// Replies splits an export into transport-sized messages. A document
// that fits is sent whole. Otherwise the title and summary go first and
// the raw feedback follows in ChunkSize slices, each with ContinuedPrefix.
func (s *Service) Replies(e *Export) []string {
	if utf8.RuneCountInString(e.Document) <= s.opts.MaxMessageLen {
		return []string{e.Document}
	}

	head := title(e.Project.Name) + "\n\n" + e.Summary
	replies := Chunk(head, s.opts.MaxMessageLen)
	for _, chunk := range Chunk(e.Raw, s.opts.ChunkSize) {
		replies = append(replies, ContinuedPrefix+chunk)
	}
	return replies
}
