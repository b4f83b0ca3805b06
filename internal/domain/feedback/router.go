package feedback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// tagPattern matches "#Tag remainder" where the remainder runs to the end
// of the message, newlines included. RE2's \s is ASCII only, so the
// separator also lists Unicode spaces and the C0 separator controls.
var tagPattern = regexp.MustCompile(`(?s)^#([\p{L}\p{Nd}_]+)[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]+(.+)$`)

// ParseTag extracts the project tag and the feedback body from a chat
// message. Only a tag at the very start of the trimmed message counts.
func ParseTag(text string) (tag, body string, ok bool) {
	match := tagPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return "", "", false
	}
	body = strings.TrimSpace(match[2])
	if body == "" {
		return "", "", false
	}
	return match[1], body, true
}

// Appender records feedback for an active project.
type Appender interface {
	Append(ctx context.Context, projectName string, author Author, message string) (*Feedback, error)
}

// Router decides whether an inbound chat message is feedback.
type Router struct {
	feedback Appender
	logger   *slog.Logger
}

// NewRouter creates a new router.
func NewRouter(feedback Appender, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{feedback: feedback, logger: logger}
}

// Route captures text as feedback when it starts with the tag of an
// active project. It returns (nil, nil) for ordinary chat and for tags
// that do not name an active project; those are dropped silently.
func (r *Router) Route(ctx context.Context, author Author, text string) (*Feedback, string, error) {
	tag, body, ok := ParseTag(text)
	if !ok {
		return nil, "", nil
	}

	fb, err := r.feedback.Append(ctx, tag, author, body)
	if err != nil {
		if errors.Is(err, ErrNoActiveProject) || errors.Is(err, ErrInvalidInput) {
			r.logger.Debug("ignoring tag without active project", "tag", tag)
			return nil, "", nil
		}
		return nil, tag, err
	}

	r.logger.Info("feedback captured", "project", tag, "feedback_id", fb.ID, "author_id", author.ID)
	return fb, tag, nil
}
