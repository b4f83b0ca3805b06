// Package bot is the request-handling boundary: chat commands and plain
// messages come in, reply texts go out. Every domain error is turned into
// a reply here; only a failing Responder is returned to the caller.
package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/nutype/nutype-bot/internal/domain/export"
	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
)

// Command names.
const (
	CommandStart    = "start"
	CommandProjects = "projects"
	CommandRegister = "register"
	CommandClose    = "close"
	CommandFeedback = "feedback"
)

// Command is a parsed command invocation.
type Command struct {
	Name   string
	Args   []string
	Sender feedback.Author
}

// Message is a plain chat message.
type Message struct {
	Sender feedback.Author
	Text   string
}

// Reply is one outbound message. Quote asks the transport to thread it
// under the inbound message.
type Reply struct {
	Text  string
	Quote bool
}

// Responder delivers replies for a single inbound request.
type Responder interface {
	Respond(ctx context.Context, reply Reply) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, reply Reply) error

func (f ResponderFunc) Respond(ctx context.Context, reply Reply) error {
	return f(ctx, reply)
}

// Projects is the project surface the handler needs.
type Projects interface {
	Register(ctx context.Context, name string) (*project.Project, error)
	Close(ctx context.Context, name string) error
	ListActive(ctx context.Context) ([]project.Project, error)
}

// Router captures tagged messages as feedback.
type Router interface {
	Route(ctx context.Context, author feedback.Author, text string) (*feedback.Feedback, string, error)
}

// Exporter builds feedback exports.
type Exporter interface {
	Prepare(ctx context.Context, name string) (*export.Draft, error)
	Complete(ctx context.Context, draft *export.Draft) *export.Export
	Replies(e *export.Export) []string
}

// Authorizer gates mutating commands.
type Authorizer interface {
	IsAdmin(identity string) bool
}

// Handler dispatches commands and messages.
type Handler struct {
	projects Projects
	router   Router
	exporter Exporter
	authz    Authorizer
	logger   *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(projects Projects, router Router, exporter Exporter, authz Authorizer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		projects: projects,
		router:   router,
		exporter: exporter,
		authz:    authz,
		logger:   logger,
	}
}

// HandleCommand runs a command and sends its replies. Unknown commands
// are ignored.
func (h *Handler) HandleCommand(ctx context.Context, cmd Command, out Responder) error {
	name := strings.ToLower(cmd.Name)
	logger := h.logger.With("command", name, "sender_id", cmd.Sender.ID)

	switch name {
	case CommandStart:
		return say(ctx, out, welcomeText)
	case CommandProjects:
		return h.listProjects(ctx, logger, out)
	case CommandRegister, CommandClose, CommandFeedback:
	default:
		logger.Debug("ignoring unknown command")
		return nil
	}

	if !h.authz.IsAdmin(cmd.Sender.ID) {
		logger.Info("refused non-admin command")
		return say(ctx, out, refusalText[name])
	}
	if len(cmd.Args) == 0 || strings.TrimSpace(cmd.Args[0]) == "" {
		return say(ctx, out, usageText(name))
	}
	target := strings.TrimSpace(cmd.Args[0])
	logger = logger.With("project", target)

	switch name {
	case CommandRegister:
		return h.register(ctx, logger, out, target)
	case CommandClose:
		return h.close(ctx, logger, out, target)
	default:
		return h.export(ctx, logger, out, target)
	}
}

// HandleMessage routes a plain message as feedback. Only a successful
// capture produces a reply.
func (h *Handler) HandleMessage(ctx context.Context, msg Message, out Responder) error {
	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		return nil
	}

	fb, tag, err := h.router.Route(ctx, msg.Sender, msg.Text)
	if err != nil {
		h.logger.Error("capturing feedback", "project", tag, "sender_id", msg.Sender.ID, "error", err)
		return say(ctx, out, genericFailureText)
	}
	if fb == nil {
		return nil
	}

	return out.Respond(ctx, Reply{Text: acknowledgementText(tag), Quote: true})
}

func (h *Handler) listProjects(ctx context.Context, logger *slog.Logger, out Responder) error {
	projects, err := h.projects.ListActive(ctx)
	if err != nil {
		logger.Error("listing projects", "error", err)
		return say(ctx, out, genericFailureText)
	}
	if len(projects) == 0 {
		return say(ctx, out, noActiveProjectsText)
	}
	return say(ctx, out, projectListText(projects))
}

func (h *Handler) register(ctx context.Context, logger *slog.Logger, out Responder, name string) error {
	_, err := h.projects.Register(ctx, name)
	switch {
	case err == nil:
		return say(ctx, out, registeredText(name))
	case errors.Is(err, project.ErrDuplicateName):
		return say(ctx, out, duplicateText(name))
	case errors.Is(err, project.ErrInvalidInput):
		return say(ctx, out, invalidNameText)
	default:
		logger.Error("registering project", "error", err)
		return say(ctx, out, genericFailureText)
	}
}

func (h *Handler) close(ctx context.Context, logger *slog.Logger, out Responder, name string) error {
	err := h.projects.Close(ctx, name)
	switch {
	case err == nil:
		return say(ctx, out, closedText(name))
	case errors.Is(err, project.ErrProjectNotFound):
		return say(ctx, out, notFoundOrClosedText(name))
	default:
		logger.Error("closing project", "error", err)
		return say(ctx, out, genericFailureText)
	}
}

func (h *Handler) export(ctx context.Context, logger *slog.Logger, out Responder, name string) error {
	draft, err := h.exporter.Prepare(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, project.ErrProjectNotFound):
		return say(ctx, out, notFoundText(name))
	case errors.Is(err, export.ErrNoFeedback):
		return say(ctx, out, noFeedbackText(name))
	default:
		logger.Error("preparing export", "error", err)
		return say(ctx, out, genericFailureText)
	}

	if err := say(ctx, out, progressText); err != nil {
		return err
	}

	e := h.exporter.Complete(ctx, draft)
	replies := h.exporter.Replies(e)
	logger.Info("export assembled", "feedback_count", e.Count, "summary_failed", e.SummaryFailed, "replies", len(replies))

	for _, text := range replies {
		if err := say(ctx, out, text); err != nil {
			return err
		}
	}
	return nil
}

func say(ctx context.Context, out Responder, text string) error {
	return out.Respond(ctx, Reply{Text: text})
}
