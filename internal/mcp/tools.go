package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nutype/nutype-bot/internal/bot"
	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
)

type noInput struct{}

type projectInput struct {
	Name string `json:"name" jsonschema:"project name (letters digits and underscores)"`
}

type submitInput struct {
	Project string `json:"project" jsonschema:"name of an active project"`
	Message string `json:"message" jsonschema:"feedback text"`
}

// replyBuffer collects the replies of one bot request.
type replyBuffer struct {
	replies []bot.Reply
}

func (b *replyBuffer) Respond(_ context.Context, reply bot.Reply) error {
	b.replies = append(b.replies, reply)
	return nil
}

func (b *replyBuffer) result() *sdkmcp.CallToolResult {
	content := make([]sdkmcp.Content, 0, len(b.replies))
	for _, reply := range b.replies {
		content = append(content, &sdkmcp.TextContent{Text: reply.Text})
	}
	return &sdkmcp.CallToolResult{Content: content}
}

func registerTools(server *sdkmcp.Server, handler Handler, logger *slog.Logger) {
	command := func(name string, args ...string) func(context.Context) (*sdkmcp.CallToolResult, error) {
		return func(ctx context.Context) (*sdkmcp.CallToolResult, error) {
			identity := getIdentity(ctx)
			logger.Info("mcp command", "command", name, "identity", identity, "request_id", getRequestID(ctx))

			buf := &replyBuffer{}
			cmd := bot.Command{Name: name, Args: args, Sender: feedback.Author{ID: identity}}
			if err := handler.HandleCommand(ctx, cmd, buf); err != nil {
				return nil, err
			}
			return buf.result(), nil
		}
	}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List active projects, most recently registered first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ noInput) (*sdkmcp.CallToolResult, any, error) {
		res, err := command(bot.CommandProjects)(ctx)
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "register_project",
		Description: "Register a new active project (admin only)",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectInput) (*sdkmcp.CallToolResult, any, error) {
		res, err := command(bot.CommandRegister, nameArgs(in.Name)...)(ctx)
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "close_project",
		Description: "Close an active project so it stops accepting feedback (admin only)",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectInput) (*sdkmcp.CallToolResult, any, error) {
		res, err := command(bot.CommandClose, nameArgs(in.Name)...)(ctx)
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_feedback",
		Description: "Export a project's feedback with an AI summary (admin only)",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectInput) (*sdkmcp.CallToolResult, any, error) {
		res, err := command(bot.CommandFeedback, nameArgs(in.Name)...)(ctx)
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "submit_feedback",
		Description: "Record feedback for an active project as the calling identity",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in submitInput) (*sdkmcp.CallToolResult, any, error) {
		name := strings.TrimSpace(in.Project)
		if name == "" || strings.TrimSpace(in.Message) == "" {
			return nil, nil, errors.New("project and message are required")
		}
		// The name becomes a chat tag; anything the tag rule would split
		// must be refused here.
		if !project.ValidName(name) {
			return nil, nil, fmt.Errorf("invalid project name %q: letters, digits and underscores only", name)
		}

		buf := &replyBuffer{}
		msg := bot.Message{
			Sender: feedback.Author{ID: getIdentity(ctx)},
			Text:   "#" + name + " " + in.Message,
		}
		if err := handler.HandleMessage(ctx, msg, buf); err != nil {
			return nil, nil, err
		}
		if len(buf.replies) == 0 {
			return nil, nil, fmt.Errorf("feedback not recorded: no active project #%s", name)
		}
		return buf.result(), nil, nil
	})
}

func nameArgs(name string) []string {
	if name = strings.TrimSpace(name); name == "" {
		return nil
	}
	return []string{name}
}
