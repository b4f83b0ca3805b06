package mcp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/nutype/nutype-bot/internal/bot"
)

type handlerStub struct {
	mu       sync.Mutex
	commands []bot.Command
	messages []bot.Message
	capture  bool
}

func (h *handlerStub) HandleCommand(ctx context.Context, cmd bot.Command, out bot.Responder) error {
	h.mu.Lock()
	h.commands = append(h.commands, cmd)
	h.mu.Unlock()
	if err := out.Respond(ctx, bot.Reply{Text: "first " + cmd.Name}); err != nil {
		return err
	}
	return out.Respond(ctx, bot.Reply{Text: "second " + strings.Join(cmd.Args, ",")})
}

func (h *handlerStub) HandleMessage(ctx context.Context, msg bot.Message, out bot.Responder) error {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
	if !h.capture {
		return nil
	}
	return out.Respond(ctx, bot.Reply{Text: "captured", Quote: true})
}

func connect(t *testing.T, handler Handler, identity string) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	server := NewServer(Config{
		Handler:         handler,
		TransportMode:   TransportStdio,
		DefaultIdentity: identity,
	})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	return result
}

func texts(result *sdkmcp.CallToolResult) []string {
	var out []string
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			out = append(out, text.Text)
		}
	}
	return out
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, &handlerStub{}, "100")

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_projects", "register_project", "close_project", "export_feedback", "submit_feedback",
	}, names)
}

func TestServer_CommandTools(t *testing.T) {
	handler := &handlerStub{}
	session := connect(t, handler, "100")

	tests := []struct {
		tool    string
		args    map[string]any
		command string
		want    []string
	}{
		{"list_projects", map[string]any{}, bot.CommandProjects, []string{"first projects", "second "}},
		{"register_project", map[string]any{"name": "Alpha"}, bot.CommandRegister, []string{"first register", "second Alpha"}},
		{"close_project", map[string]any{"name": " Alpha "}, bot.CommandClose, []string{"first close", "second Alpha"}},
		{"export_feedback", map[string]any{"name": "Alpha"}, bot.CommandFeedback, []string{"first feedback", "second Alpha"}},
	}

	for i, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			result := callTool(t, session, tt.tool, tt.args)
			require.False(t, result.IsError)
			require.Equal(t, tt.want, texts(result))

			handler.mu.Lock()
			defer handler.mu.Unlock()
			require.Len(t, handler.commands, i+1)
			require.Equal(t, tt.command, handler.commands[i].Name)
			require.Equal(t, "100", handler.commands[i].Sender.ID)
		})
	}
}

func TestServer_SubmitFeedback(t *testing.T) {
	handler := &handlerStub{capture: true}
	session := connect(t, handler, "7")

	result := callTool(t, session, "submit_feedback", map[string]any{"project": "Alpha", "message": "works\nwell"})
	require.False(t, result.IsError)
	require.Equal(t, []string{"captured"}, texts(result))

	require.Len(t, handler.messages, 1)
	require.Equal(t, "#Alpha works\nwell", handler.messages[0].Text)
	require.Equal(t, "7", handler.messages[0].Sender.ID)
}

func TestServer_SubmitFeedbackNotRecorded(t *testing.T) {
	session := connect(t, &handlerStub{}, "7")

	result := callTool(t, session, "submit_feedback", map[string]any{"project": "Closed", "message": "hi"})
	require.True(t, result.IsError)
	require.Contains(t, strings.Join(texts(result), " "), "no active project #Closed")

	result = callTool(t, session, "submit_feedback", map[string]any{"project": " ", "message": "hi"})
	require.True(t, result.IsError)
}

func TestServer_SubmitFeedbackRejectsInvalidName(t *testing.T) {
	handler := &handlerStub{capture: true}
	session := connect(t, handler, "7")

	for _, name := range []string{"Alpha Beta", "Alpha\nBeta", "#Alpha", "Alpha-1"} {
		result := callTool(t, session, "submit_feedback", map[string]any{"project": name, "message": "hi"})
		require.True(t, result.IsError, name)
		require.Contains(t, strings.Join(texts(result), " "), "invalid project name")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Empty(t, handler.messages)
}

func TestServer_ReadsDocs(t *testing.T) {
	session := connect(t, &handlerStub{}, "")

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "nutype://docs/tagging"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "#Name")
}

type resolverStub map[string]string

func (r resolverStub) ResolveIdentity(_ context.Context, token string) (string, error) {
	identity, ok := r[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return identity, nil
}

func TestAuthMiddleware(t *testing.T) {
	var seen string
	next := func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		seen = getIdentity(ctx)
		return &sdkmcp.CallToolResult{}, nil
	}
	handler := authMiddleware(resolverStub{"secret": "100"})(next)

	request := func(auth string) *sdkmcp.CallToolRequest {
		header := http.Header{}
		if auth != "" {
			header.Set("Authorization", auth)
		}
		return &sdkmcp.CallToolRequest{Extra: &sdkmcp.RequestExtra{Header: header}}
	}

	_, err := handler(context.Background(), "tools/call", request("Bearer secret"))
	require.NoError(t, err)
	require.Equal(t, "100", seen)

	_, err = handler(context.Background(), "tools/call", request(""))
	require.ErrorContains(t, err, "missing bearer token")

	_, err = handler(context.Background(), "tools/call", request("Bearer wrong"))
	require.ErrorContains(t, err, "unauthorized")

	_, err = handler(context.Background(), "tools/call", &sdkmcp.CallToolRequest{})
	require.ErrorContains(t, err, "missing headers")

	seen = "unchanged"
	_, err = handler(context.Background(), "initialize", &sdkmcp.CallToolRequest{})
	require.NoError(t, err)
	require.Equal(t, "", seen)
}

func TestNoAuthMiddleware(t *testing.T) {
	var seen string
	next := func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		seen = getIdentity(ctx)
		return nil, nil
	}

	_, err := noAuthMiddleware("local")(next)(context.Background(), "tools/call", &sdkmcp.CallToolRequest{})
	require.NoError(t, err)
	require.Equal(t, "local", seen)
}
