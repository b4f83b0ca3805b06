// Package testserver assembles the full bot stack over an in-memory
// SQLite store for end-to-end tests.
package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/nutype/nutype-bot/internal/auth"
	"github.com/nutype/nutype-bot/internal/bot"
	"github.com/nutype/nutype-bot/internal/domain/export"
	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
	"github.com/nutype/nutype-bot/internal/mcp"
	"github.com/nutype/nutype-bot/internal/sqlite"
	"github.com/nutype/nutype-bot/internal/summary"
	"github.com/nutype/nutype-bot/internal/transport"
)

// Identities and tokens known to every test server.
const (
	AdminID     = "100"
	TesterID    = "200"
	AdminToken  = "admin-token"
	TesterToken = "tester-token"
)

// Options tweak the assembled stack.
type Options struct {
	// SummaryText is returned by the fake Messages API. Empty makes the
	// fake fail with a 529 overloaded error.
	SummaryText string
	Export      export.Options
}

type TestServer struct {
	Server       *httptest.Server
	DB           *sqlite.DB
	Handler      *bot.Handler
	SummaryCalls atomic.Int32
}

func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	ts := &TestServer{}

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(context.Background(), nil))
	ts.DB = db

	anthropic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.SummaryCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if opts.SummaryText == "" {
			w.WriteHeader(529)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": opts.SummaryText}},
		})
	}))

	projectSvc := project.NewService(sqlite.NewProjectRepository(db), nil)
	feedbackSvc := feedback.NewService(sqlite.NewFeedbackRepository(db), nil)
	summarizer := summary.NewClient(summary.Config{
		APIKey:  "test-key",
		BaseURL: anthropic.URL,
		Timeout: 5 * time.Second,
	})
	exporter := export.NewService(projectSvc, feedbackSvc, summarizer, opts.Export, nil)
	ts.Handler = bot.NewHandler(
		projectSvc,
		feedback.NewRouter(feedbackSvc, nil),
		exporter,
		auth.NewAuthorizer([]string{AdminID}),
		nil,
	)

	resolver := auth.NewTokenResolver(map[string]string{
		AdminToken:  AdminID,
		TesterToken: TesterID,
	})
	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       ts.Handler,
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: mcp.TransportHTTP,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return mcpServer }, nil)
	ts.Server = httptest.NewServer(transport.NewServer(mcpHandler, transport.AuthMiddleware(resolver), nil))

	t.Cleanup(func() {
		ts.Server.Close()
		anthropic.Close()
		_ = db.Close()
	})

	return ts
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(r)
}

// Connect opens an MCP client session authenticated with token.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: &bearerTransport{token: token, base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

// CallTool calls a tool and returns its text replies and error flag.
func CallTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) ([]string, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)

	var texts []string
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	return texts, result.IsError
}

// Chat drives the bot handler the way the chat transport does and
// returns the reply texts.
func (ts *TestServer) Chat(t *testing.T, sender feedback.Author, text string) []string {
	t.Helper()

	var replies []string
	out := bot.ResponderFunc(func(_ context.Context, reply bot.Reply) error {
		replies = append(replies, reply.Text)
		return nil
	})

	ctx := context.Background()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		fields := strings.Fields(text)
		cmd := bot.Command{Name: strings.TrimPrefix(fields[0], "/"), Args: fields[1:], Sender: sender}
		require.NoError(t, ts.Handler.HandleCommand(ctx, cmd, out))
	} else {
		require.NoError(t, ts.Handler.HandleMessage(ctx, bot.Message{Sender: sender, Text: text}, out))
	}
	return replies
}

// FeedbackCount returns the stored feedback rows for a project.
func (ts *TestServer) FeedbackCount(t *testing.T, projectName string) int {
	t.Helper()
	var n int
	err := ts.DB.QueryRow(`
		SELECT COUNT(*) FROM feedback f JOIN projects p ON p.id = f.project_id WHERE p.name = ?
	`, projectName).Scan(&n)
	require.NoError(t, err, fmt.Sprintf("count feedback for %s", projectName))
	return n
}
