package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nutype/nutype-bot/internal/bot"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Handler is the bot surface the tools drive.
type Handler interface {
	HandleCommand(ctx context.Context, cmd bot.Command, out bot.Responder) error
	HandleMessage(ctx context.Context, msg bot.Message, out bot.Responder) error
}

// Config contains server configuration.
type Config struct {
	Handler         Handler
	Resolver        IdentityResolver
	AuthEnabled     bool
	TransportMode   string // "stdio" or "http"
	DefaultIdentity string
	Version         string
	Logger          *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "nutype-bot",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Each call wraps the previous chain, so the identity middleware added
	// last runs first and traffic logging sees identity and request id.
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))
	server.AddReceivingMiddleware(requestIDMiddleware())
	// Stdio is local only and always runs as the configured identity.
	if cfg.TransportMode == TransportHTTP && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultIdentity))
	}

	registerTools(server, cfg.Handler, cfg.Logger)

	return server
}
