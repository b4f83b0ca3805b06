package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nutype/nutype-bot/internal/auth"
	"github.com/nutype/nutype-bot/internal/bot"
	"github.com/nutype/nutype-bot/internal/config"
	"github.com/nutype/nutype-bot/internal/domain/export"
	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/domain/project"
	"github.com/nutype/nutype-bot/internal/mcp"
	"github.com/nutype/nutype-bot/internal/postgres"
	"github.com/nutype/nutype-bot/internal/sqlite"
	"github.com/nutype/nutype-bot/internal/summary"
	"github.com/nutype/nutype-bot/internal/telegram"
	"github.com/nutype/nutype-bot/internal/transport"
)

var version = "dev"

func main() {
	os.Exit(start())
}

// start runs the bot and returns the exit code, so deferred cleanup
// finishes before the process exits.
func start() int {
	configPath := pflag.StringP("config", "c", "", "path to YAML config file (default $NUTYPE_CONFIG_PATH)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.MCP.Mode == config.MCPModeStdio {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("NUTYPE_LOG_PATH"); logPath != "" {
		file, err := openRotatingFile(logPath, maxLogFileBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = file
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	projectRepo, feedbackRepo, closeStore, err := openStore(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	authz := auth.NewAuthorizer(cfg.Admins)
	if authz.Len() == 0 {
		logger.Warn("no admins configured; register, close and feedback commands will be refused")
	}

	projectSvc := project.NewService(projectRepo, logger)
	feedbackSvc := feedback.NewService(feedbackRepo, logger)
	router := feedback.NewRouter(feedbackSvc, logger)
	summarizer := summary.NewClient(summary.Config{
		APIKey:    cfg.Summary.APIKey,
		BaseURL:   cfg.Summary.BaseURL,
		Model:     cfg.Summary.Model,
		MaxTokens: cfg.Summary.MaxTokens,
		Timeout:   cfg.Summary.Timeout,
	})
	if cfg.Summary.APIKey == "" {
		logger.Warn("CLAUDE_API_KEY not set; exports will use the fallback summary")
	}
	exporter := export.NewService(projectSvc, feedbackSvc, summarizer, export.Options{
		MaxMessageLen: cfg.Export.MaxMessageLen,
		ChunkSize:     cfg.Export.ChunkSize,
	}, logger)
	handler := bot.NewHandler(projectSvc, router, exporter, authz, logger)

	var runners []runner

	if cfg.Telegram.Enabled {
		client := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.Token, nil)
		poller := telegram.NewPoller(client, handler, cfg.Telegram.PollTimeout, logger)
		runners = append(runners, runner{name: "telegram", run: poller.Run})
	}

	switch cfg.MCP.Mode {
	case config.MCPModeStdio:
		mcpServer := mcp.NewServer(mcp.Config{
			Handler:         handler,
			TransportMode:   mcp.TransportStdio,
			DefaultIdentity: cfg.MCP.Identity,
			Version:         version,
			Logger:          logger,
		})
		runners = append(runners, runner{name: "mcp stdio", run: func(ctx context.Context) error {
			return runStdioMode(ctx, logger, mcpServer)
		}})
	case config.MCPModeHTTP:
		resolver := auth.NewTokenResolver(cfg.MCP.Tokens)
		mcpServer := mcp.NewServer(mcp.Config{
			Handler:       handler,
			Resolver:      resolver,
			AuthEnabled:   true,
			TransportMode: mcp.TransportHTTP,
			Version:       version,
			Logger:        logger,
		})
		if len(cfg.MCP.Tokens) == 0 {
			logger.Warn("mcp http enabled without tokens; every request will be rejected")
		}
		runners = append(runners, runner{name: "mcp http", run: func(ctx context.Context) error {
			return runHTTPMode(ctx, logger, mcpServer, resolver, cfg.MCP.Addr())
		}})
	}

	err = supervise(ctx, runners)
	logger.Info("shut down")
	return err
}

type runner struct {
	name string
	run  func(context.Context) error
}

// supervise runs every runner until all return. The first failure
// cancels the rest.
func supervise(ctx context.Context, runners []runner) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error {
			if err := r.run(ctx); err != nil {
				return fmt.Errorf("%s: %w", r.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// openStore opens the configured backend and applies migrations.
func openStore(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (project.Repository, feedback.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.URL, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return postgres.NewProjectRepo(db), postgres.NewFeedbackRepo(db), closer(db, logger), nil

	default:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, nil, nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.RunMigrations(ctx, logger); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		logger.Info("connected to database", "driver", "sqlite", "path", cfg.Path)
		return sqlite.NewProjectRepository(db), sqlite.NewFeedbackRepository(db), closer(db.DB, logger), nil
	}
}

func closer(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}
}

// runStdioMode serves MCP over stdin/stdout until the client disconnects
// or ctx is done.
func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, resolver transport.IdentityResolver, addr string) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(mcpHandler, transport.AuthMiddleware(resolver), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down http server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
