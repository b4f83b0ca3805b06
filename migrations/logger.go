package migrations

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
)

type gooseLogger struct {
	logger *slog.Logger
}

// NewLogger routes goose output through logger. A nil logger discards it.
func NewLogger(logger *slog.Logger) goose.Logger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return gooseLogger{logger: logger.With("component", "goose")}
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf keeps goose's contract: it never returns.
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
