package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// continuedPrefixLen is the rune length of the marker prepended to
// raw feedback chunks.
var continuedPrefixLen = utf8.RuneCountInString("Raw feedback (continued):\n\n")

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MCP transport modes.
const (
	MCPModeOff   = "off"
	MCPModeStdio = "stdio"
	MCPModeHTTP  = "http"
)

// Config defines bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Admins   []string       `yaml:"admins"`
	DB       DBConfig       `yaml:"db"`
	Summary  SummaryConfig  `yaml:"summary"`
	Export   ExportConfig   `yaml:"export"`
	MCP      MCPConfig      `yaml:"mcp"`
	Log      LogConfig      `yaml:"log"`
}

type TelegramConfig struct {
	Token       string        `yaml:"token"`
	APIURL      string        `yaml:"api_url"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	Enabled     bool          `yaml:"enabled"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type SummaryConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ExportConfig struct {
	MaxMessageLen int `yaml:"max_message_len"`
	ChunkSize     int `yaml:"chunk_size"`
}

// MCPConfig configures the operator tool surface. Tokens maps bearer
// tokens to caller identities; Identity is used over stdio.
type MCPConfig struct {
	Mode     string            `yaml:"mode"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Tokens   map[string]string `yaml:"tokens"`
	Identity string            `yaml:"identity"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Addr returns the HTTP listen address.
func (c MCPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Telegram: TelegramConfig{
			APIURL:      "https://api.telegram.org",
			PollTimeout: 30 * time.Second,
			Enabled:     true,
		},
		DB: DBConfig{
			Path: "nutype.db",
		},
		Summary: SummaryConfig{
			BaseURL:   "https://api.anthropic.com",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 2000,
			Timeout:   60 * time.Second,
		},
		Export: ExportConfig{
			MaxMessageLen: 4096,
			ChunkSize:     4000,
		},
		MCP: MCPConfig{
			Mode: MCPModeOff,
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to NUTYPE_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("NUTYPE_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DB.Driver == "" {
		cfg.DB.Driver = DriverSQLite
		if cfg.DB.URL != "" {
			cfg.DB.Driver = DriverPostgres
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration the bot cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram token is required (TELEGRAM_BOT_TOKEN)"))
	}
	if c.Telegram.PollTimeout < 0 {
		errs = append(errs, errors.New("telegram poll_timeout must not be negative"))
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			errs = append(errs, errors.New("db path is required for sqlite"))
		}
	case DriverPostgres:
		if c.DB.URL == "" {
			errs = append(errs, errors.New("db url is required for postgres (DATABASE_URL)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db driver %q", c.DB.Driver))
	}

	if c.Export.MaxMessageLen <= continuedPrefixLen {
		errs = append(errs, fmt.Errorf("export max_message_len must exceed %d", continuedPrefixLen))
	}
	if c.Export.ChunkSize <= 0 {
		errs = append(errs, errors.New("export chunk_size must be positive"))
	} else if c.Export.ChunkSize+continuedPrefixLen > c.Export.MaxMessageLen {
		errs = append(errs, fmt.Errorf("export chunk_size must leave %d characters for the continuation marker", continuedPrefixLen))
	}

	if c.Summary.Timeout <= 0 {
		errs = append(errs, errors.New("summary timeout must be positive"))
	}

	switch c.MCP.Mode {
	case MCPModeOff, MCPModeStdio:
	case MCPModeHTTP:
		if c.MCP.Port <= 0 || c.MCP.Port > 65535 {
			errs = append(errs, fmt.Errorf("invalid mcp port %d", c.MCP.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mcp mode %q", c.MCP.Mode))
	}

	if !c.Telegram.Enabled && c.MCP.Mode == MCPModeOff {
		errs = append(errs, errors.New("nothing to serve: telegram is disabled and mcp mode is off"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if enabled := os.Getenv("NUTYPE_TELEGRAM_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid NUTYPE_TELEGRAM_ENABLED: %w", err)
		}
		cfg.Telegram.Enabled = v
	}
	if admins := os.Getenv("ADMIN_USER_IDS"); admins != "" {
		cfg.Admins = splitList(admins)
	}
	if driver := os.Getenv("NUTYPE_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("NUTYPE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DB.URL = url
	}
	if key := os.Getenv("CLAUDE_API_KEY"); key != "" {
		cfg.Summary.APIKey = key
	}
	if mode := os.Getenv("NUTYPE_MCP_MODE"); mode != "" {
		cfg.MCP.Mode = mode
	}
	if portStr := os.Getenv("NUTYPE_MCP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid NUTYPE_MCP_PORT: %w", err)
		}
		cfg.MCP.Port = port
	}
	if tokens := os.Getenv("NUTYPE_MCP_TOKENS"); tokens != "" {
		parsed, err := parseTokens(tokens)
		if err != nil {
			return err
		}
		cfg.MCP.Tokens = parsed
	}
	if identity := os.Getenv("NUTYPE_MCP_IDENTITY"); identity != "" {
		cfg.MCP.Identity = identity
	}
	if level := os.Getenv("NUTYPE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTokens reads "token=identity" pairs separated by commas.
func parseTokens(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range splitList(s) {
		token, identity, ok := strings.Cut(pair, "=")
		token, identity = strings.TrimSpace(token), strings.TrimSpace(identity)
		if !ok || token == "" || identity == "" {
			return nil, errors.New("invalid NUTYPE_MCP_TOKENS: expected token=identity pairs")
		}
		tokens[token] = identity
	}
	return tokens, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
