package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// Config holds all configuration for the application
type Config struct {
	// Origin cache storage
	StoreDriver string
	DBPath      string
	LevelDBPath string
	PostgresURL string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Origin settings
	ServerPattern     string
	BoardPattern      string
	OriginScheme      string
	OriginCharset     string
	OriginTimeout     time.Duration
	OriginConcurrency int
	OriginRate        float64
	UserAgent         string
	MenuURL           string

	// Cache lifetimes
	OriginCacheTTL time.Duration
	BoardCacheTTL  time.Duration
	ThreadCacheTTL time.Duration
	MenuCacheTTL   time.Duration
	ErrorCacheTTL  time.Duration
	CleanAge       time.Duration
	SweepInterval  time.Duration

	// Rendering
	BoardMaxItems  int
	ThreadMaxItems int
	ShowHead       bool
	DefaultFormat  string

	// Log settings
	LogLevel zerolog.Level

	serverRe *regexp.Regexp
	boardRe  *regexp.Regexp
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		StoreDriver:       DefaultStoreDriver,
		DBPath:            DefaultDBPath,
		LevelDBPath:       DefaultLevelDBPath,
		ServerHost:        DefaultServerHost,
		ServerPort:        DefaultServerPort,
		ServerPattern:     DefaultServerPattern,
		BoardPattern:      DefaultBoardPattern,
		OriginScheme:      DefaultOriginScheme,
		OriginCharset:     DefaultOriginCharset,
		OriginTimeout:     mustDuration(DefaultOriginTimeout),
		OriginConcurrency: DefaultOriginConcurrency,
		OriginRate:        DefaultOriginRate,
		UserAgent:         DefaultUserAgent,
		OriginCacheTTL:    mustDuration(DefaultOriginCacheTTL),
		BoardCacheTTL:     mustDuration(DefaultBoardCacheTTL),
		ThreadCacheTTL:    mustDuration(DefaultThreadCacheTTL),
		MenuCacheTTL:      mustDuration(DefaultMenuCacheTTL),
		ErrorCacheTTL:     mustDuration(DefaultErrorCacheTTL),
		CleanAge:          mustDuration(DefaultCleanAge),
		BoardMaxItems:     DefaultBoardMaxItems,
		ThreadMaxItems:    DefaultThreadMaxItems,
		ShowHead:          DefaultShowHead,
		DefaultFormat:     DefaultFormat,
		LogLevel:          logLevel,
	}
}

// Load builds a configuration from defaults, the environment and, when path
// is not empty, a YAML file. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	FromEnv(cfg)
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and compiles the allow-list patterns.
// It must be called before ServerAllowed or BoardAllowed.
func (c *Config) Validate() error {
	var err error
	if c.serverRe, err = regexp.Compile(c.ServerPattern); err != nil {
		return fmt.Errorf("server_pattern: %w", err)
	}
	if c.boardRe, err = regexp.Compile(c.BoardPattern); err != nil {
		return fmt.Errorf("board_pattern: %w", err)
	}

	switch c.StoreDriver {
	case "sqlite", "leveldb":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres_url is required for store_driver postgres")
		}
	default:
		return fmt.Errorf("unknown store_driver %q", c.StoreDriver)
	}

	switch c.DefaultFormat {
	case "rss", "atom", "json":
	default:
		return fmt.Errorf("unknown default_format %q", c.DefaultFormat)
	}

	if e, _ := charset.Lookup(c.OriginCharset); e == nil {
		return fmt.Errorf("unknown origin_charset %q", c.OriginCharset)
	}
	if c.OriginScheme != "http" && c.OriginScheme != "https" {
		return fmt.Errorf("origin_scheme must be http or https, got %q", c.OriginScheme)
	}
	if c.OriginTimeout <= 0 {
		return fmt.Errorf("origin_timeout must be positive")
	}
	if c.BoardMaxItems < 0 || c.ThreadMaxItems < 0 {
		return fmt.Errorf("item limits must not be negative")
	}
	return nil
}

// ServerAllowed reports whether server matches the configured allow-list.
func (c *Config) ServerAllowed(server string) bool {
	return c.serverRe != nil && c.serverRe.MatchString(server)
}

// BoardAllowed reports whether board matches the configured allow-list.
func (c *Config) BoardAllowed(board string) bool {
	return c.boardRe != nil && c.boardRe.MatchString(board)
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
