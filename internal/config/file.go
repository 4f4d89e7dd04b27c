package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding. Pointer fields distinguish
// "absent" from the zero value so a file only overrides what it names.
type fileConfig struct {
	StoreDriver *string `yaml:"store_driver"`
	DBPath      *string `yaml:"db_path"`
	LevelDBPath *string `yaml:"leveldb_path"`
	PostgresURL *string `yaml:"postgres_url"`

	Host   *string `yaml:"host"`
	Port   *int    `yaml:"port"`
	APIKey *string `yaml:"api_key"`

	ServerPattern     *string  `yaml:"server_pattern"`
	BoardPattern      *string  `yaml:"board_pattern"`
	OriginScheme      *string  `yaml:"origin_scheme"`
	OriginCharset     *string  `yaml:"origin_charset"`
	OriginTimeout     *string  `yaml:"origin_timeout"`
	OriginConcurrency *int     `yaml:"origin_concurrency"`
	OriginRate        *float64 `yaml:"origin_rate"`
	UserAgent         *string  `yaml:"user_agent"`
	MenuURL           *string  `yaml:"menu_url"`

	OriginCacheTTL *string `yaml:"origin_cache_ttl"`
	BoardCacheTTL  *string `yaml:"board_cache_ttl"`
	ThreadCacheTTL *string `yaml:"thread_cache_ttl"`
	MenuCacheTTL   *string `yaml:"menu_cache_ttl"`
	ErrorCacheTTL  *string `yaml:"error_cache_ttl"`
	CleanAge       *string `yaml:"clean_age"`
	SweepInterval  *string `yaml:"sweep_interval"`

	BoardMaxItems  *int    `yaml:"board_max_items"`
	ThreadMaxItems *int    `yaml:"thread_max_items"`
	ShowHead       *bool   `yaml:"show_head"`
	DefaultFormat  *string `yaml:"default_format"`

	LogLevel *string `yaml:"log_level"`
}

// LoadFile applies the YAML file at path on top of cfg.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.StoreDriver, fc.StoreDriver)
	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.LevelDBPath, fc.LevelDBPath)
	setString(&cfg.PostgresURL, fc.PostgresURL)
	setString(&cfg.ServerHost, fc.Host)
	setInt(&cfg.ServerPort, fc.Port)
	setString(&cfg.APIKey, fc.APIKey)

	setString(&cfg.ServerPattern, fc.ServerPattern)
	setString(&cfg.BoardPattern, fc.BoardPattern)
	setString(&cfg.OriginScheme, fc.OriginScheme)
	setString(&cfg.OriginCharset, fc.OriginCharset)
	setInt(&cfg.OriginConcurrency, fc.OriginConcurrency)
	if fc.OriginRate != nil {
		cfg.OriginRate = *fc.OriginRate
	}
	setString(&cfg.UserAgent, fc.UserAgent)
	setString(&cfg.MenuURL, fc.MenuURL)

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"origin_timeout", fc.OriginTimeout, &cfg.OriginTimeout},
		{"origin_cache_ttl", fc.OriginCacheTTL, &cfg.OriginCacheTTL},
		{"board_cache_ttl", fc.BoardCacheTTL, &cfg.BoardCacheTTL},
		{"thread_cache_ttl", fc.ThreadCacheTTL, &cfg.ThreadCacheTTL},
		{"menu_cache_ttl", fc.MenuCacheTTL, &cfg.MenuCacheTTL},
		{"error_cache_ttl", fc.ErrorCacheTTL, &cfg.ErrorCacheTTL},
		{"clean_age", fc.CleanAge, &cfg.CleanAge},
		{"sweep_interval", fc.SweepInterval, &cfg.SweepInterval},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	setInt(&cfg.BoardMaxItems, fc.BoardMaxItems)
	setInt(&cfg.ThreadMaxItems, fc.ThreadMaxItems)
	if fc.ShowHead != nil {
		cfg.ShowHead = *fc.ShowHead
	}
	setString(&cfg.DefaultFormat, fc.DefaultFormat)

	if fc.LogLevel != nil {
		level, err := zerolog.ParseLevel(*fc.LogLevel)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
