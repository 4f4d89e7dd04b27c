package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, 72*time.Hour, cfg.CleanAge)
	assert.True(t, cfg.ShowHead)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)

	assert.True(t, cfg.ServerAllowed("hayabusa9.5ch.net"))
	assert.False(t, cfg.ServerAllowed("example.com"))
	assert.True(t, cfg.BoardAllowed("news4vip"))
	assert.False(t, cfg.BoardAllowed("../etc"))
}

func TestAllowListsRequireValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.ServerAllowed("hayabusa9.5ch.net"))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DATFEED_STORE_DRIVER", "leveldb")
	t.Setenv("DATFEED_PORT", "9090")
	t.Setenv("DATFEED_ORIGIN_RATE", "0.5")
	t.Setenv("DATFEED_CLEAN_AGE", "3600")
	t.Setenv("DATFEED_THREAD_CACHE_TTL", "45s")
	t.Setenv("DATFEED_SHOW_HEAD", "false")
	t.Setenv("DATFEED_LOG_LEVEL", "debug")
	t.Setenv("DATFEED_BOARD_MAX_ITEMS", "not-a-number")

	cfg := DefaultConfig()
	FromEnv(cfg)

	assert.Equal(t, "leveldb", cfg.StoreDriver)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 0.5, cfg.OriginRate)
	assert.Equal(t, time.Hour, cfg.CleanAge)
	assert.Equal(t, 45*time.Second, cfg.ThreadCacheTTL)
	assert.False(t, cfg.ShowHead)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, DefaultBoardMaxItems, cfg.BoardMaxItems)
}

func TestLoadFileOverridesOnlyNamedFields(t *testing.T) {
	t.Setenv("DATFEED_PORT", "9090")
	path := writeConfig(t, `
store_driver: leveldb
leveldb_path: /var/lib/datfeed
server_pattern: '^127\.0\.0\.1:\d+$'
origin_charset: utf-8
thread_cache_ttl: 10s
sweep_interval: 1h
show_head: false
default_format: atom
log_level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "leveldb", cfg.StoreDriver)
	assert.Equal(t, "/var/lib/datfeed", cfg.LevelDBPath)
	assert.Equal(t, "utf-8", cfg.OriginCharset)
	assert.Equal(t, 10*time.Second, cfg.ThreadCacheTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.False(t, cfg.ShowHead)
	assert.Equal(t, "atom", cfg.DefaultFormat)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)

	// Untouched by the file.
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, DefaultBoardPattern, cfg.BoardPattern)
	assert.True(t, cfg.ServerAllowed("127.0.0.1:8081"))
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad duration", "board_cache_ttl: soon\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad pattern", "board_pattern: '([a-z'\n"},
		{"unknown driver", "store_driver: redis\n"},
		{"postgres without url", "store_driver: postgres\n"},
		{"unknown format", "default_format: html\n"},
		{"bad scheme", "origin_scheme: ftp\n"},
		{"unknown charset", "origin_charset: klingon\n"},
		{"negative limit", "thread_max_items: -1\n"},
		{"not yaml", "port: [1, 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestOriginCharsetLabels(t *testing.T) {
	for _, label := range []string{"shift_jis", "Shift_JIS", "ms932", "windows-31j", "euc-jp", "utf-8"} {
		cfg := DefaultConfig()
		cfg.OriginCharset = label
		assert.NoError(t, cfg.Validate(), label)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStoreDriver, cfg.StoreDriver)
}
