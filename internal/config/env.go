package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvPrefix is prepended to every environment variable read by FromEnv.
const EnvPrefix = "DATFEED_"

// GetEnvString retrieves a string from environment variables or returns the default value.
func GetEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt retrieves an integer from environment variables or returns the default value.
func GetEnvInt(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvFloat retrieves a float from environment variables or returns the default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvBool retrieves a boolean from environment variables or returns the default value.
func GetEnvBool(key string, defaultValue bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvDuration retrieves a duration from environment variables or returns the default value.
// If the string contains time units (m, h, s), they'll be parsed accordingly.
// Otherwise, the value is interpreted as seconds.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}

	if strings.ContainsAny(valStr, "mhs") {
		val, err := time.ParseDuration(valStr)
		if err != nil {
			return defaultValue
		}
		return val
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return time.Duration(val) * time.Second
}

// GetEnvLogLevel retrieves a log level from environment variables or returns the default value.
func GetEnvLogLevel(key string, defaultValue zerolog.Level) zerolog.Level {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}

	level, err := zerolog.ParseLevel(valStr)
	if err != nil {
		return defaultValue
	}
	return level
}

// FromEnv overrides cfg with any DATFEED_* variables present in the environment.
func FromEnv(cfg *Config) {
	e := func(name string) string { return EnvPrefix + name }

	cfg.StoreDriver = GetEnvString(e("STORE_DRIVER"), cfg.StoreDriver)
	cfg.DBPath = GetEnvString(e("DB_PATH"), cfg.DBPath)
	cfg.LevelDBPath = GetEnvString(e("LEVELDB_PATH"), cfg.LevelDBPath)
	cfg.PostgresURL = GetEnvString(e("POSTGRES_URL"), cfg.PostgresURL)

	cfg.ServerHost = GetEnvString(e("HOST"), cfg.ServerHost)
	cfg.ServerPort = GetEnvInt(e("PORT"), cfg.ServerPort)
	cfg.APIKey = GetEnvString(e("API_KEY"), cfg.APIKey)

	cfg.ServerPattern = GetEnvString(e("SERVER_PATTERN"), cfg.ServerPattern)
	cfg.BoardPattern = GetEnvString(e("BOARD_PATTERN"), cfg.BoardPattern)
	cfg.OriginScheme = GetEnvString(e("ORIGIN_SCHEME"), cfg.OriginScheme)
	cfg.OriginCharset = GetEnvString(e("ORIGIN_CHARSET"), cfg.OriginCharset)
	cfg.OriginTimeout = GetEnvDuration(e("ORIGIN_TIMEOUT"), cfg.OriginTimeout)
	cfg.OriginConcurrency = GetEnvInt(e("ORIGIN_CONCURRENCY"), cfg.OriginConcurrency)
	cfg.OriginRate = GetEnvFloat(e("ORIGIN_RATE"), cfg.OriginRate)
	cfg.UserAgent = GetEnvString(e("USER_AGENT"), cfg.UserAgent)
	cfg.MenuURL = GetEnvString(e("MENU_URL"), cfg.MenuURL)

	cfg.OriginCacheTTL = GetEnvDuration(e("ORIGIN_CACHE_TTL"), cfg.OriginCacheTTL)
	cfg.BoardCacheTTL = GetEnvDuration(e("BOARD_CACHE_TTL"), cfg.BoardCacheTTL)
	cfg.ThreadCacheTTL = GetEnvDuration(e("THREAD_CACHE_TTL"), cfg.ThreadCacheTTL)
	cfg.MenuCacheTTL = GetEnvDuration(e("MENU_CACHE_TTL"), cfg.MenuCacheTTL)
	cfg.ErrorCacheTTL = GetEnvDuration(e("ERROR_CACHE_TTL"), cfg.ErrorCacheTTL)
	cfg.CleanAge = GetEnvDuration(e("CLEAN_AGE"), cfg.CleanAge)
	cfg.SweepInterval = GetEnvDuration(e("SWEEP_INTERVAL"), cfg.SweepInterval)

	cfg.BoardMaxItems = GetEnvInt(e("BOARD_MAX_ITEMS"), cfg.BoardMaxItems)
	cfg.ThreadMaxItems = GetEnvInt(e("THREAD_MAX_ITEMS"), cfg.ThreadMaxItems)
	cfg.ShowHead = GetEnvBool(e("SHOW_HEAD"), cfg.ShowHead)
	cfg.DefaultFormat = GetEnvString(e("DEFAULT_FORMAT"), cfg.DefaultFormat)

	cfg.LogLevel = GetEnvLogLevel(e("LOG_LEVEL"), cfg.LogLevel)
}
