package config

// Constants defining default values for application configuration
const (
	DefaultStoreDriver = "sqlite"
	DefaultDBPath      = "./datfeed.db"
	DefaultLevelDBPath = "./data/leveldb"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultServerPattern = `^[a-z0-9]+\.(2ch\.net|5ch\.net|bbspink\.com)$`
	DefaultBoardPattern  = `^[a-z0-9_]+$`

	DefaultOriginScheme      = "http"
	DefaultOriginCharset     = "shift_jis"
	DefaultOriginTimeout     = "20s"
	DefaultOriginConcurrency = 8
	DefaultOriginRate        = 5.0 // Requests per second, 0 means unlimited
	DefaultUserAgent         = "datfeed/1.0"

	DefaultOriginCacheTTL = "1m"
	DefaultBoardCacheTTL  = "5m"
	DefaultThreadCacheTTL = "2m"
	DefaultMenuCacheTTL   = "24h"
	DefaultErrorCacheTTL  = "30s"
	DefaultCleanAge       = "72h"

	DefaultBoardMaxItems  = 100
	DefaultThreadMaxItems = 100
	DefaultShowHead       = true
	DefaultFormat         = "rss"

	DefaultLogLevel = "info"
)
