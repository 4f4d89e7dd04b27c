package models

import "time"

// CachedOrigin represents a row in the 'origin_cache' table: the last known
// state of one origin URL.
type CachedOrigin struct {
	URL          string    `db:"url"`
	Content      []byte    `db:"content"` // raw bytes as received, pre-decoding
	LastModified time.Time `db:"last_modified"`
	LastAccess   time.Time `db:"last_access"`
}
