package models

import "time"

// FeedDocument is a rendered feed, stored and served verbatim.
type FeedDocument struct {
	ContentType  string
	Body         []byte
	LastModified time.Time
}
