package render

import (
	"fmt"
	"strings"
	"time"

	"datfeed/gateway/internal/models"
)

// Format selects the serialization of a feed.
type Format string

const (
	RSS  Format = "rss"
	Atom Format = "atom"
	JSON Format = "json"
)

// ParseFormat accepts "rss", "atom" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case RSS, Atom, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown feed format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case Atom:
		return "application/atom+xml; charset=utf-8"
	case JSON:
		return "application/feed+json; charset=utf-8"
	default:
		return "application/rss+xml; charset=utf-8"
	}
}

// Channel describes the feed as a whole.
type Channel struct {
	Title       string
	Link        string
	Description string
	Updated     time.Time
}

// Item is one feed entry. HTML is optional.
type Item struct {
	Title     string
	Link      string
	ID        string
	Published *time.Time
	HTML      string
}

// Render serializes ch and items. The same input always yields the same bytes.
func Render(f Format, ch Channel, items []Item) (models.FeedDocument, error) {
	var (
		body []byte
		err  error
	)
	switch f {
	case RSS:
		body, err = renderRSS(ch, items)
	case Atom:
		body, err = renderAtom(ch, items)
	case JSON:
		body, err = renderJSON(ch, items)
	default:
		return models.FeedDocument{}, fmt.Errorf("unknown feed format %q", f)
	}
	if err != nil {
		return models.FeedDocument{}, fmt.Errorf("render %s: %w", f, err)
	}

	return models.FeedDocument{
		ContentType:  f.ContentType(),
		Body:         body,
		LastModified: ch.Updated.UTC(),
	}, nil
}

// xmlSafe drops characters that cannot appear in an XML 1.0 document.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
