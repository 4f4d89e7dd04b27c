package render

import (
	"bytes"
	"encoding/xml"
	"net/http"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	PubDate     string    `xml:"pubDate,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate,omitempty"`
	Description *cdata  `xml:"description,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// cdata is emitted as a CDATA section; encoding/xml splits any "]]>".
type cdata struct {
	Text string `xml:",cdata"`
}

func newCDATA(s string) *cdata {
	if s == "" {
		return nil
	}
	return &cdata{Text: xmlSafe(s)}
}

func renderRSS(ch Channel, items []Item) ([]byte, error) {
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       xmlSafe(ch.Title),
			Link:        ch.Link,
			Description: xmlSafe(ch.Description),
			Language:    "ja",
			Items:       make([]rssItem, 0, len(items)),
		},
	}
	if !ch.Updated.IsZero() {
		feed.Channel.PubDate = ch.Updated.UTC().Format(http.TimeFormat)
	}

	for _, it := range items {
		ri := rssItem{
			Title:       xmlSafe(it.Title),
			Link:        it.Link,
			GUID:        rssGUID{IsPermaLink: "true", Value: it.ID},
			Description: newCDATA(it.HTML),
		}
		if it.Published != nil {
			ri.PubDate = it.Published.UTC().Format(http.TimeFormat)
		}
		feed.Channel.Items = append(feed.Channel.Items, ri)
	}

	return marshalXML(feed)
}

func marshalXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
