package render

import "encoding/xml"

const (
	atomNS         = "http://www.w3.org/2005/Atom"
	atomTimeFormat = "2006-01-02T15:04:05Z"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	Lang    string      `xml:"xml:lang,attr"`
	Title   string      `xml:"title"`
	Author  atomAuthor  `xml:"author"`
	Link    atomLink    `xml:"link"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Entries []atomEntry `xml:"entry"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	Title   string       `xml:"title"`
	Link    atomLink     `xml:"link"`
	ID      string       `xml:"id"`
	Updated string       `xml:"updated,omitempty"`
	Content *atomContent `xml:"content,omitempty"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Text string `xml:",cdata"`
}

func renderAtom(ch Channel, items []Item) ([]byte, error) {
	feed := atomFeed{
		Xmlns:   atomNS,
		Lang:    "ja",
		Title:   xmlSafe(ch.Title),
		Link:    atomLink{Href: ch.Link},
		ID:      ch.Link,
		Updated: ch.Updated.UTC().Format(atomTimeFormat),
		Entries: make([]atomEntry, 0, len(items)),
	}

	for _, it := range items {
		e := atomEntry{
			Title: xmlSafe(it.Title),
			Link:  atomLink{Href: it.Link},
			ID:    it.ID,
		}
		if it.Published != nil {
			e.Updated = it.Published.UTC().Format(atomTimeFormat)
		}
		if it.HTML != "" {
			e.Content = &atomContent{Type: "html", Text: xmlSafe(it.HTML)}
		}
		feed.Entries = append(feed.Entries, e)
	}

	return marshalXML(feed)
}
