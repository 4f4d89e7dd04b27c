package render

import (
	"github.com/gorilla/feeds"
)

func renderJSON(ch Channel, items []Item) ([]byte, error) {
	feed := &feeds.Feed{
		Title:       ch.Title,
		Link:        &feeds.Link{Href: ch.Link},
		Description: ch.Description,
		Updated:     ch.Updated.UTC(),
	}

	for _, it := range items {
		fi := &feeds.Item{
			Title:   it.Title,
			Link:    &feeds.Link{Href: it.Link},
			Id:      it.ID,
			Content: it.HTML,
		}
		if it.Published != nil {
			fi.Created = it.Published.UTC()
		}
		feed.Items = append(feed.Items, fi)
	}

	s, err := feed.ToJSON()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
