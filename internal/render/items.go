package render

import (
	"fmt"
	"html"
	"strconv"

	"datfeed/gateway/internal/models"
)

// ThreadURL is the browser URL of a thread; post links append the ordinal.
func ThreadURL(server, board, thread string) string {
	return fmt.Sprintf("http://%s/test/read.cgi/%s/%s/", server, board, thread)
}

// BoardURL is the browser URL of a board.
func BoardURL(server, board string) string {
	return fmt.Sprintf("http://%s/%s/", server, board)
}

// ThreadItems maps posts to items in the order given.
func ThreadItems(server, board, thread string, posts []models.ThreadPost, showHead bool) []Item {
	base := ThreadURL(server, board, thread)
	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		num := strconv.Itoa(p.Ordinal)
		postedAt := p.PostedAt
		items = append(items, Item{
			Title:     num,
			Link:      base + num,
			ID:        base + num,
			Published: &postedAt,
			HTML:      PostHTML(p, showHead),
		})
	}
	return items
}

// BoardItems maps board entries to items in the order given.
func BoardItems(server, board string, entries []models.BoardEntry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		link := ThreadURL(server, board, e.ThreadID)
		items = append(items, Item{
			Title:     e.Title,
			Link:      link,
			ID:        link,
			Published: e.CreatedAt,
		})
	}
	return items
}

// PostHTML renders a post body, optionally preceded by its header line.
// Name, date and body are origin HTML fragments and are copied as is, so
// trip and BE markup survives; the mail address is escaped into an
// attribute. Posts built without HTML fields fall back to escaped text.
func PostHTML(p models.ThreadPost, showHead bool) string {
	body := "<p>" + p.Body + "</p>"
	if !showHead {
		return body
	}

	name := p.NameHTML
	if name == "" {
		name = html.EscapeString(p.Name)
	}
	date := p.DateHTML
	if date == "" {
		date = html.EscapeString(p.DateField)
	}
	if p.Mail == "" {
		return fmt.Sprintf("%d 名前：<b>%s</b> ：%s", p.Ordinal, name, date) + body
	}
	return fmt.Sprintf(`%d 名前：<a href="mailto:%s"><b>%s</b></a> ：%s`,
		p.Ordinal, html.EscapeString(p.Mail), name, date) + body
}
