package models

import "time"

// ThreadPost is one line of a thread log.
type ThreadPost struct {
	Ordinal     int // 1-based line number
	Name        string // plain text
	NameHTML    string // name with origin markup such as trip <b> tags kept
	Mail        string
	DateField   string // date/ID/BE annotation as plain text
	DateHTML    string // date field with origin markup such as BE links kept
	PostedAt    time.Time
	Body        string // HTML fragment, links already rewritten
	ThreadTitle string
}

// BoardEntry is one thread summary line of a board index.
type BoardEntry struct {
	ThreadID  string
	Title     string
	CreatedAt *time.Time // nil for advertisement placeholder rows
}

// MenuBoard is one board link found in the board menu.
type MenuBoard struct {
	Host  string
	Board string
	Title string
}
