package dat

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"datfeed/gateway/internal/models"
)

const (
	adThreadPrefix = "924"
	maxThreadID    = 10_000_000_000
)

var replyCountRe = regexp.MustCompile(`\s*\(\d+\)$`)

// ParseBoardIndex parses a board's subject index and returns the entries
// sorted by thread id, newest first.
func ParseBoardIndex(content string) ([]models.BoardEntry, error) {
	type row struct {
		id    uint64
		entry models.BoardEntry
	}

	lines := splitLines(content)
	rows := make([]row, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, Delimiter)
		if len(fields) != 2 {
			return nil, &MalformedLineError{Line: i + 1, Fields: len(fields)}
		}

		threadID := strings.TrimSuffix(fields[0], ".dat")
		id, err := strconv.ParseUint(threadID, 10, 64)
		if err != nil {
			return nil, &MalformedLineError{Line: i + 1, Fields: 2, Reason: "thread id " + strconv.Quote(threadID) + " is not numeric"}
		}

		entry := models.BoardEntry{
			ThreadID: threadID,
			Title:    replyCountRe.ReplaceAllString(unescapeText(fields[1]), ""),
		}
		if !IsAdThreadID(threadID) {
			created := time.Unix(int64(id), 0).UTC()
			entry.CreatedAt = &created
		}
		rows = append(rows, row{id: id, entry: entry})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].id > rows[j].id })

	entries := make([]models.BoardEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry
	}
	return entries, nil
}

// IsAdThreadID reports whether id is an advertisement placeholder rather
// than a creation timestamp.
func IsAdThreadID(id string) bool {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return false
	}
	if n >= maxThreadID {
		return true
	}
	return (len(id) == 9 || len(id) == 10) && strings.HasPrefix(id, adThreadPrefix)
}
