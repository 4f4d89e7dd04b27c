package dat

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"datfeed/gateway/internal/models"
)

var dateRe = regexp.MustCompile(`^(\d+)/(\d+)/(\d+)\(.\) (\d+):(\d+):(\d+)`)

// JST is the fixed UTC+9 zone the origin writes its timestamps in.
var JST = time.FixedZone("JST", 9*60*60)

// ParseThreadLog parses a thread log. It returns the thread title from the
// first line and the posts in file order.
func ParseThreadLog(content, server string) (string, []models.ThreadPost, error) {
	return parseThreadLogAt(content, server, time.Now())
}

func parseThreadLogAt(content, server string, now time.Time) (string, []models.ThreadPost, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return "", nil, ErrEmptyDocument
	}

	posts := make([]models.ThreadPost, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, Delimiter)
		if len(fields) != 5 {
			return "", nil, &MalformedLineError{Line: i + 1, Fields: len(fields)}
		}

		dateField := unescapeText(fields[2])
		postedAt, ok := ParsePostDate(dateField)
		if !ok {
			log.Debug().Int("line", i+1).Str("date", dateField).Msg("Unparsable post date, using processing time")
			postedAt = now.UTC()
		}

		body := unescapeBody(fields[3])
		body = RewriteLinks(body)
		body = RewriteRelativePaths(body, server)

		posts = append(posts, models.ThreadPost{
			Ordinal:     i + 1,
			Name:        unescapeText(fields[0]),
			NameHTML:    unescapeBody(fields[0]),
			Mail:        unescapeText(fields[1]),
			DateField:   dateField,
			DateHTML:    unescapeBody(fields[2]),
			PostedAt:    postedAt,
			Body:        body,
			ThreadTitle: unescapeText(fields[4]),
		})
	}

	return posts[0].ThreadTitle, posts, nil
}

// ParsePostDate reads the leading "YYYY/MM/DD(w) HH:MM:SS" of a date field
// as UTC+9 and returns it in UTC. Trailing annotations are ignored.
func ParsePostDate(s string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	var v [6]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		v[i] = n
	}
	year, month, day, hour, min, sec := v[0], v[1], v[2], v[3], v[4], v[5]

	// time.Date normalizes overflow, so out-of-range values are rejected here.
	if year < 1 || month < 1 || month > 12 || day < 1 || hour > 23 || min > 59 || sec > 59 {
		return time.Time{}, false
	}
	if day > time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day() {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, JST).UTC(), true
}
