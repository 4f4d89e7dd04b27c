package gateway

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"datfeed/gateway/internal/dat"
	"datfeed/gateway/internal/render"
)

// Kind distinguishes the two feed resources.
type Kind string

const (
	KindBoard  Kind = "board"
	KindThread Kind = "thread"
)

var (
	threadRe = regexp.MustCompile(`^\d+$`)
	limitRe  = regexp.MustCompile(`^\d{1,4}$`)
	windowRe = regexp.MustCompile(`^(\d{1,3})\s*(hour|day|week)s?$`)
)

// Window restricts a feed to items dated within the last N units.
type Window struct {
	N    int
	Unit string // "hour", "day" or "week"
}

// ParseWindow reads "N hour(s)", "N day(s)" or "N week(s)".
func ParseWindow(s string) (Window, error) {
	m := windowRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Window{}, &ValidationError{Field: "time", Value: s}
	}
	n, _ := strconv.Atoi(m[1])
	return Window{N: n, Unit: m[2]}, nil
}

func (w Window) IsZero() bool {
	return w.N == 0 && w.Unit == ""
}

// String is the canonical form used in resource keys.
func (w Window) String() string {
	if w.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d%s", w.N, w.Unit[:1])
}

// Since returns the earliest instant inside the window. Day and week
// windows start at midnight JST.
func (w Window) Since(now time.Time) time.Time {
	switch w.Unit {
	case "hour":
		return now.Add(-time.Duration(w.N) * time.Hour).UTC()
	case "day", "week":
		days := w.N
		if w.Unit == "week" {
			days *= 7
		}
		t := now.In(dat.JST).AddDate(0, 0, -days)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, dat.JST).UTC()
	default:
		return time.Time{}
	}
}

// Request is a validated feed request.
type Request struct {
	Kind   Kind
	Server string
	Board  string
	Thread string
	Format render.Format
	Limit  int // 0 means the configured maximum
	Window Window
}

// Key identifies the rendered document for req. Every input that changes
// the output is part of it.
func (r Request) Key(showHead bool) string {
	return strings.Join([]string{
		string(r.Kind),
		r.Server,
		r.Board,
		r.Thread,
		string(r.Format),
		strconv.Itoa(r.Limit),
		r.Window.String(),
		strconv.FormatBool(showHead),
	}, "|")
}

// ParseRequest validates path segments and query parameters. An empty
// thread selects the board feed.
func (s *Service) ParseRequest(server, board, thread string, q url.Values) (Request, error) {
	if !s.cfg.ServerAllowed(server) {
		return Request{}, &ValidationError{Field: "server", Value: server}
	}
	if !s.cfg.BoardAllowed(board) {
		return Request{}, &ValidationError{Field: "board", Value: board}
	}

	req := Request{Kind: KindBoard, Server: server, Board: board}
	if thread != "" {
		if !threadRe.MatchString(thread) {
			return Request{}, &ValidationError{Field: "thread", Value: thread}
		}
		req.Kind = KindThread
		req.Thread = thread
	}

	format := q.Get("format")
	if format == "" {
		format = s.cfg.DefaultFormat
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return Request{}, &ValidationError{Field: "format", Value: format}
	}
	req.Format = f

	if v := q.Get("limit"); v != "" {
		n, _ := strconv.Atoi(v)
		if !limitRe.MatchString(v) || n < 1 {
			return Request{}, &ValidationError{Field: "limit", Value: v}
		}
		req.Limit = n
	}

	if v := q.Get("time"); v != "" {
		w, err := ParseWindow(v)
		if err != nil {
			return Request{}, err
		}
		req.Window = w
	}

	return req, nil
}

// ParseThreadURL splits a browser URL of the form
// http://{server}/test/read.cgi/{board}/{thread}/ or http://{server}/{board}/.
func ParseThreadURL(raw string) (server, board, thread string, err error) {
	u, perr := url.Parse(raw)
	if perr != nil || u.Host == "" {
		return "", "", "", &ValidationError{Field: "url", Value: raw}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) >= 4 && parts[0] == "test" && parts[1] == "read.cgi":
		return u.Host, parts[2], parts[3], nil
	case len(parts) == 1 && parts[0] != "":
		return u.Host, parts[0], "", nil
	default:
		return "", "", "", &ValidationError{Field: "url", Value: raw}
	}
}

// effectiveLimit applies a per-request limit under the configured cap.
func effectiveLimit(requested, max int) int {
	if requested > 0 && (max == 0 || requested < max) {
		return requested
	}
	return max
}
