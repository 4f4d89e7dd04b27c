package gateway

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datfeed/gateway/internal/config"
	"datfeed/gateway/internal/render"
)

func newTestService(t *testing.T) *Service {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	return NewService(cfg, nil, nil)
}

func TestParseRequest(t *testing.T) {
	s := newTestService(t)

	req, err := s.ParseRequest("hayabusa9.2ch.net", "news", "", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, KindBoard, req.Kind)
	assert.Equal(t, render.RSS, req.Format)
	assert.Equal(t, 0, req.Limit)
	assert.True(t, req.Window.IsZero())

	req, err = s.ParseRequest("hayabusa9.2ch.net", "news", "1704132245", url.Values{
		"format": {"atom"},
		"limit":  {"20"},
		"time":   {"3 days"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindThread, req.Kind)
	assert.Equal(t, render.Atom, req.Format)
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, Window{N: 3, Unit: "day"}, req.Window)
}

func TestParseRequestRejects(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name                  string
		server, board, thread string
		query                 url.Values
		field                 string
	}{
		{"server", "evil.example.com", "news", "", nil, "server"},
		{"board", "hayabusa9.2ch.net", "News!", "", nil, "board"},
		{"thread", "hayabusa9.2ch.net", "news", "12a", nil, "thread"},
		{"format", "hayabusa9.2ch.net", "news", "", url.Values{"format": {"html"}}, "format"},
		{"limit zero", "hayabusa9.2ch.net", "news", "", url.Values{"limit": {"0"}}, "limit"},
		{"limit too long", "hayabusa9.2ch.net", "news", "", url.Values{"limit": {"12345"}}, "limit"},
		{"limit not numeric", "hayabusa9.2ch.net", "news", "", url.Values{"limit": {"ten"}}, "limit"},
		{"time unit", "hayabusa9.2ch.net", "news", "", url.Values{"time": {"3 months"}}, "time"},
		{"time digits", "hayabusa9.2ch.net", "news", "", url.Values{"time": {"1000 hours"}}, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ParseRequest(tt.server, tt.board, tt.thread, tt.query)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, http.StatusBadRequest, StatusCode(err))
		})
	}
}

func TestRequestKey(t *testing.T) {
	base := Request{Kind: KindThread, Server: "a.2ch.net", Board: "news", Thread: "1", Format: render.RSS}
	assert.Equal(t, "thread|a.2ch.net|news|1|rss|0||true", base.Key(true))

	variants := []Request{base, base, base, base}
	variants[0].Format = render.Atom
	variants[1].Limit = 10
	variants[2].Window = Window{N: 1, Unit: "day"}
	variants[3].Thread = "2"

	seen := map[string]bool{base.Key(true): true, base.Key(false): true}
	for _, v := range variants {
		k := v.Key(true)
		assert.False(t, seen[k], k)
		seen[k] = true
	}
}

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{
		"1 hour":  {1, "hour"},
		"12hours": {12, "hour"},
		"3 days":  {3, "day"},
		"2 week":  {2, "week"},
	} {
		got, err := ParseWindow(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, "3d", Window{3, "day"}.String())
}

func TestWindowSince(t *testing.T) {
	// 14:00 JST on 2024-01-10
	now := time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 10, 2, 0, 0, 0, time.UTC), Window{3, "hour"}.Since(now))
	// midnight JST 2024-01-09
	assert.Equal(t, time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC), Window{1, "day"}.Since(now))
	// midnight JST 2024-01-03
	assert.Equal(t, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), Window{1, "week"}.Since(now))
}

func TestParseThreadURL(t *testing.T) {
	server, board, thread, err := ParseThreadURL("http://hayabusa9.2ch.net/test/read.cgi/news/1704132245/")
	require.NoError(t, err)
	assert.Equal(t, []string{"hayabusa9.2ch.net", "news", "1704132245"}, []string{server, board, thread})

	server, board, thread, err = ParseThreadURL("http://hayabusa9.2ch.net/news/")
	require.NoError(t, err)
	assert.Equal(t, []string{"hayabusa9.2ch.net", "news", ""}, []string{server, board, thread})

	_, _, _, err = ParseThreadURL("not a url")
	assert.Error(t, err)
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, 100, effectiveLimit(0, 100))
	assert.Equal(t, 10, effectiveLimit(10, 100))
	assert.Equal(t, 100, effectiveLimit(500, 100))
	assert.Equal(t, 500, effectiveLimit(500, 0))
	assert.Equal(t, 0, effectiveLimit(0, 0))
}
