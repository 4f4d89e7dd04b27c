package dat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleThread = "名無しさん<>sage<>2024/01/02(火) 03:04:05.67 ID:abcd<> 本文 http://example.com <br> 2行目 <>テストスレ (12)\n" +
	"&amp;名無し<><>2024/01/02(火) 04:00:00<> <a href=\"../test/read.cgi/news/1704132245/1\" target=\"_blank\">&gt;&gt;1</a> &hearts; &#60;b&#62; <>\n" +
	"名無し<><>あぼーん<>あぼーん<>\n"

func TestParseThreadLog(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	title, posts, err := parseThreadLogAt(sampleThread, "hayabusa9.2ch.net", now)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "テストスレ (12)", title)

	first := posts[0]
	assert.Equal(t, 1, first.Ordinal)
	assert.Equal(t, "名無しさん", first.Name)
	assert.Equal(t, "sage", first.Mail)
	assert.Equal(t, time.Date(2024, 1, 1, 18, 4, 5, 0, time.UTC), first.PostedAt)
	assert.Equal(t, ` 本文 <a href="http://example.com">http://example.com</a> <br> 2行目 `, first.Body)

	second := posts[1]
	assert.Equal(t, 2, second.Ordinal)
	assert.Equal(t, "&名無し", second.Name)
	assert.Equal(t, "&amp;名無し", second.NameHTML)
	assert.Equal(t, "", second.Mail)
	assert.Equal(t,
		` <a href="http://hayabusa9.2ch.net/test/read.cgi/news/1704132245/1" target="_blank">&gt;&gt;1</a> ♥ &#60;b&#62; `,
		second.Body)

	third := posts[2]
	assert.Equal(t, now, third.PostedAt)
	assert.Equal(t, "あぼーん", third.DateField)
}

func TestParseThreadLogHeaderMarkup(t *testing.T) {
	line := `名無し </b>◆Trip.abc <b><>&amp;<>2024/01/02(火) 03:04:05 <a href="javascript:be(1);">?2BP(0)</a><>body<>t` + "\n"
	_, posts, err := ParseThreadLog(line, "hayabusa9.2ch.net")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	p := posts[0]
	assert.Equal(t, "名無し </b>◆Trip.abc <b>", p.NameHTML)
	assert.Equal(t, `2024/01/02(火) 03:04:05 <a href="javascript:be(1);">?2BP(0)</a>`, p.DateHTML)
	assert.Equal(t, "&", p.Mail)
	assert.Equal(t, time.Date(2024, 1, 1, 18, 4, 5, 0, time.UTC), p.PostedAt)
}

func TestParseThreadLogOrdinalsIncrease(t *testing.T) {
	_, posts, err := ParseThreadLog(sampleThread, "hayabusa9.2ch.net")
	require.NoError(t, err)
	for i := 1; i < len(posts); i++ {
		assert.Greater(t, posts[i].Ordinal, posts[i-1].Ordinal)
	}
}

func TestParseThreadLogCRLF(t *testing.T) {
	title, posts, err := ParseThreadLog("a<>b<>c<>d<>e\r\nf<>g<>h<>i<>j\r\n", "x.2ch.net")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "e", title)
	assert.Equal(t, "j", posts[1].ThreadTitle)
}

func TestParseThreadLogMalformed(t *testing.T) {
	_, _, err := ParseThreadLog("a<>b<>c<>d<>e\na<>b<>c\n", "x.2ch.net")
	require.Error(t, err)

	var mle *MalformedLineError
	require.True(t, errors.As(err, &mle))
	assert.Equal(t, 2, mle.Line)
	assert.Equal(t, 3, mle.Fields)
}

func TestParseThreadLogEmpty(t *testing.T) {
	_, _, err := ParseThreadLog("", "x.2ch.net")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParsePostDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024/01/02(火) 03:04:05", time.Date(2024, 1, 1, 18, 4, 5, 0, time.UTC), true},
		{"2024/01/02(火) 03:04:05.12 ID:xyz BE:1-2", time.Date(2024, 1, 1, 18, 4, 5, 0, time.UTC), true},
		{"2010/03/01(月) 12:00:00", time.Date(2010, 3, 1, 3, 0, 0, 0, time.UTC), true},
		{"2024/02/29(木) 00:00:00", time.Date(2024, 2, 28, 15, 0, 0, 0, time.UTC), true},
		{"2023/02/29(水) 00:00:00", time.Time{}, false},
		{"2024/13/01(月) 00:00:00", time.Time{}, false},
		{"2024/01/01(月) 24:00:00", time.Time{}, false},
		{"2024/01/01(月) 00:60:00", time.Time{}, false},
		{"あぼーん", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParsePostDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
