package dat

import (
	"regexp"
	"strings"
)

var (
	// Existing anchors and tags are copied through untouched.
	markupRe = regexp.MustCompile(`(?is)<a\s[^>]*>.*?</a>|<[^>]*>`)

	// Longer schemes come first: RE2 alternation is leftmost-first.
	linkRe = regexp.MustCompile(`(https|http|ttps|ttp|tps|tp|ftp)://([\x21\x23-\x7E]+)`)

	relativeTestRe = regexp.MustCompile(`(<a [^>]*href=")\.\./test/`)
)

var schemeAliases = map[string]string{
	"ttp":  "http",
	"tp":   "http",
	"ttps": "https",
	"tps":  "https",
}

// CanonicalScheme maps a legacy scheme alias to the scheme it stands for.
func CanonicalScheme(s string) string {
	if c, ok := schemeAliases[s]; ok {
		return c
	}
	return s
}

// RewriteLinks turns bare URLs into anchors. The href uses the canonical
// scheme while the visible text keeps what the poster wrote.
func RewriteLinks(body string) string {
	var b strings.Builder
	b.Grow(len(body))
	last := 0
	for _, loc := range markupRe.FindAllStringIndex(body, -1) {
		b.WriteString(linkify(body[last:loc[0]]))
		b.WriteString(body[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(linkify(body[last:]))
	return b.String()
}

func linkify(text string) string {
	return linkRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		scheme, rest := sub[1], sub[2]
		return `<a href="` + CanonicalScheme(scheme) + "://" + rest + `">` + scheme + "://" + rest + "</a>"
	})
}

// RewriteRelativePaths makes "../test/" anchors absolute on server.
func RewriteRelativePaths(body, server string) string {
	return relativeTestRe.ReplaceAllStringFunc(body, func(m string) string {
		prefix := relativeTestRe.FindStringSubmatch(m)[1]
		return prefix + "http://" + server + "/test/"
	})
}
