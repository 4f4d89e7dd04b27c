package dat

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Delimiter separates fields within one origin line.
const Delimiter = "<>"

var entityRe = regexp.MustCompile(`&[#0-9A-Za-z]+;`)

// Decode converts raw origin bytes to UTF-8 using the charset label
// (e.g. "shift_jis"). Invalid byte sequences become U+FFFD.
func Decode(raw []byte, label string) (string, error) {
	r, err := charset.NewReaderLabel(label, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("dat: charset %q: %w", label, err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("dat: decode %q: %w", label, err)
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

// splitLines splits on "\n", tolerating "\r\n" and a trailing newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// unescapeText decodes every HTML entity in a plain-text field.
func unescapeText(s string) string {
	return html.UnescapeString(s)
}

// unescapeBody decodes entities in an HTML fragment except those that
// would turn into markup (<, >, &, ").
func unescapeBody(s string) string {
	return entityRe.ReplaceAllStringFunc(s, func(ent string) string {
		d := html.UnescapeString(ent)
		if strings.ContainsAny(d, `<>&"`) {
			return ent
		}
		return d
	})
}
