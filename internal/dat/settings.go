package dat

import "strings"

// ParseSettings reads SETTING.TXT. The first line names the board and is
// skipped; lines without "=" are ignored.
func ParseSettings(content string) map[string]string {
	settings := make(map[string]string)
	for i, line := range splitLines(content) {
		if i == 0 {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		settings[key] = unescapeText(value)
	}
	return settings
}

// BoardTitle returns BBS_TITLE, or fallback when it is missing or blank.
func BoardTitle(settings map[string]string, fallback string) string {
	if t := strings.TrimSpace(settings["BBS_TITLE"]); t != "" {
		return t
	}
	return fallback
}
