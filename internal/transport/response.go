package transport

import (
	"regexp"
	"strconv"
	"strings"
)

var fileLimitPattern = regexp.MustCompile(`(?i)file_limit=(\d+)`)

func trimText(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}

// FirstLine returns the first non-empty line of text, trimmed
func FirstLine(text string) string {
	for _, line := range strings.Split(trimText(text), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}

// HasPrefixFold reports whether s begins with prefix, ignoring case
func HasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// ParseSessionID returns the value of the first "sessid=<value>" line, or ""
func ParseSessionID(text string) string {
	for _, line := range strings.Split(trimText(text), "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, "sessid="); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// ParseFileLimit extracts "file_limit=<n>" from anywhere in text. Absence or
// an unparsable value yields 0, meaning the file is sent as one chunk.
func ParseFileLimit(text string) int64 {
	m := fileLimitPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	limit, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
