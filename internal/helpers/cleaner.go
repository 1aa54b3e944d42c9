package helpers

import (
	"strings"
	"unicode/utf8"
)

// StripCodeFence unwraps a response that arrives wrapped in a Markdown
// code fence (``` or ~~~, with or without a language tag). Input without
// a surrounding fence is returned trimmed but otherwise unchanged.
func StripCodeFence(s string) string {
	s = trimBOM(strings.TrimSpace(s))

	var fence string
	switch {
	case strings.HasPrefix(s, "```"):
		fence = "```"
	case strings.HasPrefix(s, "~~~"):
		fence = "~~~"
	default:
		return s
	}

	rest := s[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return s
	}
	rest = rest[nl+1:]

	end := strings.LastIndex(rest, fence)
	if end == -1 {
		return s
	}
	return strings.TrimSpace(rest[:end])
}

// trimBOM removes an optional UTF-8 BOM.
func trimBOM(s string) string {
	if strings.HasPrefix(s, "\ufeff") {
		return strings.TrimPrefix(s, "\ufeff")
	}
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF && utf8.ValidString(s[3:]) {
		return s[3:]
	}
	return s
}
