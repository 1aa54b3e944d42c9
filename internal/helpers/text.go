package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// NormalizeText lowercases s, trims surrounding whitespace and collapses
// internal runs of whitespace into single spaces.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint returns the SHA-256 hex digest of parts joined with "|".
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Tokenize splits s into lowercase word tokens, dropping punctuation.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TruncateWords shortens s to at most max runes, cutting at a word
// boundary and appending an ellipsis. Strings within the limit are
// returned unchanged.
func TruncateWords(s string, max int) string {
	const ellipsis = "..."
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	budget := max - len(ellipsis)
	if budget < 1 {
		budget = 1
	}
	cut := string(runes[:budget])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace) + ellipsis
}
