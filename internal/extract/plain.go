package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as a string. Invalid UTF-8 sequences are
// replaced with the replacement character, a byte order mark is dropped and
// surrounding whitespace is trimmed.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "\uFFFD"))
	}
	return strings.TrimSpace(strings.TrimPrefix(string(content), "\uFEFF"))
}
