// Package segment splits raw text into ordered sentences. A language-aware
// splitter is used when one is available for the hint; otherwise the universal
// punctuation splitter is used.
package segment

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned when the input is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

// Splitter splits normalized text into trimmed, non-empty sentences in document order.
type Splitter interface {
	Split(text string) ([]string, error)
	// Name identifies the splitter in logs and status output.
	Name() string
}

var newlineReplacer = strings.NewReplacer("\n\n", " ", "\n", ". ")

// Normalize prepares a raw blob for splitting: paragraph breaks become a space,
// remaining line breaks become sentence breaks, and the result is trimmed.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(newlineReplacer.Replace(text))
}

func validate(text string) error {
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	return nil
}

// appendSentence trims s and appends it to out unless it is blank.
func appendSentence(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	return append(out, s)
}
