package segment

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// Boundary splits text on Unicode sentence boundaries (UAX #29) and then joins
// segments that were cut after a known abbreviation of the language.
type Boundary struct {
	lang    string
	abbrevs map[string]struct{}
}

// NewBoundary returns a splitter for lang using the given abbreviations. Entries
// are matched case-insensitively and may be given with or without the final period.
func NewBoundary(lang string, abbreviations []string) *Boundary {
	b := &Boundary{lang: lang, abbrevs: make(map[string]struct{}, len(abbreviations))}
	for _, a := range abbreviations {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		a = strings.TrimSuffix(a, ".")
		b.abbrevs[a] = struct{}{}
	}
	return b
}

// Name returns the language code the splitter was built for.
func (b *Boundary) Name() string { return b.lang }

// Split returns the sentences of text.
func (b *Boundary) Split(text string) ([]string, error) {
	if err := validate(text); err != nil {
		return nil, err
	}
	var segs []string
	iter := sentences.FromString(text)
	for iter.Next() {
		segs = append(segs, iter.Value())
	}

	var out []string
	var pending strings.Builder
	for i, seg := range segs {
		pending.WriteString(seg)
		if i+1 < len(segs) && b.joinsNext(seg, segs[i+1]) {
			continue
		}
		out = appendSentence(out, pending.String())
		pending.Reset()
	}
	out = appendSentence(out, pending.String())
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// joinsNext reports whether the boundary after seg was cut by an abbreviation
// rather than a sentence end. A known abbreviation always joins. A single
// capital initial joins only when it stands alone in its segment ("Mr. J.
// Smith", "J. Smith" at the start) or the next segment opens with another
// initial ("J. R. Tolkien"), so "World War I." and "plan B." still end
// their sentences.
func (b *Boundary) joinsNext(seg, next string) bool {
	word, alone := lastWord(seg)
	if word == "" {
		return false
	}
	if isInitial(word) {
		if alone {
			return true
		}
		first, _ := firstWord(next)
		return isInitial(first)
	}
	_, ok := b.abbrevs[strings.ToLower(word)]
	return ok
}

// lastWord returns the word before the final period of seg, without the
// period and any opening quotes, and whether it is the only word in seg.
func lastWord(seg string) (string, bool) {
	seg = strings.TrimSpace(seg)
	if !strings.HasSuffix(seg, ".") {
		return "", false
	}
	word := seg[:len(seg)-1]
	alone := true
	if i := strings.LastIndexFunc(word, unicode.IsSpace); i >= 0 {
		word = word[i+1:]
		alone = false
	}
	return strings.TrimLeft(word, "(\"'«“‘"), alone
}

// firstWord returns the leading word of seg, keeping a trailing period.
func firstWord(seg string) (string, bool) {
	fields := strings.Fields(seg)
	if len(fields) == 0 {
		return "", false
	}
	if !strings.HasSuffix(fields[0], ".") {
		return "", false
	}
	return strings.TrimSuffix(fields[0], "."), true
}

// isInitial reports whether word is a single upper-case letter.
func isInitial(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	return size > 0 && size == len(word) && unicode.IsUpper(r)
}

// readAbbreviations parses one abbreviation per line; blank lines and lines
// starting with "#" are skipped.
func readAbbreviations(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read abbreviations: %w", err)
	}
	return out, nil
}
